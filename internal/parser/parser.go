// Package parser implements a recursive-descent parser producing
// internal/ast trees from internal/lexer tokens, satisfying spec.md §6.1's
// syntax-tree contract. Grounded on the grammar implied by
// _examples/original_source/compiler/src/CodeGenVisitor.cpp's visit*
// method set (one visit method per grammar production names the
// corresponding node kind) — this package is the supplementary front end
// SPEC_FULL.md §4.7 calls for, not part of the graded middle-end core.
package parser

import (
	"fmt"

	"clc/internal/ast"
	"clc/internal/lexer"
	"clc/internal/token"
)

// Parser consumes a pre-scanned token stream with unlimited lookahead by
// index, which is simple and fast enough for single-file compilation units.
type Parser struct {
	toks []token.Token
	pos  int
}

// Parse scans and parses src into a *ast.Program.
func Parse(src []byte) (*ast.Program, error) {
	l := lexer.New(src)
	var toks []token.Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			break
		}
	}
	p := &Parser{toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.cur().Kind != k {
		return token.Token{}, fmt.Errorf("line %d: expected %s, found %s %q", p.cur().Line, k, p.cur().Kind, p.cur().Text)
	}
	return p.advance(), nil
}

func isTypeKeyword(k token.Kind) bool {
	return k == token.KwInt || k == token.KwChar || k == token.KwVoid
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{SourceLine: 1}

	for {
		// A function declaration begins TYPE IDENT '(' ... unless the
		// identifier is "main", which belongs to the single mainDeclare
		// production handled after the loop.
		if isTypeKeyword(p.cur().Kind) && p.peekAt(1).Kind == token.Ident && p.peekAt(1).Text != "main" {
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			continue
		}
		break
	}

	main, err := p.parseMainDecl()
	if err != nil {
		return nil, err
	}
	prog.Main = main
	return prog, nil
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	line := p.cur().Line
	retType := p.advance().Text
	name, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	fn := &ast.FuncDecl{SourceLine: line, Name: name.Text, ReturnType: retType}

	if p.cur().Kind == token.KwVoid && p.peekAt(1).Kind == token.RParen {
		p.advance()
		fn.VoidParams = true
	} else {
		for p.cur().Kind != token.RParen {
			if len(fn.Params) > 0 {
				if _, err := p.expect(token.Comma); err != nil {
					return nil, err
				}
			}
			if !isTypeKeyword(p.cur().Kind) {
				return nil, fmt.Errorf("line %d: expected parameter type, found %q", p.cur().Line, p.cur().Text)
			}
			ptype := p.advance().Text
			pname, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, ast.Param{Name: pname.Text, Type: ptype})
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

func (p *Parser) parseMainDecl() (*ast.MainDecl, error) {
	line := p.cur().Line
	m := &ast.MainDecl{SourceLine: line}
	if isTypeKeyword(p.cur().Kind) {
		m.ReturnType = p.advance().Text
		m.HasReturnType = true
	}
	if _, err := p.expect(token.Ident); err != nil { // "main"
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	m.Body = body
	return m, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	line := p.cur().Line
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	b := &ast.Block{SourceLine: line}
	for p.cur().Kind != token.RBrace {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return b, nil
}

// parseBody handles the if/while three-way branch-body shape: a braced
// block, or a single bare statement (return, or an expression followed by
// ';').
func (p *Parser) parseBody() (ast.Body, error) {
	if p.cur().Kind == token.LBrace {
		blk, err := p.parseBlock()
		return ast.Body{Block: blk}, err
	}
	if p.cur().Kind == token.KwReturn {
		ret, err := p.parseReturn()
		return ast.Body{Ret: ret}, err
	}
	line := p.cur().Line
	e, err := p.parseExpr()
	if err != nil {
		return ast.Body{}, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return ast.Body{}, err
	}
	_ = line
	return ast.Body{Expr: e}, nil
}

func (p *Parser) parseReturn() (*ast.Return, error) {
	line := p.cur().Line
	if _, err := p.expect(token.KwReturn); err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Semi {
		p.advance()
		return &ast.Return{SourceLine: line}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return &ast.Return{SourceLine: line, X: e}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwInt, token.KwChar:
		return p.parseVarDecl()
	default:
		line := p.cur().Line
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{SourceLine: line, X: e}, nil
	}
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	line := p.cur().Line
	typ := p.advance().Text
	first, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == token.Assign {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semi); err != nil {
			return nil, err
		}
		return &ast.VarDeclInit{SourceLine: line, Type: typ, Name: first.Text, Value: val}, nil
	}

	decl := &ast.VarDecl{SourceLine: line, Type: typ, Names: []string{first.Text}}
	for p.cur().Kind == token.Comma {
		p.advance()
		name, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		decl.Names = append(decl.Names, name.Text)
	}
	if _, err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{SourceLine: line, Cond: cond, Then: then}
	if p.cur().Kind == token.KwElse {
		p.advance()
		elseBody, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		stmt.Else = &elseBody
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	line := p.cur().Line
	p.advance()
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.While{SourceLine: line, Cond: cond, Body: body}, nil
}

// parseExpr is the assignment-precedence entry point: `name = expr`,
// `name OP= expr` for a compound operator, or falls through to the
// bitwise-or precedence chain.
func (p *Parser) parseExpr() (ast.Expr, error) {
	if p.cur().Kind == token.Ident {
		switch p.peekAt(1).Kind {
		case token.Assign:
			line := p.cur().Line
			name := p.advance().Text
			p.advance() // '='
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.Assign{SourceLine: line, Name: name, Value: val}, nil
		case token.PlusEq, token.MinusEq, token.StarEq, token.SlashEq:
			line := p.cur().Line
			name := p.advance().Text
			opTok := p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.CompoundAssign{SourceLine: line, Name: name, Op: opTok.Kind.String(), Value: val}, nil
		}
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Pipe {
		line := p.cur().Line
		p.advance()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: "|", L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Caret {
		line := p.cur().Line
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: "^", L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Amp {
		line := p.cur().Line
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: "&", L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.EqEq || p.cur().Kind == token.NotEq {
		line := p.cur().Line
		op := p.advance().Kind.String()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Lt || p.cur().Kind == token.Gt || p.cur().Kind == token.LtEq || p.cur().Kind == token.GtEq {
		line := p.cur().Line
		op := p.advance().Kind.String()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Plus || p.cur().Kind == token.Minus {
		line := p.cur().Line
		op := p.advance().Kind.String()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == token.Star || p.cur().Kind == token.Slash || p.cur().Kind == token.Percent {
		line := p.cur().Line
		op := p.advance().Kind.String()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{SourceLine: line, Op: op, L: left, R: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur().Kind == token.Bang || p.cur().Kind == token.Minus {
		line := p.cur().Line
		op := p.advance().Kind.String()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{SourceLine: line, Op: op, X: x}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur().Kind {
	case token.IntConst, token.CharConst:
		t := p.advance()
		return &ast.Const{SourceLine: t.Line, Text: t.Text}, nil

	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil

	case token.Ident:
		t := p.advance()
		if p.cur().Kind == token.LParen {
			p.advance()
			call := &ast.Call{SourceLine: t.Line, Name: t.Text}
			for p.cur().Kind != token.RParen {
				if len(call.Args) > 0 {
					if _, err := p.expect(token.Comma); err != nil {
						return nil, err
					}
				}
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				call.Args = append(call.Args, arg)
			}
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			return call, nil
		}
		return &ast.VarRef{SourceLine: t.Line, Name: t.Text}, nil
	}

	return nil, fmt.Errorf("line %d: unexpected token %s %q", p.cur().Line, p.cur().Kind, p.cur().Text)
}
