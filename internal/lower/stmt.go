package lower

import (
	"fmt"

	"clc/internal/ast"
	"clc/internal/diagnostics"
	"clc/internal/ir"
	"clc/internal/symtab"
)

func (lw *Lowering) lowerStmt(s ast.Stmt, table *symtab.Table) {
	switch n := s.(type) {
	case *ast.VarDecl:
		lw.lowerVarDecl(n, table)
	case *ast.VarDeclInit:
		lw.lowerVarDeclInit(n, table)
	case *ast.ExprStmt:
		lw.lowerExpr(n.X, table)
	case *ast.If:
		lw.lowerIf(n, table)
	case *ast.While:
		lw.lowerWhile(n, table)
	case *ast.Return:
		lw.lowerReturn(n, table)
	}
}

// declareName applies spec.md §3's duplicate-declaration rules: a local
// redeclared in the same table is always an error; a local whose name
// collides with any parameter of the enclosing function — local or
// inherited — is also an error, since a parameter lives for the whole
// function, unlike a plain local which may be legally shadowed by an
// inner block. See DESIGN.md for why this is broader than the literal
// ifcc check it's grounded on.
func (lw *Lowering) declareName(name string, typ symtab.Type, line int, table *symtab.Table) bool {
	if table.HasVariable(name) == symtab.Local {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Variable '%s' has already been declared", name), line)
		return false
	}
	if table.HasParameter(name) != symtab.Absent {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Variable '%s' is already defined as a parameter of the function", name), line)
		return false
	}
	table.AddVariable(name, typ, line)
	return true
}

func (lw *Lowering) lowerVarDecl(n *ast.VarDecl, table *symtab.Table) {
	typ := parseType(n.Type)
	for _, name := range n.Names {
		lw.declareName(name, typ, n.Line(), table)
	}
}

func (lw *Lowering) lowerVarDeclInit(n *ast.VarDeclInit, table *symtab.Table) {
	typ := parseType(n.Type)
	if !lw.declareName(n.Name, typ, n.Line(), table) {
		return
	}

	saved := table.StackPointer()
	result := lw.lowerExpr(n.Value, table)
	table.SetStackPointer(saved)

	if !result.Valid {
		return
	}
	if result.Type == symtab.Void {
		lw.Diag.Signal(diagnostics.Error, "Cannot perform operations on void", n.Line())
		return
	}

	dst := table.GetVariable(n.Name, false)
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Assign, A: ir.RefOf(result), Dst: ir.RefOf(dst)})
}

// lowerBody lowers an if/while branch body, which is one of a braced
// block (its own child scope), a bare expression statement, or a bare
// return — exactly spec.md §4.6's three-way shape.
func (lw *Lowering) lowerBody(b ast.Body, parent *symtab.Table) {
	switch {
	case b.Block != nil:
		child := symtab.New(parent.StackPointer(), parent)
		for _, stmt := range b.Block.Stmts {
			lw.lowerStmt(stmt, child)
		}
		lw.closeBlock(child)
	case b.Ret != nil:
		lw.lowerReturn(b.Ret, parent)
	default:
		lw.lowerExpr(b.Expr, parent)
	}
}

// lowerIf implements spec.md §4.6's seven-step if/else wiring verbatim.
func (lw *Lowering) lowerIf(n *ast.If, table *symtab.Table) {
	testVar := lw.lowerExpr(n.Cond, table)
	testBB := lw.CFG.Current()
	testBB.TestVar = ir.RefOf(testVar)

	thenBB := lw.CFG.CreateBlock()
	endIfBB := lw.CFG.CreateBlock()
	endIfBB.ExitTrue = testBB.ExitTrue
	endIfBB.ExitFalse = testBB.ExitFalse

	testBB.ExitTrue = thenBB

	if n.Else != nil {
		elseBB := lw.CFG.CreateBlock()
		testBB.ExitFalse = elseBB
		elseBB.ExitTrue = endIfBB
		elseBB.ExitFalse = nil

		lw.CFG.SetCurrent(elseBB)
		lw.lowerBody(*n.Else, table)
		if n.Else.Block == nil {
			elseBB.Add(ir.Instruction{Kind: ir.Jump, JumpLabel: endIfBB.Label})
		}
	} else {
		testBB.ExitFalse = endIfBB
	}

	thenBB.ExitTrue = endIfBB
	thenBB.ExitFalse = nil
	lw.CFG.SetCurrent(thenBB)
	lw.lowerBody(n.Then, table)
	if n.Then.Block == nil {
		thenBB.Add(ir.Instruction{Kind: ir.Jump, JumpLabel: endIfBB.Label})
	}

	testBB.Add(ir.Instruction{Kind: ir.CondJump, TestVar: testBB.TestVar, FalseLabel: testBB.ExitFalse.Label, TrueLabel: testBB.ExitTrue.Label})

	lw.CFG.SetCurrent(endIfBB)
}

// lowerWhile implements spec.md §4.6's while wiring verbatim.
func (lw *Lowering) lowerWhile(n *ast.While, table *symtab.Table) {
	beforeBB := lw.CFG.Current()
	testBB := lw.CFG.CreateBlock()

	lw.CFG.SetCurrent(testBB)
	testVar := lw.lowerExpr(n.Cond, table)
	testBB.TestVar = ir.RefOf(testVar)

	bodyBB := lw.CFG.CreateBlock()
	afterBB := lw.CFG.CreateBlock()
	afterBB.ExitTrue = beforeBB.ExitTrue
	afterBB.ExitFalse = beforeBB.ExitFalse

	beforeBB.ExitTrue = testBB
	beforeBB.ExitFalse = nil

	testBB.ExitTrue = bodyBB
	testBB.ExitFalse = afterBB

	bodyBB.ExitTrue = testBB
	bodyBB.ExitFalse = nil

	lw.CFG.SetCurrent(bodyBB)
	lw.lowerBody(n.Body, table)

	beforeBB.Add(ir.Instruction{Kind: ir.Jump, JumpLabel: beforeBB.ExitTrue.Label})
	testBB.Add(ir.Instruction{Kind: ir.CondJump, TestVar: testBB.TestVar, FalseLabel: testBB.ExitFalse.Label, TrueLabel: testBB.ExitTrue.Label})
	bodyBB.Add(ir.Instruction{Kind: ir.Jump, JumpLabel: bodyBB.ExitTrue.Label})

	lw.CFG.SetCurrent(afterBB)
}

func (lw *Lowering) lowerReturn(n *ast.Return, table *symtab.Table) {
	table.SetReturned(true)

	if n.X == nil {
		lw.lowerEmptyReturn(n.Line(), table)
		return
	}

	saved := table.StackPointer()
	result := lw.lowerExpr(n.X, table)
	table.SetStackPointer(saved)

	if lw.currentRetType == symtab.Void && result.Type != symtab.Void {
		lw.Diag.Signal(diagnostics.Warning, fmt.Sprintf("'return' with a value, in function returning void '%s'", lw.currentFunction), n.Line())
	}

	if !result.Valid {
		lw.CFG.Current().Add(ir.Instruction{Kind: ir.Ret})
		return
	}
	if result.Type == symtab.Void {
		lw.Diag.Signal(diagnostics.Error, "Cannot perform operations on void", n.Line())
		return
	}

	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Ret, RetIsVar: true, RetVar: ir.RefOf(result)})
}

func (lw *Lowering) lowerEmptyReturn(line int, table *symtab.Table) {
	if lw.currentRetType != symtab.Void {
		lw.Diag.Signal(diagnostics.Warning, fmt.Sprintf("Use of empty 'return;' in non-void function '%s'", lw.currentFunction), line)
	}

	var value int32
	if lw.currentFunction == "main" {
		value = lw.exitSuccessLiteral()
	}
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Ret, RetConst: value})
}
