package lower

import (
	"fmt"
	"math"
	"strconv"

	"clc/internal/ast"
	"clc/internal/diagnostics"
	"clc/internal/ir"
	"clc/internal/symtab"
)

// newTemp allocates a fresh "!tmpN" variable of typ in table, marked used
// immediately (temporaries are never flagged unused).
func (lw *Lowering) newTemp(table *symtab.Table, typ symtab.Type, line int) *symtab.Variable {
	lw.tmpCounter++
	name := fmt.Sprintf("!tmp%d", lw.tmpCounter)
	v := table.AddVariable(name, typ, line)
	v.Used = true
	return v
}

// lowerExpr evaluates e against table, appending whatever IR instructions
// are needed, and returns the descriptor holding the result. On any error
// it signals the diagnostic and returns the shared sentinel so that
// enclosing expressions produce no further diagnostics (spec.md §7's
// no-cascade rule).
func (lw *Lowering) lowerExpr(e ast.Expr, table *symtab.Table) *symtab.Variable {
	switch n := e.(type) {
	case *ast.Const:
		return lw.lowerConst(n, table)
	case *ast.VarRef:
		return lw.lowerVarRef(n, table)
	case *ast.Call:
		return lw.lowerCall(n, table)
	case *ast.Unary:
		return lw.lowerUnary(n, table)
	case *ast.Binary:
		return lw.lowerBinary(n, table)
	case *ast.Assign:
		return lw.lowerAssign(n, table)
	case *ast.CompoundAssign:
		return lw.lowerCompoundAssign(n, table)
	}
	return symtab.Invalid()
}

func (lw *Lowering) lowerVarRef(n *ast.VarRef, table *symtab.Table) *symtab.Variable {
	if table.HasVariable(n.Name) == symtab.Absent && table.HasParameter(n.Name) == symtab.Absent {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Variable '%s' has not been declared", n.Name), n.Line())
		return symtab.Invalid()
	}
	v := table.GetVariable(n.Name, true)
	v.Used = true
	return v
}

func (lw *Lowering) lowerAssign(n *ast.Assign, table *symtab.Table) *symtab.Variable {
	if table.HasVariable(n.Name) == symtab.Absent && table.HasParameter(n.Name) == symtab.Absent {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Variable '%s' has not been declared", n.Name), n.Line())
		return symtab.Invalid()
	}

	saved := table.StackPointer()
	rhs := lw.lowerExpr(n.Value, table)
	table.SetStackPointer(saved)

	if !rhs.Valid {
		return symtab.Invalid()
	}
	if rhs.Type == symtab.Void {
		lw.Diag.Signal(diagnostics.Error, "Cannot perform operations on void", n.Line())
		return symtab.Invalid()
	}

	dst := table.GetVariable(n.Name, true)
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Assign, A: ir.RefOf(rhs), Dst: ir.RefOf(dst)})
	return rhs
}

func (lw *Lowering) lowerCompoundAssign(n *ast.CompoundAssign, table *symtab.Table) *symtab.Variable {
	rhs := lw.lowerExpr(n.Value, table)

	if table.HasVariable(n.Name) == symtab.Absent && table.HasParameter(n.Name) == symtab.Absent {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Variable '%s' has not been declared", n.Name), n.Line())
		return symtab.Invalid()
	}
	lhs := table.GetVariable(n.Name, true)

	var kind ir.Kind
	switch n.Op {
	case "+=":
		kind = ir.PlusEqual
	case "-=":
		kind = ir.SubEqual
	case "*=":
		kind = ir.MultEqual
	default:
		kind = ir.DivEqual
	}
	lw.CFG.Current().Add(ir.Instruction{Kind: kind, A: ir.RefOf(lhs), B: ir.RefOf(rhs)})
	lhs.Used = true
	return lhs
}

func (lw *Lowering) lowerUnary(n *ast.Unary, table *symtab.Table) *symtab.Variable {
	x := lw.lowerExpr(n.X, table)
	tmp := lw.newTemp(table, symtab.Int, n.Line())

	if !x.Valid {
		return symtab.Invalid()
	}
	if x.Type == symtab.Void {
		lw.Diag.Signal(diagnostics.Error, "Cannot perform operations on void", n.Line())
		return symtab.Invalid()
	}

	kind := ir.Not
	if n.Op == "-" {
		kind = ir.Neg
	}
	lw.CFG.Current().Add(ir.Instruction{Kind: kind, A: ir.RefOf(x), Dst: ir.RefOf(tmp)})
	return tmp
}

var binaryKinds = map[string]ir.Kind{
	"+": ir.Add, "-": ir.Sub, "*": ir.Mul, "/": ir.Div, "%": ir.Mod,
	"==": ir.CmpEq, "!=": ir.CmpNeq, "<": ir.CmpLt, ">": ir.CmpGt, "<=": ir.CmpLe, ">=": ir.CmpGe,
	"&": ir.And, "|": ir.Or, "^": ir.Xor,
}

func (lw *Lowering) lowerBinary(n *ast.Binary, table *symtab.Table) *symtab.Variable {
	l := lw.lowerExpr(n.L, table)
	r := lw.lowerExpr(n.R, table)
	tmp := lw.newTemp(table, symtab.Int, n.Line())

	if !l.Valid || !r.Valid {
		return symtab.Invalid()
	}
	if l.Type == symtab.Void || r.Type == symtab.Void {
		lw.Diag.Signal(diagnostics.Error, "Cannot perform operations on void", n.Line())
		return symtab.Invalid()
	}

	lw.CFG.Current().Add(ir.Instruction{Kind: binaryKinds[n.Op], A: ir.RefOf(l), B: ir.RefOf(r), Dst: ir.RefOf(tmp)})
	return tmp
}

func (lw *Lowering) lowerCall(n *ast.Call, table *symtab.Table) *symtab.Variable {
	if !lw.Global.HasFunction(n.Name) {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Function '%s' has not been declared", n.Name), n.Line())
		return symtab.Invalid()
	}
	f, _ := lw.Global.GetFunction(n.Name)

	if f.Line > n.Line() {
		lw.Diag.Signal(diagnostics.Warning, fmt.Sprintf("Function '%s' might be declared implicitely", n.Name), n.Line())
	}

	nbParams := len(n.Args)
	hasVoidParams := f.ParamCount < 0
	if (f.ParamCount > 0 && nbParams != f.ParamCount) || (hasVoidParams && nbParams > 0) {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Function '%s' is called with the wrong number of parameters", n.Name), n.Line())
		return symtab.Invalid()
	}

	saved := table.StackPointer()
	args := make([]*symtab.Variable, nbParams)
	for i, a := range n.Args {
		args[i] = lw.lowerExpr(a, table)
	}
	table.SetStackPointer(saved)

	for i := nbParams - 1; i >= 0; i-- {
		lw.CFG.Current().Add(ir.Instruction{Kind: ir.WParam, A: ir.RefOf(args[i]), ParamIndex: i})
	}

	tmp := lw.newTemp(table, f.ReturnType, n.Line())
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Call, Callee: n.Name, Dst: ir.RefOf(tmp), Argc: nbParams})
	f.Called = true
	return tmp
}

// lowerConst implements spec.md §4.6's literal-parsing rules: single
// character constants, multi-character constants (int, warned), and
// integer literals with unsigned-64 parsing and a digit-by-digit overflow
// fallback for values the standard library itself cannot represent.
// Grounded on CodeGenVisitor::visitConstExpr.
func (lw *Lowering) lowerConst(n *ast.Const, table *symtab.Table) *symtab.Variable {
	text := n.Text
	line := n.Line()

	if len(text) == 3 && text[0] == '\'' && text[2] == '\'' {
		tmp := lw.newTemp(table, symtab.Char, line)
		lw.CFG.Current().Add(ir.Instruction{Kind: ir.LoadConst, ConstType: symtab.Char, Const: int32(text[1]), Dst: ir.RefOf(tmp)})
		return tmp
	}

	if len(text) > 3 && text[0] == '\'' && text[len(text)-1] == '\'' {
		lw.Diag.Signal(diagnostics.Warning, "Use of multi-character character constant", line)
		var value int32
		for i := 1; i < len(text)-1; i++ {
			value = value*256 + int32(text[i])
		}
		tmp := lw.newTemp(table, symtab.Int, line)
		lw.CFG.Current().Add(ir.Instruction{Kind: ir.LoadConst, ConstType: symtab.Int, Const: value, Dst: ir.RefOf(tmp)})
		return tmp
	}

	value, ok := parseIntLiteral(text, line, lw.Diag)
	if !ok {
		return symtab.Invalid()
	}
	tmp := lw.newTemp(table, symtab.Int, line)
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.LoadConst, ConstType: symtab.Int, Const: value, Dst: ir.RefOf(tmp)})
	return tmp
}

const intSize = int64(math.MaxInt32) - int64(math.MinInt32) + 1

// parseIntLiteral mirrors visitConstExpr's three-way unsigned-64 parse:
// the common case modulos into int range (with an overflow warning when the
// value exceeds INT_MAX); values too large even for
// uint64 fall back to a per-digit reduction (spec.md §9 notes the result
// is implementation-defined within [INT_MIN, INT_MAX], which this
// reproduces faithfully rather than resolving further).
func parseIntLiteral(text string, line int, diag *diagnostics.Sink) (int32, bool) {
	if u, err := strconv.ParseUint(text, 10, 64); err == nil {
		reduced := int64(u % uint64(intSize))
		if reduced > math.MaxInt32 {
			reduced -= intSize
		}
		if u > math.MaxInt32 {
			diag.Signal(diagnostics.Warning, fmt.Sprintf(
				"Integer constant is too large for its type. Overflow in conversion to 'int' changes value from '%s' to '%d'", text, reduced), line)
		}
		return int32(reduced), true
	}

	var lValue int64
	validDigits := false
	for _, c := range text {
		if c < '0' || c > '9' {
			continue
		}
		validDigits = true
		lValue = lValue*10 + int64(c-'0')
		if lValue > math.MaxInt32 {
			lValue -= intSize
		}
	}
	if !validDigits {
		diag.Signal(diagnostics.Error, fmt.Sprintf("Integer constant threw invalid argument exception : %s", text), line)
		return 0, false
	}

	value := int32(lValue)
	diag.Signal(diagnostics.Warning, fmt.Sprintf(
		"Integer constant is too large for its type. Overflow in conversion to 'int' changes value from '%s' to '%d'", text, value), line)
	return value, true
}
