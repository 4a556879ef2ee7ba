// Package lower implements the Lowering Visitor of spec.md §4.6: it walks
// an internal/ast tree and populates a internal/symtab tree and a
// internal/cfg control-flow graph of internal/ir instructions, enforcing
// every typing and scoping rule along the way.
//
// Grounded on _examples/original_source/compiler/src/CodeGenVisitor.{h,cpp}.
// Per spec.md §9's re-architecture (adopted, see SPEC_FULL.md §9 and
// DESIGN.md), this is not a virtual-dispatch visitor: each shape of
// statement or expression is handled by its own function, selected by a Go
// type switch over the ast.Stmt/ast.Expr interfaces, and scope is threaded
// through ordinary function parameters rather than a visitor-owned stack.
package lower

import (
	"fmt"
	"os"

	"clc/internal/ast"
	"clc/internal/cfg"
	"clc/internal/diagnostics"
	"clc/internal/ir"
	"clc/internal/symtab"
	"clc/internal/trace"
)

// Lowering holds the state threaded through one compilation unit's lowering:
// the diagnostic sink, the single program-wide CFG, the global symbol
// table, and a strictly-increasing temporary counter.
type Lowering struct {
	Diag   *diagnostics.Sink
	Trace  *trace.Logger
	CFG    *cfg.CFG
	Global *symtab.Table

	tmpCounter      int
	currentFunction string
	currentRetType  symtab.Type
	wslExitCodes    bool
}

// New constructs a Lowering with putchar/getchar pre-registered in the
// global table, exactly as the original driver's constructor does.
// wslExitCodes, when non-nil, overrides the $WSLENV environment check
// (internal/config's [target] wsl_exit_codes setting); nil auto-detects.
func New(diag *diagnostics.Sink, tr *trace.Logger, wslExitCodes *bool) *Lowering {
	if tr == nil {
		tr = trace.Global()
	}
	global := symtab.New(0, nil)
	global.AddFunction("putchar", symtab.Int, 1, []symtab.Type{symtab.Int}, []string{"c"}, 0)
	global.AddFunction("getchar", symtab.Int, -1, nil, nil, 0)

	wsl := os.Getenv("WSLENV") != ""
	if wslExitCodes != nil {
		wsl = *wslExitCodes
	}

	return &Lowering{
		Diag:         diag,
		Trace:        tr,
		CFG:          cfg.New(),
		Global:       global,
		wslExitCodes: wsl,
	}
}

// parseType maps a type lexeme to its symtab.Type.
func parseType(lexeme string) symtab.Type {
	switch lexeme {
	case "char":
		return symtab.Char
	case "void":
		return symtab.Void
	default:
		return symtab.Int
	}
}

// Lower runs both passes over prog: function headers first (so forward
// references resolve), then every function body, then main last.
func (lw *Lowering) Lower(prog *ast.Program) {
	for _, fn := range prog.Funcs {
		lw.declareFuncHeader(fn)
	}
	for _, fn := range prog.Funcs {
		lw.lowerFuncBody(fn)
	}
	lw.lowerMain(prog.Main)

	lw.Global.CheckUsedFunctions(lw.Diag)

	if called, _ := lw.Global.GetFunction("putchar"); called != nil && called.Called {
		lw.CFG.RequirePutchar()
	}
	if called, _ := lw.Global.GetFunction("getchar"); called != nil && called.Called {
		lw.CFG.RequireGetchar()
	}
}

func (lw *Lowering) declareFuncHeader(fn *ast.FuncDecl) {
	if lw.Global.HasFunction(fn.Name) {
		lw.Diag.Signal(diagnostics.Error, fmt.Sprintf("Function '%s' has already been declared", fn.Name), fn.Line())
		return
	}

	paramCount := len(fn.Params)
	if fn.VoidParams {
		paramCount = -1
	}

	types := make([]symtab.Type, len(fn.Params))
	names := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		types[i] = parseType(p.Type)
		names[i] = p.Name
	}

	lw.Global.AddFunction(fn.Name, parseType(fn.ReturnType), paramCount, types, names, fn.Line())
}

func (lw *Lowering) lowerFuncBody(fn *ast.FuncDecl) {
	f, ok := lw.Global.GetFunction(fn.Name)
	if !ok {
		return // header declaration failed; nothing to lower
	}

	lw.currentFunction = fn.Name
	lw.currentRetType = f.ReturnType
	table := symtab.New(0, lw.Global)

	for i, name := range f.ParamNames {
		table.AddParameter(name, f.ParamTypes[i], fn.Line())
	}

	lw.Trace.Info("entered function body %s", fn.Name)
	lw.emitPrologueAndParams(fn.Name, f, table)

	for _, stmt := range fn.Body.Stmts {
		lw.lowerStmt(stmt, table)
	}
	if !table.HasReturned() {
		lw.returnDefault(fn.Line(), f, table)
	}
	lw.closeBlock(table)
}

func (lw *Lowering) lowerMain(m *ast.MainDecl) {
	lw.currentFunction = "main"

	retType := symtab.Int
	if m.HasReturnType {
		retType = parseType(m.ReturnType)
	} else {
		lw.Diag.Signal(diagnostics.Warning, "No return type specified for the main function: defaults to 'int'", m.Line())
	}
	lw.Global.AddFunction("main", retType, 0, nil, nil, m.Line())
	lw.currentRetType = retType

	f, _ := lw.Global.GetFunction("main")
	table := symtab.New(0, lw.Global)

	lw.Trace.Info("entered function body main")
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Prologue, FuncLabel: "main", FrameSize: func() int { return table.MemorySpace() }})

	for _, stmt := range m.Body.Stmts {
		lw.lowerStmt(stmt, table)
	}
	if !table.HasReturned() {
		lw.returnDefault(m.Line(), f, table)
	}
	lw.closeBlock(table)
}

// emitPrologueAndParams appends the prologue instruction and one rparam per
// declared parameter, in the same reverse order and stack-offset sequence
// as the original (see CodeGenVisitor::visitFuncDeclareBody).
func (lw *Lowering) emitPrologueAndParams(name string, f *symtab.Function, table *symtab.Table) {
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Prologue, FuncLabel: name, FrameSize: func() int { return table.MemorySpace() }})

	stackOffset := 16
	n := len(f.ParamNames)
	for i := n - 1; i >= 0; i-- {
		v := table.GetVariable(f.ParamNames[i], false)
		lw.CFG.Current().Add(ir.Instruction{
			Kind:        ir.RParam,
			Dst:         ir.RefOf(v),
			ParamIndex:  i,
			StackOffset: stackOffset,
		})
		stackOffset += 8
	}
}

// closeBlock runs unused-variable checks for table and, mirroring
// CodeGenVisitor::visitEndBlock, emits whatever terminating jump the
// *current* CFG block's successor edges imply.
func (lw *Lowering) closeBlock(table *symtab.Table) {
	table.CheckUsedVariables(lw.Diag)

	b := lw.CFG.Current()
	if b.ExitFalse != nil {
		b.Add(ir.Instruction{
			Kind:       ir.CondJump,
			TestVar:    b.TestVar,
			FalseLabel: b.ExitFalse.Label,
			TrueLabel:  b.ExitTrue.Label,
		})
	}
	if b.ExitTrue != nil {
		b.Add(ir.Instruction{Kind: ir.Jump, JumpLabel: b.ExitTrue.Label})
	}
}

// exitSuccessLiteral returns the platform-specific "success" constant for
// main's synthesized return, per spec.md §6.3.
func (lw *Lowering) exitSuccessLiteral() int32 {
	if lw.wslExitCodes {
		return 41
	}
	return 37
}

func (lw *Lowering) returnDefault(line int, f *symtab.Function, table *symtab.Table) {
	table.SetReturned(true)
	if f.ReturnType != symtab.Void {
		lw.Diag.Signal(diagnostics.Warning, fmt.Sprintf("No 'return' found in non-void function '%s'", lw.currentFunction), line)
	}

	var value int32
	if lw.currentFunction == "main" {
		value = lw.exitSuccessLiteral()
	}
	lw.CFG.Current().Add(ir.Instruction{Kind: ir.Ret, RetIsVar: false, RetConst: value})
}
