package lower

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clc/internal/ast"
	"clc/internal/diagnostics"
	"clc/internal/symtab"
)

func newLowering() (*Lowering, *diagnostics.Sink) {
	diag := diagnostics.New(&bytes.Buffer{}, false)
	wsl := false
	return New(diag, nil, &wsl), diag
}

func errorCount(diag *diagnostics.Sink) int {
	n := 0
	for _, e := range diag.Entries() {
		if e.Severity == diagnostics.Error {
			n++
		}
	}
	return n
}

// seed scenario: `int main() { return 42; }` — simplest possible program,
// the assembly must define main and return via %eax.
func TestLowerSimpleMainEmitsValidAssembly(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Main: &ast.MainDecl{
			HasReturnType: true,
			ReturnType:    "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{&ast.Return{X: &ast.Const{Text: "42"}}},
			},
		},
	}

	lw.Lower(prog)

	require.False(t, diag.HasError())
	var buf bytes.Buffer
	lw.CFG.Emit(&buf)
	out := buf.String()
	assert.Contains(t, out, ".globl\tmain")
	assert.Contains(t, out, "ret")
}

// spec.md §7's no-cascade property: an undeclared variable used inside a
// binary expression signals exactly one error, not one per enclosing
// expression.
func TestUndeclaredVariableDoesNotCascade(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{
					&ast.Return{X: &ast.Binary{
						Op: "+",
						L:  &ast.VarRef{Name: "missing"},
						R:  &ast.Const{Text: "1"},
					}},
				},
			},
		},
	}

	lw.Lower(prog)

	assert.Equal(t, 1, errorCount(diag))
}

// A void-returning call's result used in arithmetic signals exactly one
// error at the point of use, even though the result is consumed by two
// further levels of lowering (binary, then var-decl-init).
func TestVoidOperandCascadeSuppressedAcrossNestedLowering(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Funcs: []*ast.FuncDecl{
			{Name: "f", ReturnType: "void", Body: &ast.Block{}},
		},
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{
					&ast.VarDeclInit{
						Type: "int", Name: "y",
						Value: &ast.Binary{
							Op: "+",
							L:  &ast.Call{Name: "f"},
							R:  &ast.Const{Text: "1"},
						},
					},
				},
			},
		},
	}

	lw.Lower(prog)

	assert.Equal(t, 1, errorCount(diag))
}

func TestDuplicateLocalDeclarationIsError(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{
					&ast.VarDecl{Type: "int", Names: []string{"a"}},
					&ast.VarDecl{Type: "int", Names: []string{"a"}},
					&ast.Return{X: &ast.VarRef{Name: "a"}},
				},
			},
		},
	}

	lw.Lower(prog)

	assert.Equal(t, 1, errorCount(diag))
}

// Broadened shadow check (DESIGN.md): a local that collides with an
// enclosing function's parameter is an error even though the parameter is
// only visible via the parent table (Inherited, not Local).
func TestLocalShadowingParameterIsError(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Funcs: []*ast.FuncDecl{
			{
				Name: "f", ReturnType: "int",
				Params: []ast.Param{{Name: "n", Type: "int"}},
				Body: &ast.Block{
					Stmts: []ast.Stmt{
						&ast.If{
							Cond: &ast.Const{Text: "1"},
							Then: ast.Body{Block: &ast.Block{
								Stmts: []ast.Stmt{&ast.VarDecl{Type: "int", Names: []string{"n"}}},
							}},
						},
						&ast.Return{X: &ast.VarRef{Name: "n"}},
					},
				},
			},
		},
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{Stmts: []ast.Stmt{&ast.Return{X: &ast.Const{Text: "0"}}}},
		},
	}

	lw.Lower(prog)

	assert.Equal(t, 1, errorCount(diag))
}

func TestCallArityEnforcement(t *testing.T) {
	cases := []struct {
		name      string
		params    []ast.Param
		voidParam bool
		args      []ast.Expr
		wantErr   bool
	}{
		{name: "exact match ok", params: []ast.Param{{Name: "a", Type: "int"}}, args: []ast.Expr{&ast.Const{Text: "1"}}, wantErr: false},
		{name: "exact mismatch errors", params: []ast.Param{{Name: "a", Type: "int"}}, args: nil, wantErr: true},
		{name: "void params reject any arg", voidParam: true, args: []ast.Expr{&ast.Const{Text: "1"}}, wantErr: true},
		{name: "void params accept zero", voidParam: true, args: nil, wantErr: false},
		{name: "unspecified accepts any arity", params: nil, voidParam: false, args: []ast.Expr{&ast.Const{Text: "1"}, &ast.Const{Text: "2"}}, wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lw, diag := newLowering()
			prog := &ast.Program{
				Funcs: []*ast.FuncDecl{
					{Name: "f", ReturnType: "int", Params: tc.params, VoidParams: tc.voidParam, Body: &ast.Block{}},
				},
				Main: &ast.MainDecl{
					HasReturnType: true, ReturnType: "int",
					Body: &ast.Block{
						Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.Call{Name: "f", Args: tc.args}}},
					},
				},
			}

			lw.Lower(prog)

			if tc.wantErr {
				assert.GreaterOrEqual(t, errorCount(diag), 1)
			} else {
				assert.Equal(t, 0, errorCount(diag))
			}
		})
	}
}

func TestIfWiringCreatesThenElseAndJoinBlocks(t *testing.T) {
	lw, diag := newLowering()
	elseBody := ast.Body{Block: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.Const{Text: "1"}}}}}
	prog := &ast.Program{
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{
					&ast.If{
						Cond: &ast.Const{Text: "1"},
						Then: ast.Body{Block: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.Const{Text: "2"}}}}},
						Else: &elseBody,
					},
					&ast.Return{X: &ast.Const{Text: "0"}},
				},
			},
		},
	}

	lw.Lower(prog)

	require.False(t, diag.HasError())
	// entry + then + else + join == at least 4 blocks.
	assert.GreaterOrEqual(t, len(lw.CFG.Blocks()), 4)
}

func TestWhileWiringLoopsBackToTest(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{
					&ast.While{
						Cond: &ast.Const{Text: "0"},
						Body: ast.Body{Block: &ast.Block{Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.Const{Text: "1"}}}}},
					},
					&ast.Return{X: &ast.Const{Text: "0"}},
				},
			},
		},
	}

	lw.Lower(prog)

	require.False(t, diag.HasError())
	assert.GreaterOrEqual(t, len(lw.CFG.Blocks()), 4)
}

func TestMissingReturnInNonVoidFunctionWarns(t *testing.T) {
	lw, diag := newLowering()
	prog := &ast.Program{
		Funcs: []*ast.FuncDecl{
			{Name: "f", ReturnType: "int", Body: &ast.Block{}},
		},
		Main: &ast.MainDecl{
			HasReturnType: true, ReturnType: "int",
			Body: &ast.Block{
				Stmts: []ast.Stmt{&ast.ExprStmt{X: &ast.Call{Name: "f"}}, &ast.Return{X: &ast.Const{Text: "0"}}},
			},
		},
	}

	lw.Lower(prog)

	require.False(t, diag.HasError())
	require.True(t, diag.HasWarning())
}

func TestParseIntLiteralOverflowWithinUint64ReducesModuloAndWarns(t *testing.T) {
	diag := diagnostics.New(&bytes.Buffer{}, false)
	// Larger than int32 but representable in uint64: takes the modulo path.
	v, ok := parseIntLiteral("4294967296", 1, diag) // 2^32
	require.True(t, ok)
	assert.Equal(t, int32(0), v)
	assert.True(t, diag.HasWarning())
}

func TestParseIntLiteralRejectsNonNumericText(t *testing.T) {
	diag := diagnostics.New(&bytes.Buffer{}, false)
	_, ok := parseIntLiteral("", 1, diag)
	assert.False(t, ok)
	assert.True(t, diag.HasError())
}

func TestSingleCharConstLowersToCharTemp(t *testing.T) {
	lw, diag := newLowering()
	table := symtab.New(0, lw.Global)

	v := lw.lowerConst(&ast.Const{Text: "'A'"}, table)

	require.False(t, diag.HasError())
	assert.Equal(t, symtab.Char, v.Type)
}

func TestMultiCharConstWarnsAndLowersToIntTemp(t *testing.T) {
	lw, diag := newLowering()
	table := symtab.New(0, lw.Global)

	v := lw.lowerConst(&ast.Const{Text: "'AB'"}, table)

	assert.True(t, diag.HasWarning())
	assert.Equal(t, symtab.Int, v.Type)

	var buf bytes.Buffer
	lw.CFG.Current().Instructions[len(lw.CFG.Current().Instructions)-1].Emit(&buf)
	assert.Contains(t, buf.String(), "$16706") // 'A'*256 + 'B' == 65*256+66
}
