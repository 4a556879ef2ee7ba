package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clc/internal/diagnostics"
	"clc/internal/symtab"
)

func TestAddVariableAllocatesDescendingOffsets(t *testing.T) {
	tbl := symtab.New(0, nil)

	a := tbl.AddVariable("a", symtab.Int, 1)
	b := tbl.AddVariable("b", symtab.Char, 2)

	assert.Equal(t, int32(-4), a.Offset)
	assert.Equal(t, int32(-5), b.Offset)
	assert.True(t, a.Valid)
	assert.True(t, b.Valid)
}

func TestHasVariableReportsLocalVsInherited(t *testing.T) {
	parent := symtab.New(0, nil)
	parent.AddVariable("x", symtab.Int, 1)
	child := symtab.New(parent.StackPointer(), parent)
	child.AddVariable("y", symtab.Int, 2)

	assert.Equal(t, symtab.Local, child.HasVariable("y"))
	assert.Equal(t, symtab.Inherited, child.HasVariable("x"))
	assert.Equal(t, symtab.Absent, child.HasVariable("z"))
}

func TestParameterShadowsSameNamedLocalInOwnTable(t *testing.T) {
	tbl := symtab.New(0, nil)
	tbl.AddParameter("n", symtab.Int, 1)
	tbl.AddVariable("n", symtab.Int, 2)

	v := tbl.GetVariable("n", true)
	assert.Equal(t, symtab.Local, tbl.HasParameter("n"))
	// The parameter's mangled slot is distinct from the plain local's, and
	// GetVariable always resolves the parameter form first.
	assert.NotEqual(t, tbl.HasVariable("n"), symtab.Absent)
	assert.True(t, v.Valid)
}

func TestGetVariableUnresolvedReturnsSharedSentinel(t *testing.T) {
	tbl := symtab.New(0, nil)
	v := tbl.GetVariable("missing", true)

	require.False(t, v.Valid)
	assert.Same(t, symtab.Invalid(), v)
}

func TestMemorySpaceSumsDescendantHighWaterMarks(t *testing.T) {
	root := symtab.New(0, nil)
	root.AddVariable("a", symtab.Int, 1) // 4 bytes

	child := symtab.New(root.StackPointer(), root)
	child.AddVariable("b", symtab.Char, 2) // 1 byte
	child.AddVariable("c", symtab.Int, 3)  // 4 bytes

	assert.Equal(t, 9, root.MemorySpace())
}

func TestAddFunctionParamCountConventions(t *testing.T) {
	root := symtab.New(0, nil)

	root.AddFunction("voidparams", symtab.Int, -1, nil, nil, 1)
	root.AddFunction("unspecified", symtab.Int, 0, nil, nil, 2)
	root.AddFunction("exact", symtab.Int, 2, []symtab.Type{symtab.Int, symtab.Int}, []string{"a", "b"}, 3)

	f, ok := root.GetFunction("voidparams")
	require.True(t, ok)
	assert.Equal(t, -1, f.ParamCount)

	f, ok = root.GetFunction("unspecified")
	require.True(t, ok)
	assert.Equal(t, 0, f.ParamCount)

	f, ok = root.GetFunction("exact")
	require.True(t, ok)
	assert.Equal(t, 2, f.ParamCount)
}

func TestCastTruncatesOnlyChar(t *testing.T) {
	assert.Equal(t, int32(-1), symtab.Cast(symtab.Char, 255))
	assert.Equal(t, int32(255), symtab.Cast(symtab.Int, 255))
}

func TestCheckUsedVariablesWarnsOnceForUnusedLocalsAndParams(t *testing.T) {
	sink := diagnostics.New(new(nopWriter), false)
	tbl := symtab.New(0, nil)
	tbl.AddParameter("p", symtab.Int, 1)
	v := tbl.AddVariable("unused", symtab.Int, 2)
	used := tbl.AddVariable("used", symtab.Int, 3)
	used.Used = true
	_ = v

	tbl.CheckUsedVariables(sink)

	entries := sink.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, diagnostics.Warning, e.Severity)
		assert.Equal(t, diagnostics.NoLine, e.Line)
	}
}

func TestCheckUsedFunctionsExemptsEntryPoints(t *testing.T) {
	sink := diagnostics.New(new(nopWriter), false)
	root := symtab.New(0, nil)
	root.AddFunction("main", symtab.Int, 0, nil, nil, 1)
	root.AddFunction("putchar", symtab.Int, 1, []symtab.Type{symtab.Int}, []string{"c"}, 2)
	f := root.AddFunction("helper", symtab.Int, 0, nil, nil, 3)
	_ = f

	root.CheckUsedFunctions(sink)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "helper")
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }
