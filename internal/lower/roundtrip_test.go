package lower_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clc/internal/diagnostics"
	"clc/internal/lower"
	"clc/internal/parser"
)

// Front-end smoke check related to supplementary property 9 (SPEC_FULL.md
// §8): each literal source parses and lowers without an ERROR, and the
// emitted assembly defines main and contains a ret. The output is not
// compared against the assembly of a hand-built ast.Node tree.
func TestFrontEndRoundTripMatchesAssemblyShape(t *testing.T) {
	sources := []string{
		`int main() { return 42; }`,
		`int add(int a, int b) { return a + b; } int main() { return add(1, 2); }`,
		`int main() { int x; x = 0; while (x < 3) { x = x + 1; } return x; }`,
		`int main() { int x; if (1) { x = 2; } else { x = 3; } return x; }`,
	}

	for _, src := range sources {
		prog, err := parser.Parse([]byte(src))
		require.NoError(t, err, src)

		wsl := false
		diag := diagnostics.New(&bytes.Buffer{}, false)
		lw := lower.New(diag, nil, &wsl)
		lw.Lower(prog)

		require.False(t, diag.HasError(), src)

		var buf bytes.Buffer
		lw.CFG.Emit(&buf)
		out := buf.String()
		assert.Contains(t, out, ".globl\tmain", src)
		assert.Contains(t, out, "ret", src)
	}
}
