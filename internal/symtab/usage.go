package symtab

import (
	"fmt"
	"strings"

	"clc/internal/diagnostics"
)

// globalExemptFunctions never trigger an unused-function warning.
var globalExemptFunctions = map[string]bool{
	"main":    true,
	"putchar": true,
	"getchar": true,
}

// CheckUsedVariables emits a WARNING (no line) for every variable or
// parameter in this table — not its descendants — whose Used flag is
// false. Call this exactly once, when a lexical block's table is about to
// go out of scope.
func (t *Table) CheckUsedVariables(sink *diagnostics.Sink) {
	for name, v := range t.vars {
		if v.Used {
			continue
		}
		var message string
		if strings.HasPrefix(name, paramPrefix) {
			message = fmt.Sprintf("Parameter '%s' is not used", strings.TrimPrefix(name, paramPrefix))
		} else {
			message = fmt.Sprintf("Variable '%s' declared at line %d is not used", name, v.Line)
		}
		sink.Signal(diagnostics.Warning, message, diagnostics.NoLine)
	}
}

// CheckUsedFunctions emits a WARNING (no line) for every function recorded
// in this table that was never called, excluding main/putchar/getchar.
// Call this once, on the root (global) table, after lowering completes.
func (t *Table) CheckUsedFunctions(sink *diagnostics.Sink) {
	for name, f := range t.funcs {
		if globalExemptFunctions[f.Name] {
			continue
		}
		if f.Called {
			continue
		}
		message := fmt.Sprintf("Function '%s' declared at line %d is not used", name, f.Line)
		sink.Signal(diagnostics.Warning, message, diagnostics.NoLine)
	}
}
