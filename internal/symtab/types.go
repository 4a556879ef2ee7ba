// Package symtab implements the scoped symbol table described by spec.md
// §4.2: name resolution, stack-slot layout, function signatures, and usage
// tracking. Grounded on _examples/original_source/compiler/src/SymbolTable.{h,cpp}.
package symtab

import "fmt"

// Type is one of the two scalar types the language supports.
type Type int

const (
	Void Type = iota
	Int
	Char
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Char:
		return "char"
	default:
		return "void"
	}
}

// Size returns the type's size in bytes on the stack: 4 for int, 1 for
// char. Void has no size and is never stored in a slot.
func (t Type) Size() int {
	switch t {
	case Int:
		return 4
	case Char:
		return 1
	default:
		return 0
	}
}

// paramPrefix mangles parameter names so a parameter and a same-named local
// variable never collide in the variable map, without a separate index.
// The original C++ source used a non-ASCII prefix inconsistently between
// the lookup path ("°") and the unused-variable message path ("^"); this
// port picks one ASCII prefix and uses it everywhere (see DESIGN.md).
const paramPrefix = "^"

func mangleParam(name string) string { return paramPrefix + name }

// Variable is the descriptor the table returns for a declared local,
// parameter, or compiler-generated temporary.
type Variable struct {
	Name   string
	Offset int32 // signed bytes from the frame base pointer; always negative
	Type   Type
	Line   int
	Used   bool
	Valid  bool // false only for the shared sentinel; see Invalid()
}

// invalidVar is the shared sentinel descriptor returned when resolution
// fails, so callers can propagate "poisoned" results without re-diagnosing
// an error that was already signaled at the point of failure.
var invalidVar = &Variable{Valid: false}

// Invalid returns the shared sentinel descriptor.
func Invalid() *Variable { return invalidVar }

// Function is the descriptor recorded once at function-header processing.
type Function struct {
	Name           string
	ReturnType     Type
	IsVoidReturn   bool // not set by AddFunction; a declared `void` return is recorded as ReturnType == Void
	ParamCount     int  // -1 = declared `(void)`; 0 = unspecified (accepts any arity); >0 = exact arity
	ParamTypes     []Type
	ParamNames     []string
	Line           int
	Called         bool
}

func (f *Function) String() string {
	return fmt.Sprintf("%s %s(%v) @line %d", f.ReturnType, f.Name, f.ParamTypes, f.Line)
}
