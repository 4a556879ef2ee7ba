package symtab

// Presence reports where has_variable found a name: Absent, Local (this
// table's own map), or Inherited (resolved only via an ancestor).
type Presence int

const (
	Absent Presence = iota
	Local
	Inherited
)

// Table is one node of the symbol-table tree: one per function and one per
// nested lexical block within a function body, plus a single root holding
// only function descriptors. Children do not own their parent; a parent's
// child list is for get_memory_space's high-water-mark sum only.
type Table struct {
	parent   *Table
	children []*Table
	vars     map[string]*Variable
	funcs    map[string]*Function
	stackPtr int
	returned bool
}

// New constructs a table inheriting stackPtr as its entry stack-pointer
// offset. If parent is non-nil, the new table registers itself in the
// parent's child list immediately (construction-time registration, per
// spec.md §4.2).
func New(stackPtr int, parent *Table) *Table {
	t := &Table{
		parent:   parent,
		vars:     make(map[string]*Variable),
		funcs:    make(map[string]*Function),
		stackPtr: stackPtr,
	}
	if parent != nil {
		parent.children = append(parent.children, t)
	}
	return t
}

// Parent returns the enclosing table, or nil for the root.
func (t *Table) Parent() *Table { return t.parent }

// HasReturned reports whether a `return` has already been lowered in this
// table's block.
func (t *Table) HasReturned() bool { return t.returned }

// SetReturned records that a `return` has been lowered in this table's block.
func (t *Table) SetReturned(v bool) { t.returned = v }

// StackPointer returns the table's current running stack-pointer offset.
func (t *Table) StackPointer() int { return t.stackPtr }

// SetStackPointer overwrites the running stack-pointer offset. Used by the
// lowering visitor's snapshot/restore discipline around each top-level
// expression so temporary slots are reclaimed for reuse within a block.
func (t *Table) SetStackPointer(v int) { t.stackPtr = v }

// HasVariable reports whether name (unmangled) resolves locally, only via
// an ancestor, or not at all.
func (t *Table) HasVariable(name string) Presence {
	if _, ok := t.vars[name]; ok {
		return Local
	}
	if t.parent != nil && t.parent.HasVariable(name) != Absent {
		return Inherited
	}
	return Absent
}

// HasParameter reports the same three-way presence for name's mangled
// parameter form, letting a declaration collision with an enclosing
// parameter of the same function be detected without a second map.
func (t *Table) HasParameter(name string) Presence {
	return t.HasVariable(mangleParam(name))
}

// HasFunction searches this table then ancestors.
func (t *Table) HasFunction(name string) bool {
	if _, ok := t.funcs[name]; ok {
		return true
	}
	if t.parent != nil {
		return t.parent.HasFunction(name)
	}
	return false
}

// GetVariable resolves name: first as a mangled parameter (so a parameter
// always shadows a same-named plain local in its own table), then as a
// plain local in this table, then — if searchParents — in ancestors.
// Resolution failure returns the shared sentinel, never nil.
func (t *Table) GetVariable(name string, searchParents bool) *Variable {
	if t.HasVariable(mangleParam(name)) != Absent {
		return t.GetVariable(mangleParam(name), searchParents)
	}
	if v, ok := t.vars[name]; ok {
		return v
	}
	if searchParents && t.parent != nil {
		return t.parent.GetVariable(name, searchParents)
	}
	return Invalid()
}

// GetFunction resolves name in this table then ancestors. The bool result
// is false when no function descriptor was found anywhere in the chain;
// callers are responsible for diagnosing "unknown function" themselves,
// exactly once, at the call site that discovered the absence.
func (t *Table) GetFunction(name string) (*Function, bool) {
	if f, ok := t.funcs[name]; ok {
		return f, true
	}
	if t.parent != nil {
		return t.parent.GetFunction(name)
	}
	return nil, false
}

// AddVariable decrements the table's stack pointer by typ's size and
// records a fresh, valid descriptor at the resulting offset. Declaring the
// same name twice in one table silently overwrites the prior descriptor —
// callers must check HasVariable/HasParameter first to diagnose the
// duplicate before calling AddVariable.
func (t *Table) AddVariable(name string, typ Type, line int) *Variable {
	t.stackPtr -= typ.Size()
	v := &Variable{
		Name:   name,
		Offset: int32(t.stackPtr),
		Type:   typ,
		Line:   line,
		Used:   false,
		Valid:  true,
	}
	t.vars[name] = v
	return v
}

// AddParameter is AddVariable for a parameter: it mangles the name before
// storing so a local declared with the same plain name is a distinct slot
// that HasVariable/HasParameter can tell apart.
func (t *Table) AddParameter(name string, typ Type, line int) *Variable {
	return t.AddVariable(mangleParam(name), typ, line)
}

// AddFunction records a function descriptor. declaredParamCount follows
// spec.md §3's convention: -1 means `(void)`, 0 means unspecified (any
// arity accepted), >0 is an exact arity.
func (t *Table) AddFunction(name string, returnType Type, declaredParamCount int, paramTypes []Type, paramNames []string, line int) *Function {
	f := &Function{
		Name:       name,
		ReturnType: returnType,
		ParamCount: declaredParamCount,
		ParamTypes: paramTypes,
		ParamNames: paramNames,
		Line:       line,
	}
	t.funcs[name] = f
	return f
}

// MemorySpace sums the byte sizes of this table's own variables plus the
// memory spaces of every descendant table, recursively. It is the
// high-water mark a function's prologue reserves: because the lowering
// visitor's snapshot/restore discipline reuses temporary offsets across
// statements within a block without ever removing them from vars, summing
// "every allocation ever made" is exactly the frame size needed.
func (t *Table) MemorySpace() int {
	size := 0
	for _, v := range t.vars {
		size += v.Type.Size()
	}
	for _, c := range t.children {
		size += c.MemorySpace()
	}
	return size
}

// Cast narrows value to typ's representation: truncated to a signed 8-bit
// value for char, unchanged for int or any other type.
func Cast(typ Type, value int32) int32 {
	switch typ {
	case Char:
		return int32(int8(value))
	default:
		return value
	}
}
