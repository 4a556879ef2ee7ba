// Package ir implements the three-address intermediate representation
// described by spec.md §4.3: a closed set of operations, each able to emit
// its own AT&T assembly.
//
// spec.md models an instruction as an immutable (kind, string operands,
// symbol-table pointer) triple, resolving operand layout at *emission*
// time. This port takes the re-architecture spec.md §9 proposes: every
// operand except a function prologue's frame size is resolved to a
// concrete offset and type once, at *insertion* time (when the lowering
// visitor calls one of the New* constructors below), so an Instruction
// carries plain values instead of a back-reference into a symbol table.
// Grounded on _examples/original_source/compiler/src/IR/IRInstr.{h,cpp}.
package ir

import (
	"fmt"
	"io"

	"clc/internal/symtab"
)

// Kind identifies one of the ~30 IR operations.
type Kind int

const (
	LoadConst Kind = iota
	Assign          // aff / copy: both are a type-directed move
	Not
	Neg
	Add
	Sub
	Mul
	Div
	Mod
	CmpEq
	CmpNeq
	CmpLt
	CmpGt
	CmpLe
	CmpGe
	And
	Or
	Xor
	PlusEqual
	SubEqual
	MultEqual
	DivEqual
	CondJump
	Jump
	Call
	WParam
	RParam
	Prologue
	Ret
)

// Ref is a variable operand already resolved to its stack offset and type
// at the point the owning Instruction was inserted.
type Ref struct {
	Name   string // kept for trace/debug output only, never for lookup
	Offset int32
	Type   symtab.Type
}

// RefOf captures v's layout as a Ref.
func RefOf(v *symtab.Variable) Ref {
	return Ref{Name: v.Name, Offset: v.Offset, Type: v.Type}
}

// Instruction is one IR operation. Only the fields relevant to Kind are
// populated; see the New* constructors for which fields each Kind uses.
type Instruction struct {
	Kind Kind

	// Binary/unary arithmetic, compare, bitwise, copy/assign, compound-assign.
	A, B Ref
	Dst  Ref

	// ldconst
	ConstType symtab.Type
	Const     int32

	// ret
	RetIsVar bool
	RetVar   Ref
	RetConst int32

	// conditional_jump
	TestVar    Ref
	FalseLabel string
	TrueLabel  string

	// absolute_jump
	JumpLabel string

	// call
	Callee string
	Argc   int

	// wparam / rparam
	ParamIndex  int
	StackOffset int

	// prologue — the one exception to insertion-time resolution: a
	// function's frame size is a whole-function property, knowable only
	// after the entire body has been lowered, so the prologue instruction
	// keeps a reference to the function's own table and resolves
	// FrameSize lazily at Emit time via Table.MemorySpace(). See DESIGN.md.
	FuncLabel string
	FrameSize func() int
}

// intArgRegs / charArgRegs are the System V integer-class argument
// registers for the first six positional arguments.
var (
	intArgRegs  = [6]string{"%edi", "%esi", "%edx", "%ecx", "%r8d", "%r9d"}
	charArgRegs = [6]string{"%dil", "%sil", "%dl", "%cl", "%r8b", "%r9b"}
)

func argReg(t symtab.Type, index int) string {
	if t == symtab.Char {
		return charArgRegs[index]
	}
	return intArgRegs[index]
}

// moveMnemonic returns the AT&T mnemonic for a direct move of typ.
func moveMnemonic(typ symtab.Type) string {
	if typ == symtab.Char {
		return "movb"
	}
	return "movl"
}

func slot(r Ref) string { return fmt.Sprintf("%d(%%rbp)", r.Offset) }

// Emit writes this instruction's assembly to w. Emit never mutates the
// Instruction; repeated calls are idempotent (property 1, determinism).
func (ins Instruction) Emit(w io.Writer) {
	switch ins.Kind {
	case LoadConst:
		mnemonic := "movl"
		if ins.ConstType == symtab.Char {
			mnemonic = "movb"
		}
		fmt.Fprintf(w, "\t%s\t$%d, %s\t\t# [ldconst] load %d into %s\n",
			mnemonic, symtab.Cast(ins.ConstType, ins.Const), slot(ins.Dst), ins.Const, ins.Dst.Name)

	case Assign:
		ins.emitAssign(w)

	case Not:
		mv := moveMnemonic(ins.A.Type)
		fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [op_not] load %s into %%eax\n", mv, slot(ins.A), ins.A.Name)
		fmt.Fprintf(w, "\tcmpl\t$0, %%eax\n")
		fmt.Fprintf(w, "\tsete\t%%al\n")
		fmt.Fprintf(w, "\tmovzbl\t%%al, %%eax\n")
		fmt.Fprintf(w, "\t%s\t%%eax, %s\t\t# [op_not] load %%eax into %s\n", moveMnemonic(ins.Dst.Type), slot(ins.Dst), ins.Dst.Name)

	case Neg:
		mv := moveMnemonic(ins.A.Type)
		fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [op_minus] load %s into %%eax\n", mv, slot(ins.A), ins.A.Name)
		fmt.Fprintf(w, "\tnegl\t%%eax\n")
		fmt.Fprintf(w, "\t%s\t%%eax, %s\t\t# [op_minus] load %%eax into %s\n", moveMnemonic(ins.Dst.Type), slot(ins.Dst), ins.Dst.Name)

	case Add, Sub, Mul, Xor:
		ins.emitSimpleBinary(w)

	case Div:
		fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [op_div] load %s into %%eax\n", moveMnemonic(ins.A.Type), slot(ins.A), ins.A.Name)
		fmt.Fprintf(w, "\t%s\t%s, %%edx\t\t# [op_div] load %s into %%edx\n", moveMnemonic(ins.B.Type), slot(ins.B), ins.B.Name)
		fmt.Fprintf(w, "\tcltd\n")
		fmt.Fprintf(w, "\tidivl\t%s\n", slot(ins.B))
		fmt.Fprintf(w, "\tmovl\t%%eax, %s\t\t# [op_div] load %%eax into %s\n", slot(ins.Dst), ins.Dst.Name)

	case Mod:
		mv1 := moveMnemonic(ins.A.Type)
		if ins.A.Type == symtab.Char {
			mv1 = "movsbl"
		}
		mv2 := moveMnemonic(ins.B.Type)
		if ins.B.Type == symtab.Char {
			mv2 = "movsbl"
		}
		fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [op_mod] load %s into %%eax\n", mv1, slot(ins.A), ins.A.Name)
		fmt.Fprintf(w, "\t%s\t%s, %%ebx\t\t# [op_mod] load %s into %%ebx\n", mv2, slot(ins.B), ins.B.Name)
		fmt.Fprintf(w, "\tcltd\n")
		fmt.Fprintf(w, "\tidivl\t%%ebx\n")
		fmt.Fprintf(w, "\tmovl\t%%edx, %s\t\t# [op_mod] load %%edx into %s\n", slot(ins.Dst), ins.Dst.Name)

	case CmpEq, CmpNeq, CmpLt, CmpGt, CmpLe, CmpGe:
		ins.emitCompare(w)

	case And, Or:
		ins.emitAndOr(w)

	case PlusEqual, SubEqual, MultEqual, DivEqual:
		ins.emitCompoundAssign(w)

	case CondJump:
		fmt.Fprintf(w, "\tcmpl\t$0, %s\n", slot(ins.TestVar))
		fmt.Fprintf(w, "\tje\t%s\n", ins.FalseLabel)
		fmt.Fprintf(w, "\tjmp\t%s\n", ins.TrueLabel)

	case Jump:
		fmt.Fprintf(w, "\tjmp\t%s\n", ins.JumpLabel)

	case Call:
		fmt.Fprintf(w, "\tcall\t%s\n", ins.Callee)
		if sub := (ins.Argc - 6) * 8; sub > 0 {
			fmt.Fprintf(w, "\tsubq\t$%d, %%rsp\n", sub)
		}
		fmt.Fprintf(w, "\tmovl\t%%eax, %s\t\t# [call] load %%eax into %s\n", slot(ins.Dst), ins.Dst.Name)

	case WParam:
		ins.emitWParam(w)

	case RParam:
		ins.emitRParam(w)

	case Prologue:
		fmt.Fprintf(w, ".globl\t%s\n", ins.FuncLabel)
		fmt.Fprintf(w, ".type\t%s, @function\n", ins.FuncLabel)
		fmt.Fprintf(w, "%s:\n", ins.FuncLabel)
		fmt.Fprintf(w, "\t# prologue\n")
		fmt.Fprintf(w, "\tpushq\t%%rbp\t\t\t# save %%rbp on the stack\n")
		fmt.Fprintf(w, "\tmovq\t%%rsp, %%rbp\t\t# define %%rbp for the current function\n")
		fmt.Fprintf(w, "\tsubq\t$%d, %%rsp\n\n", ins.resolvedFrameSize())

	case Ret:
		if ins.RetIsVar {
			fmt.Fprintf(w, "\tmovl\t%s, %%eax\t\t# [ret] load %s into %%eax\n", slot(ins.RetVar), ins.RetVar.Name)
		} else {
			fmt.Fprintf(w, "\tmovl\t$%d, %%eax\t\t# [ret] load %d into %%eax\n", ins.RetConst, ins.RetConst)
		}
		fmt.Fprintf(w, "\n\t# epilogue\n")
		fmt.Fprintf(w, "\tmovq\t%%rbp, %%rsp\n")
		fmt.Fprintf(w, "\tpopq\t%%rbp\t\t\t# restore %%rbp from the stack\n")
		fmt.Fprintf(w, "\tret\t\t\t\t# return to the caller\n\n")
	}
}

func (ins Instruction) resolvedFrameSize() int {
	size := 0
	if ins.FrameSize != nil {
		size = ins.FrameSize()
	}
	remainder := size % 16
	if remainder > 0 {
		size += 16 - remainder
	}
	return size
}

func (ins Instruction) emitAssign(w io.Writer) {
	// Type-directed widening: int<-char zero-extends via movzbl; all other
	// combinations (int<-int, char<-char, char<-int) are a direct byte or
	// long move through %eax/%al.
	var mv1, mv2, reg string
	switch {
	case ins.A.Type == symtab.Int && ins.Dst.Type == symtab.Int:
		mv1, mv2, reg = "movl", "movl", "eax"
	case ins.A.Type == symtab.Char && ins.Dst.Type == symtab.Char:
		mv1, mv2, reg = "movb", "movb", "al"
	case ins.A.Type == symtab.Char && ins.Dst.Type == symtab.Int:
		mv1, mv2, reg = "movzbl", "movl", "eax"
	default: // A int, Dst char
		mv1, mv2, reg = "movb", "movb", "al"
	}
	fmt.Fprintf(w, "\t%s\t%s, %%%s\t\t# [copy/aff] load %s into %%%s\n", mv1, slot(ins.A), reg, ins.A.Name, reg)
	fmt.Fprintf(w, "\t%s\t%%%s, %s\t\t# [copy/aff] load %%%s into %s\n", mv2, reg, slot(ins.Dst), reg, ins.Dst.Name)
}

func (ins Instruction) emitSimpleBinary(w io.Writer) {
	op := map[Kind]string{Add: "addl", Sub: "subl", Mul: "imull", Xor: "xorl"}[ins.Kind]
	name := map[Kind]string{Add: "op_add", Sub: "op_sub", Mul: "op_mul", Xor: "op_xor"}[ins.Kind]
	fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [%s] load %s into %%eax\n", moveMnemonic(ins.A.Type), slot(ins.A), name, ins.A.Name)
	fmt.Fprintf(w, "\t%s\t%s, %%edx\t\t# [%s] load %s into %%edx\n", moveMnemonic(ins.B.Type), slot(ins.B), name, ins.B.Name)
	fmt.Fprintf(w, "\t%s\t%%edx, %%eax\n", op)
	fmt.Fprintf(w, "\tmovl\t%%eax, %s\t\t# [%s] load %%eax into %s\n", slot(ins.Dst), name, ins.Dst.Name)
}

func (ins Instruction) emitCompare(w io.Writer) {
	setcc := map[Kind]string{CmpEq: "sete", CmpNeq: "setne", CmpLt: "setl", CmpGt: "setg", CmpLe: "setle", CmpGe: "setge"}[ins.Kind]
	fmt.Fprintf(w, "\t%s\t%s, %%eax\n", moveMnemonic(ins.A.Type), slot(ins.A))
	fmt.Fprintf(w, "\t%s\t%s, %%edx\n", moveMnemonic(ins.B.Type), slot(ins.B))
	fmt.Fprintf(w, "\tcmpl\t%%edx, %%eax\n")
	fmt.Fprintf(w, "\t%s\t%%al\n", setcc)
	fmt.Fprintf(w, "\tmovzbl\t%%al, %%eax\n")
	fmt.Fprintf(w, "\tmovl\t%%eax, %s\n", slot(ins.Dst))
}

func (ins Instruction) emitAndOr(w io.Writer) {
	op, name := "andl", "op_and"
	if ins.Kind == Or {
		op, name = "orl", "op_or"
	}
	fmt.Fprintf(w, "\tmovl\t%s, %%eax\t\t# [%s] load %s into %%eax\n", slot(ins.A), name, ins.A.Name)
	fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [%s] %s(%s, %%eax)\n", op, slot(ins.B), name, name, ins.B.Name)
	fmt.Fprintf(w, "\tmovl\t%%eax, %s\t\t# [%s] load %%eax into %s\n", slot(ins.Dst), name, ins.Dst.Name)
}

func (ins Instruction) emitCompoundAssign(w io.Writer) {
	// A is the lhs variable (also the destination), B is the rhs operand.
	mv1 := moveMnemonic(ins.A.Type)
	mv2 := moveMnemonic(ins.B.Type)
	var op, name string
	switch ins.Kind {
	case PlusEqual:
		op, name = "addl", "op_plus_equal"
	case SubEqual:
		op, name = "subl", "op_sub_equal"
	case MultEqual:
		op, name = "imull", "op_mult_equal"
	case DivEqual:
		name = "op_div_equal"
	}

	fmt.Fprintf(w, "\t%s\t%s, %%eax\t\t# [%s] load %s into %%eax\n", mv1, slot(ins.A), name, ins.A.Name)
	fmt.Fprintf(w, "\t%s\t%s, %%edx\t\t# [%s] load %s into %%edx\n", mv2, slot(ins.B), name, ins.B.Name)

	if ins.Kind == DivEqual {
		fmt.Fprintf(w, "\tcltd\n")
		fmt.Fprintf(w, "\tidivl\t%s\n", slot(ins.B))
	} else {
		fmt.Fprintf(w, "\t%s\t%%edx, %%eax\n", op)
	}

	fmt.Fprintf(w, "\t%s\t%%eax, %s\t\t# [%s] load %%eax into %s\n", mv1, slot(ins.A), name, ins.A.Name)
}

func (ins Instruction) emitWParam(w io.Writer) {
	if ins.ParamIndex < 6 {
		reg := argReg(ins.A.Type, ins.ParamIndex)
		fmt.Fprintf(w, "\t%s\t%s, %s\t\t# [wparam] load %s into %s\n", moveMnemonic(ins.A.Type), slot(ins.A), reg, ins.A.Name, reg)
		return
	}
	if ins.A.Type == symtab.Char {
		fmt.Fprintf(w, "\tmovzbl\t%s, %%eax\n", slot(ins.A))
		fmt.Fprintf(w, "\tpushq\t%%rax\t\t# [wparam] push %s onto the stack\n", ins.A.Name)
		return
	}
	fmt.Fprintf(w, "\tpushq\t%s\t\t# [wparam] push %s onto the stack\n", slot(ins.A), ins.A.Name)
}

func (ins Instruction) emitRParam(w io.Writer) {
	if ins.ParamIndex < 6 {
		reg := argReg(ins.Dst.Type, ins.ParamIndex)
		fmt.Fprintf(w, "\t%s\t%s, %s\t\t# [rparam] load %s into %s\n", moveMnemonic(ins.Dst.Type), reg, slot(ins.Dst), reg, ins.Dst.Name)
		return
	}
	reg := "eax"
	mv := "movl"
	if ins.Dst.Type == symtab.Char {
		reg, mv = "al", "movb"
	}
	fmt.Fprintf(w, "\t%s\t%d(%%rbp), %%%s\t\t# [rparam] load param %d into %%%s\n", mv, ins.StackOffset, reg, ins.ParamIndex, reg)
	fmt.Fprintf(w, "\t%s\t%%%s, %s\t\t# [rparam] load %%%s into %s\n", mv, reg, slot(ins.Dst), reg, ins.Dst.Name)
}
