// instruction.go: runtime values and the bytecode instruction set.
//
// VALUES
// ------
// Value is the operand-stack element: a tagged carrier for an unsigned
// 64-bit integer, a boolean, or a reference to a Function object. Binary
// operators never coerce between tags.
//
// INSTRUCTIONS
// ------------
// An instruction sequence is a flat, ahead-of-time compiled []Instruction.
// Nested blocks (function bodies, branches, return expressions, call
// arguments) are embedded as complete sequences, not jump offsets: the VM
// recurses into them instead of branching by address.
package yaiwr

import (
	"fmt"
	"strconv"
)

////////////////////////////////////////////////////////////////////////////////
//                              VALUES & FUNCTIONS
////////////////////////////////////////////////////////////////////////////////

// ValueTag enumerates the runtime kinds a Value may hold.
type ValueTag int

const (
	VTInt  ValueTag = iota // uint64
	VTBool                 // bool
	VTFun                  // *Function
)

func (t ValueTag) String() string {
	switch t {
	case VTInt:
		return "integer"
	case VTBool:
		return "boolean"
	case VTFun:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the universal runtime carrier. Data holds the Go value for Tag.
type Value struct {
	Tag  ValueTag
	Data any
}

// String renders the same text PrintLn writes. The zero Value is "<none>".
func (v Value) String() string {
	if v.Data == nil {
		return "<none>"
	}
	switch v.Tag {
	case VTInt:
		return strconv.FormatUint(v.Data.(uint64), 10)
	case VTBool:
		return strconv.FormatBool(v.Data.(bool))
	case VTFun:
		f := v.Data.(*Function)
		return fmt.Sprintf("<fun %s/%d>", f.Name, len(f.Params))
	default:
		return "<unknown>"
	}
}

func Int(n uint64) Value         { return Value{Tag: VTInt, Data: n} }
func Bool(b bool) Value          { return Value{Tag: VTBool, Data: b} }
func FunVal(f *Function) Value   { return Value{Tag: VTFun, Data: f} }
func (v Value) AsInt() uint64    { return v.Data.(uint64) }
func (v Value) AsBool() bool     { return v.Data.(bool) }
func (v Value) AsFun() *Function { return v.Data.(*Function) }

// Function is a closure: the compiled body plus the scope it was declared
// in. Calling it opens a child of Scope, not of the caller's scope.
type Function struct {
	Name   string
	Params []string
	Body   []Instruction
	Scope  *Scope
}

////////////////////////////////////////////////////////////////////////////////
//                                 INSTRUCTIONS
////////////////////////////////////////////////////////////////////////////////

// Opcode selects which Instruction fields are meaningful.
type Opcode uint8

const (
	OpPush                Opcode = iota // Value
	OpBinary                            // Binary
	OpLoad                              // Name
	OpPrintLn                           // -
	OpReturn                            // Body
	OpFunctionDeclaration               // Name, Params, Body
	OpFunctionCall                      // Name, Args
	OpConditional                       // Cond, Body (then), Else/HasElse
)

var opcodeNames = [...]string{
	OpPush:                "PUSH",
	OpBinary:              "BINOP",
	OpLoad:                "LOAD",
	OpPrintLn:             "PRINTLN",
	OpReturn:              "RETURN",
	OpFunctionDeclaration: "FUNDECL",
	OpFunctionCall:        "CALL",
	OpConditional:         "COND",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("Opcode(%d)", int(o))
}

// BinaryKind enumerates BinaryOp operators.
type BinaryKind uint8

const (
	BinAdd BinaryKind = iota
	BinMul
	BinLessThan
	BinGreaterThan
	BinEqual
	BinNotEqual
	BinLogicalAnd
	BinLogicalOr
	BinDeclare // Name
	BinAssign  // Name
)

var binaryNames = [...]string{
	BinAdd:         "Add",
	BinMul:         "Mul",
	BinLessThan:    "LessThan",
	BinGreaterThan: "GreaterThan",
	BinEqual:       "Equal",
	BinNotEqual:    "NotEqual",
	BinLogicalAnd:  "LogicalAnd",
	BinLogicalOr:   "LogicalOr",
	BinDeclare:     "Declare",
	BinAssign:      "Assign",
}

func (k BinaryKind) String() string {
	if int(k) < len(binaryNames) {
		return binaryNames[k]
	}
	return fmt.Sprintf("BinaryKind(%d)", int(k))
}

// BinaryOp is the operand of OpBinary. Name is set for BinDeclare and
// BinAssign; Uninit marks a declaration compiled without an initialiser,
// which binds a placeholder and consumes nothing from the stack.
type BinaryOp struct {
	Kind   BinaryKind
	Name   string
	Uninit bool
}

// Instruction is one bytecode instruction. Op decides which fields apply.
type Instruction struct {
	Op     Opcode
	Value  Value
	Binary BinaryOp
	Name   string
	Params []string
	Body   []Instruction
	Args   [][]Instruction

	Cond    []Instruction
	Else    []Instruction
	HasElse bool
}

// Constructors, one per opcode.

func Push(v Value) Instruction { return Instruction{Op: OpPush, Value: v} }

func Binary(kind BinaryKind) Instruction {
	return Instruction{Op: OpBinary, Binary: BinaryOp{Kind: kind}}
}

func Declare(name string) Instruction {
	return Instruction{Op: OpBinary, Binary: BinaryOp{Kind: BinDeclare, Name: name}}
}

func DeclareUninit(name string) Instruction {
	return Instruction{Op: OpBinary, Binary: BinaryOp{Kind: BinDeclare, Name: name, Uninit: true}}
}

func Assign(name string) Instruction {
	return Instruction{Op: OpBinary, Binary: BinaryOp{Kind: BinAssign, Name: name}}
}

func Load(name string) Instruction { return Instruction{Op: OpLoad, Name: name} }

func PrintLn() Instruction { return Instruction{Op: OpPrintLn} }

func Return(body []Instruction) Instruction { return Instruction{Op: OpReturn, Body: body} }

func FunctionDeclaration(name string, params []string, body []Instruction) Instruction {
	return Instruction{Op: OpFunctionDeclaration, Name: name, Params: params, Body: body}
}

func FunctionCall(name string, args [][]Instruction) Instruction {
	return Instruction{Op: OpFunctionCall, Name: name, Args: args}
}

// Conditional builds a branch; a nil alt means "no else block" while an
// empty non-nil alt is an empty else block.
func Conditional(cond, then, alt []Instruction) Instruction {
	in := Instruction{Op: OpConditional, Cond: cond, Body: then}
	if alt != nil {
		in.Else, in.HasElse = alt, true
	}
	return in
}
