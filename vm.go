// vm.go
package yaiwr

// A small stack machine over the nested instruction sequences of instruction.go.
//   - One operand stack per Eval invocation (a frame); values cross frames
//     only through Outcome.
//   - Return is a signal, not a jump: Eval reports OutReturn and each caller
//     decides whether to re-propagate it (conditionals) or absorb it (calls).
//   - Single-threaded. A Machine must not be shared between goroutines.

import (
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
)

// DefaultMaxCallDepth bounds nested function calls.
const DefaultMaxCallDepth = 10000

// -----------------------------
// Outcome
// -----------------------------

// OutcomeKind distinguishes how an instruction sequence finished.
type OutcomeKind int

const (
	OutNone   OutcomeKind = iota // ran to the end with an empty stack
	OutValue                     // ran to the end; Value is the top of the stack
	OutReturn                    // a Return instruction fired; Value is set iff HasValue
)

// Outcome is the result of evaluating one instruction sequence.
type Outcome struct {
	Kind     OutcomeKind
	Value    Value
	HasValue bool
}

func valueOutcome(v Value) Outcome { return Outcome{Kind: OutValue, Value: v, HasValue: true} }

// -----------------------------
// Machine
// -----------------------------

// Machine evaluates instruction sequences. PrintLn writes to Out.
type Machine struct {
	Out          io.Writer
	MaxCallDepth int

	log   *slog.Logger
	depth int
}

// NewMachine returns a machine printing to out (os.Stdout when nil).
func NewMachine(out io.Writer) *Machine {
	if out == nil {
		out = os.Stdout
	}
	return &Machine{Out: out, MaxCallDepth: DefaultMaxCallDepth, log: discardLogger()}
}

// SetLogger routes call tracing (debug level) to l.
func (m *Machine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = discardLogger()
	}
	m.log = l
}

// Eval executes code against scope and reports how it finished.
func Eval(code []Instruction, scope *Scope) (Outcome, error) {
	return NewMachine(nil).Eval(code, scope)
}

// EvalProgram runs a top-level sequence and returns the value left on the
// stack, if any. A top-level return yields its value.
func EvalProgram(code []Instruction, scope *Scope) (Value, bool, error) {
	return NewMachine(nil).EvalProgram(code, scope)
}

// EvalProgram is the machine-bound form of the package-level EvalProgram.
func (m *Machine) EvalProgram(code []Instruction, scope *Scope) (Value, bool, error) {
	res, err := m.Eval(code, scope)
	if err != nil {
		return Value{}, false, err
	}
	return res.Value, res.HasValue, nil
}

// Eval executes code in scope on a fresh operand stack.
func (m *Machine) Eval(code []Instruction, scope *Scope) (Outcome, error) {
	f := &frame{scope: scope, stack: make([]Value, 0, 8)}

	for i := range code {
		in := &code[i]
		switch in.Op {

		case OpPush:
			f.push(in.Value)

		case OpBinary:
			if err := f.binary(in.Binary); err != nil {
				return Outcome{}, err
			}

		case OpLoad:
			b, err := scope.Lookup(in.Name)
			if err != nil {
				return Outcome{}, err
			}
			switch b.Kind {
			case BindFunction:
				f.push(FunVal(b.Fun))
			case BindValue:
				f.push(b.Value)
			default:
				return Outcome{}, newError(ErrUndefinedReference, in.Name)
			}

		case OpPrintLn:
			v, err := f.pop()
			if err != nil {
				return Outcome{}, err
			}
			if _, err := fmt.Fprintln(m.Out, v.String()); err != nil {
				return Outcome{}, evalError("println: %v", err)
			}

		case OpReturn:
			res, err := m.Eval(in.Body, scope)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Kind: OutReturn, Value: res.Value, HasValue: res.HasValue}, nil

		case OpFunctionDeclaration:
			if scope.HasOwn(in.Name) {
				return Outcome{}, newError(ErrFunctionDuplicate, in.Name)
			}
			scope.DeclareFunction(in.Name, &Function{
				Name:   in.Name,
				Params: in.Params,
				Body:   in.Body,
				Scope:  scope,
			})

		case OpFunctionCall:
			v, ok, err := m.call(in, scope)
			if err != nil {
				return Outcome{}, err
			}
			if ok {
				f.push(v)
			}

		case OpConditional:
			res, err := m.Eval(in.Cond, scope)
			if err != nil {
				return Outcome{}, err
			}
			if !res.HasValue {
				return Outcome{}, evalError("condition yields no value")
			}
			if res.Value.Tag != VTBool {
				return Outcome{}, typeMismatch("condition must be boolean, got %s", res.Value.Tag)
			}
			branch, run := in.Body, true
			if !res.Value.AsBool() {
				branch, run = in.Else, in.HasElse
			}
			if !run {
				continue
			}
			res, err = m.Eval(branch, scope)
			if err != nil {
				return Outcome{}, err
			}
			if res.Kind == OutReturn {
				return res, nil
			}
			if res.HasValue {
				f.push(res.Value)
			}

		default:
			return Outcome{}, evalError("unknown opcode %s", in.Op)
		}
	}

	if len(f.stack) == 0 {
		return Outcome{Kind: OutNone}, nil
	}
	return valueOutcome(f.stack[len(f.stack)-1]), nil
}

// Apply calls fn with already evaluated arguments. It returns the call's
// value, if the body produced one.
func (m *Machine) Apply(fn *Function, args []Value) (Value, bool, error) {
	if len(fn.Params) != len(args) {
		return Value{}, false, &Error{
			Kind:     ErrFunctionArgumentsMismatch,
			Name:     fn.Name,
			Expected: len(fn.Params),
			Actual:   len(args),
		}
	}
	if m.MaxCallDepth > 0 && m.depth >= m.MaxCallDepth {
		return Value{}, false, evalError("maximum call depth %d exceeded in '%s'", m.MaxCallDepth, fn.Name)
	}
	m.depth++
	defer func() { m.depth-- }()

	callScope := NewChildScope(fn.Scope)
	for i, p := range fn.Params {
		callScope.Declare(p, args[i])
	}
	m.log.Debug("call", "fn", fn.Name, "args", len(args), "depth", m.depth)

	res, err := m.Eval(fn.Body, callScope)
	if err != nil {
		return Value{}, false, err
	}
	return res.Value, res.HasValue, nil
}

// call evaluates the argument sequences in the caller's scope, resolves the
// callee and applies it.
func (m *Machine) call(in *Instruction, scope *Scope) (Value, bool, error) {
	args := make([]Value, 0, len(in.Args))
	for i, a := range in.Args {
		// a temporary child keeps declarations inside arguments local
		res, err := m.Eval(a, NewChildScope(scope))
		if err != nil {
			return Value{}, false, err
		}
		if !res.HasValue {
			return Value{}, false, evalError("argument %d of '%s' yields no value", i+1, in.Name)
		}
		args = append(args, res.Value)
	}
	fn, err := resolveFunction(scope, in.Name)
	if err != nil {
		return Value{}, false, err
	}
	return m.Apply(fn, args)
}

// resolveFunction finds a declared function, or a variable holding one.
func resolveFunction(scope *Scope, name string) (*Function, error) {
	b, err := scope.Lookup(name)
	if err != nil {
		return nil, newError(ErrUndefinedFunction, name)
	}
	switch {
	case b.Kind == BindFunction:
		return b.Fun, nil
	case b.Kind == BindValue && b.Value.Tag == VTFun:
		return b.Value.AsFun(), nil
	}
	return nil, newError(ErrUndefinedFunction, name)
}

// -----------------------------
// Frame (operand stack)
// -----------------------------

type frame struct {
	scope *Scope
	stack []Value
}

func (f *frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() (Value, error) {
	if len(f.stack) == 0 {
		return Value{}, &Error{Kind: ErrEmptyStack}
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) binary(op BinaryOp) error {
	switch op.Kind {
	case BinDeclare:
		if op.Uninit {
			f.scope.DeclareUninit(op.Name)
			return nil
		}
		v, err := f.pop()
		if err != nil {
			return err
		}
		f.scope.Declare(op.Name, v)
		f.push(v)
		return nil

	case BinAssign:
		v, err := f.pop()
		if err != nil {
			return err
		}
		if err := f.scope.Assign(op.Name, v); err != nil {
			return err
		}
		f.push(v)
		return nil
	}

	// The operand pushed last is consumed first.
	rhs, err := f.pop()
	if err != nil {
		return err
	}
	lhs, err := f.pop()
	if err != nil {
		return err
	}
	out, err := applyBinary(op.Kind, lhs, rhs)
	if err != nil {
		return err
	}
	f.push(out)
	return nil
}

// -----------------------------
// Operators
// -----------------------------

func applyBinary(kind BinaryKind, lhs, rhs Value) (Value, error) {
	if lhs.Tag != rhs.Tag {
		return Value{}, typeMismatch("%s expects operands of the same type, got %s and %s", kind, lhs.Tag, rhs.Tag)
	}
	switch kind {
	case BinAdd, BinMul, BinLessThan, BinGreaterThan:
		if lhs.Tag != VTInt {
			return Value{}, typeMismatch("%s expects integers, got %s", kind, lhs.Tag)
		}
		a, b := lhs.AsInt(), rhs.AsInt()
		switch kind {
		case BinAdd:
			sum, carry := bits.Add64(a, b, 0)
			if carry != 0 {
				return Value{}, &Error{Kind: ErrNumericOverflow, Msg: fmt.Sprintf("%d + %d overflowed", a, b)}
			}
			return Int(sum), nil
		case BinMul:
			hi, lo := bits.Mul64(a, b)
			if hi != 0 {
				return Value{}, &Error{Kind: ErrNumericOverflow, Msg: fmt.Sprintf("%d * %d overflowed", a, b)}
			}
			return Int(lo), nil
		case BinLessThan:
			return Bool(a < b), nil
		default:
			return Bool(a > b), nil
		}

	case BinEqual:
		return Bool(equalValues(lhs, rhs)), nil
	case BinNotEqual:
		return Bool(!equalValues(lhs, rhs)), nil

	case BinLogicalAnd, BinLogicalOr:
		if lhs.Tag != VTBool {
			return Value{}, typeMismatch("%s expects booleans, got %s", kind, lhs.Tag)
		}
		if kind == BinLogicalAnd {
			return Bool(lhs.AsBool() && rhs.AsBool()), nil
		}
		return Bool(lhs.AsBool() || rhs.AsBool()), nil
	}
	return Value{}, evalError("unsupported operator %s", kind)
}

// equalValues compares same-tag values; functions compare by identity.
func equalValues(a, b Value) bool {
	switch a.Tag {
	case VTInt:
		return a.AsInt() == b.AsInt()
	case VTBool:
		return a.AsBool() == b.AsBool()
	case VTFun:
		return a.AsFun() == b.AsFun()
	}
	return false
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
