// interpreter.go: the embedding surface (parse, compile, evaluate).
//
// OVERVIEW
// ========
// An Interpreter owns one persistent Global scope, one Machine (output sink,
// call-depth limit) and a logger. Entry points differ only in which scope
// they target:
//   - EvalSource runs in a fresh child of Global; lets and functions declared
//     by the program vanish afterwards, though assignments to names already
//     bound in Global stick.
//   - EvalPersistentSource and RunFile run in Global itself (REPL / script).
//
// Results are (Value, bool, error): the bool reports whether the program left
// a value on its stack. Parse errors come back rendered as caret snippets
// (see WrapErrorWithName); runtime errors are the bare *Error.
//
// LOGGING
// -------
// At debug level each evaluation logs the statement, its AST in canonical
// form and its bytecode listing.
//
// Not safe for concurrent use.
package yaiwr

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// Interpreter evaluates yaiwr source against a persistent global scope.
type Interpreter struct {
	Global *Scope

	vm  *Machine
	log *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sends println output to w (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(ip *Interpreter) {
		if w != nil {
			ip.vm.Out = w
		}
	}
}

// WithLogger enables debug tracing through l.
func WithLogger(l *slog.Logger) Option {
	return func(ip *Interpreter) {
		if l != nil {
			ip.log = l
			ip.vm.SetLogger(l)
		}
	}
}

// WithMaxCallDepth bounds nested calls; n <= 0 removes the bound.
func WithMaxCallDepth(n int) Option {
	return func(ip *Interpreter) { ip.vm.MaxCallDepth = n }
}

// NewInterpreter returns an interpreter with an empty Global scope.
func NewInterpreter(opts ...Option) *Interpreter {
	ip := &Interpreter{
		Global: NewRootScope(),
		vm:     NewMachine(nil),
		log:    discardLogger(),
	}
	for _, o := range opts {
		o(ip)
	}
	return ip
}

// Reset drops every global binding.
func (ip *Interpreter) Reset() { ip.Global = NewRootScope() }

// EvalSource evaluates src in a fresh child of Global.
func (ip *Interpreter) EvalSource(src string) (Value, bool, error) {
	return ip.evalIn("<main>", src, NewChildScope(ip.Global))
}

// EvalPersistentSource evaluates src directly in Global.
func (ip *Interpreter) EvalPersistentSource(src string) (Value, bool, error) {
	return ip.evalIn("<repl>", src, ip.Global)
}

// RunFile reads path and evaluates it in Global. An unreadable file is
// ErrProgramFileNotFound.
func (ip *Interpreter) RunFile(path string) (Value, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return Value{}, false, newError(ErrProgramFileNotFound, path)
		}
		return Value{}, false, &Error{Kind: ErrProgramFileNotFound, Name: path, Msg: err.Error()}
	}
	return ip.evalIn(path, string(data), ip.Global)
}

// Compile parses src and returns its bytecode without running it.
func (ip *Interpreter) Compile(src string) ([]Instruction, error) {
	ast, err := ParseSExpr(src)
	if err != nil {
		return nil, WrapErrorWithName(err, "<main>", src)
	}
	return CompileProgram(ast), nil
}

// Call invokes the global function name with args.
func (ip *Interpreter) Call(name string, args ...Value) (Value, bool, error) {
	fn, err := resolveFunction(ip.Global, name)
	if err != nil {
		return Value{}, false, err
	}
	return ip.vm.Apply(fn, args)
}

//// END_OF_PUBLIC

func (ip *Interpreter) evalIn(name, src string, scope *Scope) (Value, bool, error) {
	ast, err := ParseSExpr(src)
	if err != nil {
		return Value{}, false, WrapErrorWithName(err, name, src)
	}
	code := CompileProgram(ast)

	if ip.log.Enabled(context.Background(), slog.LevelDebug) {
		ip.log.Debug("statement", "source", name, "text", src)
		ip.log.Debug("ast", "sexpr", FormatSExpr(ast))
		ip.log.Debug("bytecode", "code", FormatCode(code))
	}

	v, ok, err := ip.vm.EvalProgram(code, scope)
	if err != nil {
		ip.log.Debug("evaluation failed", "source", name, "err", err)
		return Value{}, false, err
	}
	return v, ok, nil
}
