// errors.go: the shared failure vocabulary and caret-snippet rendering
//
// What this file does
// -------------------
// Every failure produced by the lexer, parser, compiler driver and VM is a
// *Error carrying an ErrorKind. Callers branch on the kind with IsKind and
// print the message as-is. Parse failures also carry a 1-based line/column,
// which `WrapErrorWithSource` turns into a readable snippet:
//
//	PARSE ERROR at 2:4: expected ')'
//
//	   1 | let x = 1;
//	   2 | f(1
//	     |    ^
//
// Runtime errors have no position (bytecode carries no spans) and are
// returned unchanged by the wrappers.
package yaiwr

import (
	"errors"
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// ErrorKind classifies an *Error.
type ErrorKind int

const (
	ErrParse ErrorKind = iota
	ErrIncomplete
	ErrUndefinedReference
	ErrUndeclaredVariable
	ErrUndefinedFunction
	ErrFunctionDuplicate
	ErrFunctionArgumentsMismatch
	ErrNumericOverflow
	ErrTypeMismatch
	ErrEmptyStack
	ErrProgramFileNotFound
	ErrEval
)

var kindNames = [...]string{
	ErrParse:                     "ParseError",
	ErrIncomplete:                "Incomplete",
	ErrUndefinedReference:        "UndefinedReference",
	ErrUndeclaredVariable:        "UndeclaredVariable",
	ErrUndefinedFunction:         "UndefinedFunction",
	ErrFunctionDuplicate:         "FunctionDuplicate",
	ErrFunctionArgumentsMismatch: "FunctionArgumentsMismatch",
	ErrNumericOverflow:           "NumericOverflow",
	ErrTypeMismatch:              "TypeMismatch",
	ErrEmptyStack:                "EmptyStack",
	ErrProgramFileNotFound:       "ProgramFileNotFound",
	ErrEval:                      "EvalError",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by the runtime.
//
// Name is the identifier involved (variable, function or file), Expected and
// Actual are the arity numbers for ErrFunctionArgumentsMismatch, Msg is free
// text for parse/eval/type failures. Line/Col are 1-based and only set for
// ErrParse and ErrIncomplete.
type Error struct {
	Kind     ErrorKind
	Name     string
	Expected int
	Actual   int
	Msg      string
	Line     int
	Col      int
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrParse, ErrIncomplete:
		if e.Line > 0 {
			return fmt.Sprintf("Parse error: %s at %d:%d!", e.Msg, e.Line, e.Col)
		}
		return fmt.Sprintf("Parse error: %s!", e.Msg)
	case ErrUndefinedReference:
		return fmt.Sprintf("Undefined reference '%s'!", e.Name)
	case ErrUndeclaredVariable:
		return fmt.Sprintf("Undefined variable '%s'!", e.Name)
	case ErrUndefinedFunction:
		return fmt.Sprintf("Cannot find function with id '%s'!", e.Name)
	case ErrFunctionDuplicate:
		return fmt.Sprintf("Function with the id: '%s' already defined", e.Name)
	case ErrFunctionArgumentsMismatch:
		return fmt.Sprintf("Unexpected number of function arguments. Function '%s' expected %d but got %d arguments",
			e.Name, e.Expected, e.Actual)
	case ErrNumericOverflow:
		return fmt.Sprintf("Numeric error: %s!", e.Msg)
	case ErrTypeMismatch:
		return fmt.Sprintf("Type mismatch: %s!", e.Msg)
	case ErrEmptyStack:
		return "Cannot pop from empty stack!"
	case ErrProgramFileNotFound:
		return fmt.Sprintf("Program file: '%s' cannot be found!", e.Name)
	default:
		return fmt.Sprintf("Evaluation error: %s!", e.Msg)
	}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsIncomplete reports whether err signals input that ended inside an
// unterminated construct (interactive parsing only).
func IsIncomplete(err error) bool { return IsKind(err, ErrIncomplete) }

// WrapErrorWithSource renders parse errors as a caret-annotated snippet of
// src. Any other error is returned unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source name (file path or
// "<repl>") in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	if (e.Kind != ErrParse && e.Kind != ErrIncomplete) || e.Line == 0 {
		return err
	}
	return &snippetError{cause: e, text: prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col, e.Msg)}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers & rendering
   =========================== */

// snippetError keeps the *Error reachable through errors.As while printing
// the rendered snippet.
type snippetError struct {
	cause *Error
	text  string
}

func (s *snippetError) Error() string { return s.text }
func (s *snippetError) Unwrap() error { return s.cause }

func newError(kind ErrorKind, name string) *Error { return &Error{Kind: kind, Name: name} }

func evalError(format string, args ...any) *Error {
	return &Error{Kind: ErrEval, Msg: fmt.Sprintf(format, args...)}
}

func typeMismatch(format string, args ...any) *Error {
	return &Error{Kind: ErrTypeMismatch, Msg: fmt.Sprintf(format, args...)}
}

// prettyErrorStringLabeled builds a snippet with a header and a caret. It
// shows at most one previous and one next line. Coordinates are 1-based and
// clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
