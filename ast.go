// ast.go: the syntax tree shared by the parser, the compiler and the printer.
//
// The AST is a tree of S-expressions: []any whose first element is a string
// tag. The parser builds it, the compiler lowers it to bytecode and the
// printer turns it back into canonical source.
//
//	("block", n1, n2, ...)          // program or { ... } body
//	("noop")                        // empty statement
//
// Literals & identifiers:
//
//	("int",  uint64)
//	("bool", bool)
//	("id",   string)
//
// Expressions:
//
//	("binop",  op, lhs, rhs)        // op ∈ "+", "*", "<", ">", "==", "!=", "&&", "||"
//	("assign", name, value)
//	("call",   name, arg1, arg2, ...)
//
// Statements:
//
//	("let",     name)               // uninitialised declaration
//	("let",     name, init)
//	("println", expr)
//	("fun",     name, ("params", ("id", p1), ...), ("block", ...))
//	("return",  expr)               // expr is ("noop") for a bare `return;`
//	("if",      cond, thenBlock)
//	("if",      cond, thenBlock, elseBlock)
//
// Comments:
//
//	("annot", ("str", text), ("noop"))   // comment on a line of its own
//	("annot", ("str", text), stmt)       // comment trailing stmt on its last line
package yaiwr

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// S is a single AST node.
type S = []any

// L builds a node from a tag and its parts.
func L(tag string, parts ...any) S { return append([]any{tag}, parts...) }

// Binary operator spellings used in ("binop", op, ...) nodes.
const (
	OpAdd        = "+"
	OpMul        = "*"
	OpLess       = "<"
	OpGreater    = ">"
	OpEqual      = "=="
	OpNotEqual   = "!="
	OpLogicalAnd = "&&"
	OpLogicalOr  = "||"
)

// Block wraps statements into a ("block", ...) node.
func Block(stmts ...S) S {
	parts := make([]any, 0, len(stmts))
	for _, s := range stmts {
		parts = append(parts, s)
	}
	return L("block", parts...)
}

// Annot attaches comment text to n.
func Annot(text string, n S) S { return L("annot", L("str", text), n) }

// Params wraps parameter names into a ("params", ("id", p)...) node.
func Params(names ...string) S {
	parts := make([]any, 0, len(names))
	for _, n := range names {
		parts = append(parts, L("id", n))
	}
	return L("params", parts...)
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                 PRIVATE
////////////////////////////////////////////////////////////////////////////////

func tag(n S) string     { return n[0].(string) }
func children(n S) []any { return n[1:] }
func child(n S, i int) S { return n[i+1].(S) }
func getName(n S) string { return n[1].(string) }

// blockItems returns the statements of a ("block", ...) node.
func blockItems(n S) []S {
	out := make([]S, 0, len(n)-1)
	for _, c := range children(n) {
		out = append(out, c.(S))
	}
	return out
}

// paramNames flattens a ("params", ("id", p)...) node.
func paramNames(n S) []string {
	out := make([]string, 0, len(n)-1)
	for _, c := range children(n) {
		out = append(out, getName(c.(S)))
	}
	return out
}
