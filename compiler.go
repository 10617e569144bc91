// compiler.go: lowers the S-expression AST (ast.go) to bytecode (instruction.go).
//
// The compiler is pure and total over well-formed trees: it never returns an
// error. A malformed node is a parser bug, and is reported with a panic that
// names the offending tag.
//
// Lowering rules:
//   - ("int", v) / ("bool", b)      → PUSH v
//   - ("id", n)                     → LOAD n
//   - ("binop", op, l, r)           → l, r, BINOP op   (r is popped first at run time)
//   - ("let", n, e)                 → e, BINOP Declare(n)
//   - ("let", n)                    → BINOP Declare(n) [uninitialised]
//   - ("assign", n, e)              → e, BINOP Assign(n)
//   - ("println", e)                → e, PRINTLN
//   - ("fun", n, params, body)      → FUNDECL n params CompileBlock(body)
//   - ("call", n, a1, ...)          → CALL n [Compile(a1), ...]
//   - ("return", e)                 → RETURN Compile(e)
//   - ("if", c, then, else?)        → COND Compile(c) CompileBlock(then) CompileBlock(else)?
//   - ("noop")                      → nothing
//   - ("annot", text, n)            → Compile(n)
package yaiwr

import "fmt"

var binaryKinds = map[string]BinaryKind{
	OpAdd:        BinAdd,
	OpMul:        BinMul,
	OpLess:       BinLessThan,
	OpGreater:    BinGreaterThan,
	OpEqual:      BinEqual,
	OpNotEqual:   BinNotEqual,
	OpLogicalAnd: BinLogicalAnd,
	OpLogicalOr:  BinLogicalOr,
}

// Compile lowers a single node.
func Compile(n S) []Instruction {
	prog := make([]Instruction, 0, 4)
	emit(n, &prog)
	return prog
}

// CompileBlock lowers a statement list, preserving order.
func CompileBlock(nodes []S) []Instruction {
	prog := make([]Instruction, 0, len(nodes))
	for _, n := range nodes {
		emit(n, &prog)
	}
	return prog
}

// CompileProgram lowers a ("block", ...) root as produced by ParseSExpr.
func CompileProgram(root S) []Instruction {
	if tag(root) != "block" {
		return Compile(root)
	}
	return CompileBlock(blockItems(root))
}

func emit(n S, prog *[]Instruction) {
	switch tag(n) {
	case "noop":
	case "annot":
		emit(child(n, 1), prog)
	case "int":
		*prog = append(*prog, Push(Int(n[1].(uint64))))
	case "bool":
		*prog = append(*prog, Push(Bool(n[1].(bool))))
	case "id":
		*prog = append(*prog, Load(getName(n)))
	case "binop":
		kind, ok := binaryKinds[n[1].(string)]
		if !ok {
			panic(fmt.Sprintf("compile: unknown operator %q", n[1]))
		}
		emit(child(n, 1), prog)
		emit(child(n, 2), prog)
		*prog = append(*prog, Binary(kind))
	case "let":
		if len(n) > 2 {
			emit(child(n, 1), prog)
			*prog = append(*prog, Declare(getName(n)))
			return
		}
		*prog = append(*prog, DeclareUninit(getName(n)))
	case "assign":
		emit(child(n, 1), prog)
		*prog = append(*prog, Assign(getName(n)))
	case "println":
		emit(child(n, 0), prog)
		*prog = append(*prog, PrintLn())
	case "fun":
		*prog = append(*prog, FunctionDeclaration(getName(n), paramNames(child(n, 1)), CompileBlock(blockItems(child(n, 2)))))
	case "call":
		args := make([][]Instruction, 0, len(n)-2)
		for i := 2; i < len(n); i++ {
			args = append(args, Compile(n[i].(S)))
		}
		*prog = append(*prog, FunctionCall(getName(n), args))
	case "return":
		*prog = append(*prog, Return(Compile(child(n, 0))))
	case "if":
		var alt []Instruction
		if len(n) > 3 {
			alt = CompileBlock(blockItems(child(n, 2)))
		}
		*prog = append(*prog, Conditional(Compile(child(n, 0)), CompileBlock(blockItems(child(n, 1))), alt))
	case "block":
		// a nested block has no scope of its own
		for _, s := range blockItems(n) {
			emit(s, prog)
		}
	default:
		panic(fmt.Sprintf("compile: unknown node %q", tag(n)))
	}
}
