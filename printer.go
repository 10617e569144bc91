package yaiwr

import (
	"fmt"
	"strings"
)

/* ---------- globals & tiny helpers ---------- */

var EnableColor = false // REPL-only; tests can leave this false

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
)

func colorize(s, c string) string {
	if !EnableColor {
		return s
	}
	return c + s + colorReset
}
func blue(s string) string  { return colorize(s, colorBlue) }
func green(s string) string { return colorize(s, colorGreen) }
func red(s string) string   { return colorize(s, colorRed) }

// FormatError renders an error message for REPL display, red when
// EnableColor is set.
func FormatError(msg string) string { return red(msg) }

/* ---------- small writer with indentation ---------- */

type out struct {
	b     *strings.Builder
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString("  ")
	}
}
func (o *out) line(s string)        { o.pad(); o.b.WriteString(s); o.nl() }
func (o *out) withIndent(fn func()) { o.depth++; fn(); o.depth-- }

/* ---------- source -> pretty (AST printer) ---------- */

// Pretty parses yaiwr source and returns it in canonical layout (no colors).
func Pretty(src string) (string, error) {
	ast, err := ParseSExpr(src)
	if err != nil {
		return "", WrapErrorWithSource(err, src)
	}
	return FormatSExpr(ast), nil
}

// FormatSExpr prints a parsed AST as canonical source. Parsing the result
// yields the same tree.
func FormatSExpr(n S) string {
	var b strings.Builder
	p := pp{out: out{b: &b}}
	p.printBlock(n)
	return strings.TrimRight(b.String(), "\n")
}

type pp struct {
	out out
}

func (p *pp) write(s string) { p.out.write(s) }
func (p *pp) nl()            { p.out.nl() }
func (p *pp) pad()           { p.out.pad() }

// printBlock prints each statement on its own line(s).
func (p *pp) printBlock(n S) {
	if tag(n) != "block" {
		p.printStmt(n)
		return
	}
	for _, s := range blockItems(n) {
		p.printStmt(s)
	}
}

// printBraced prints ` {`, the indented body and a closing brace, without
// the trailing newline.
func (p *pp) printBraced(body S) {
	if len(body) == 1 {
		p.write(" {}")
		return
	}
	p.write(" {")
	p.nl()
	p.out.withIndent(func() { p.printBlock(body) })
	p.pad()
	p.write("}")
}

func (p *pp) printStmt(n S) {
	switch tag(n) {
	case "block":
		p.printBlock(n)
	case "annot":
		if tag(child(n, 1)) == "noop" {
			p.out.line(commentText(n))
			return
		}
		fallthrough
	default:
		p.pad()
		p.printInline(n)
		p.nl()
	}
}

// printInline writes one statement without indentation or the final newline.
func (p *pp) printInline(n S) {
	switch tag(n) {
	case "noop":
		p.write(";")

	case "annot":
		if inner := child(n, 1); tag(inner) != "noop" {
			p.printInline(inner)
			p.write(" ")
		}
		p.write(commentText(n))

	case "let":
		p.write("let " + getName(n))
		if len(n) > 2 {
			p.write(" = ")
			p.printExpr(child(n, 1), 0)
		}
		p.write(";")

	case "println":
		p.write("println(")
		p.printExpr(child(n, 0), 0)
		p.write(");")

	case "return":
		if e := child(n, 0); tag(e) != "noop" {
			p.write("return ")
			p.printExpr(e, 0)
		} else {
			p.write("return")
		}
		p.write(";")

	case "fun":
		p.write("fun " + getName(n) + "(" + strings.Join(paramNames(child(n, 1)), ", ") + ")")
		p.printBraced(child(n, 2))

	case "if":
		p.printIf(n)

	default:
		p.printExpr(n, 0)
		p.write(";")
	}
}

func commentText(n S) string {
	text := child(n, 0)[1].(string)
	if text == "" {
		return "//"
	}
	return "// " + text
}

// printIf prints an if chain; an else block holding a single if is written
// as `else if`.
func (p *pp) printIf(n S) {
	p.write("if (")
	p.printExpr(child(n, 0), 0)
	p.write(")")
	p.printBraced(child(n, 1))
	if len(n) < 4 {
		return
	}
	alt := child(n, 2)
	if len(alt) == 2 && tag(child(alt, 0)) == "if" {
		p.write(" else ")
		p.printIf(child(alt, 0))
		return
	}
	p.write(" else")
	p.printBraced(alt)
}

// printExpr writes n, parenthesising it when its precedence is below minPrec.
func (p *pp) printExpr(n S, minPrec int) {
	open := prec(n) < minPrec
	if open {
		p.write("(")
	}
	switch tag(n) {
	case "int":
		p.write(fmt.Sprint(n[1]))
	case "bool":
		p.write(fmt.Sprint(n[1]))
	case "id":
		p.write(getName(n))
	case "assign":
		p.write(getName(n) + " = ")
		p.printExpr(child(n, 1), prec(n))
	case "binop":
		bp := prec(n)
		p.printExpr(child(n, 1), bp)
		p.write(" " + n[1].(string) + " ")
		p.printExpr(child(n, 2), bp+1)
	case "call":
		p.write(getName(n) + "(")
		for i := 2; i < len(n); i++ {
			if i > 2 {
				p.write(", ")
			}
			p.printExpr(n[i].(S), 0)
		}
		p.write(")")
	default:
		p.write("<" + tag(n) + ">")
	}
	if open {
		p.write(")")
	}
}

// prec mirrors the parser's binding powers.
func prec(n S) int {
	switch tag(n) {
	case "assign":
		return 10
	case "binop":
		return binopPrec(n[1].(string))
	default:
		return 100
	}
}

func binopPrec(op string) int {
	switch op {
	case OpMul:
		return 60
	case OpAdd:
		return 50
	case OpLess, OpGreater:
		return 40
	case OpEqual, OpNotEqual:
		return 30
	case OpLogicalAnd:
		return 20
	case OpLogicalOr:
		return 15
	default:
		return 50
	}
}

/* ---------- values ---------- */

// FormatValue renders v for REPL display, colored when EnableColor is set.
func FormatValue(v Value) string {
	if v.Data == nil {
		return v.String()
	}
	switch v.Tag {
	case VTInt:
		return blue(v.String())
	case VTBool:
		return green(v.String())
	default:
		return v.String()
	}
}

/* ---------- bytecode listing ---------- */

// Disassemble parses and compiles src and returns its bytecode listing.
func Disassemble(src string) (string, error) {
	ast, err := ParseSExpr(src)
	if err != nil {
		return "", WrapErrorWithSource(err, src)
	}
	return FormatCode(CompileProgram(ast)), nil
}

// FormatCode lists an instruction sequence, one instruction per line, with
// nested sequences indented under their owner.
func FormatCode(code []Instruction) string {
	var b strings.Builder
	o := &out{b: &b}
	writeCode(o, code)
	return strings.TrimRight(b.String(), "\n")
}

func writeCode(o *out, code []Instruction) {
	for i := range code {
		writeInstr(o, &code[i])
	}
}

func writeInstr(o *out, in *Instruction) {
	switch in.Op {
	case OpPush:
		o.line("PUSH " + in.Value.String())
	case OpBinary:
		s := "BINOP " + in.Binary.Kind.String()
		if in.Binary.Name != "" {
			s += " " + in.Binary.Name
		}
		if in.Binary.Uninit {
			s += " (uninit)"
		}
		o.line(s)
	case OpLoad:
		o.line("LOAD " + in.Name)
	case OpPrintLn:
		o.line("PRINTLN")
	case OpReturn:
		o.line("RETURN")
		o.withIndent(func() { writeCode(o, in.Body) })
	case OpFunctionDeclaration:
		o.line(fmt.Sprintf("FUNDECL %s(%s)", in.Name, strings.Join(in.Params, ", ")))
		o.withIndent(func() { writeCode(o, in.Body) })
	case OpFunctionCall:
		o.line(fmt.Sprintf("CALL %s/%d", in.Name, len(in.Args)))
		o.withIndent(func() {
			for i, a := range in.Args {
				o.line(fmt.Sprintf("arg %d:", i))
				o.withIndent(func() { writeCode(o, a) })
			}
		})
	case OpConditional:
		o.line("COND")
		o.withIndent(func() {
			o.line("if:")
			o.withIndent(func() { writeCode(o, in.Cond) })
			o.line("then:")
			o.withIndent(func() { writeCode(o, in.Body) })
			if in.HasElse {
				o.line("else:")
				o.withIndent(func() { writeCode(o, in.Else) })
			}
		})
	default:
		o.line(in.Op.String())
	}
}
