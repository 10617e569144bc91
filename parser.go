// parser.go: Pratt parser producing the S-expression AST (see ast.go).
//
// OVERVIEW
// --------
// Statements are parsed by keyword dispatch; expressions by precedence
// climbing over the binding-power table in lbp. A statement ends with ';',
// which may be omitted right before '}' or at end of input, so that bare
// expressions such as `2*3+2` are complete programs.
//
// Comments never reach the Pratt loop. They are kept aside, keyed by the
// index of the code token that follows them, and are placed back at statement
// boundaries: a comment on the line a statement ends on is attached to it,
// any other comment becomes a statement of its own. Comments found inside a
// statement are hoisted above it.
//
// Interactive mode (REPL) reports *Error{Kind: ErrIncomplete} instead of
// ErrParse when the input ends inside an unterminated construct, so the host
// can ask for another line.
package yaiwr

import "fmt"

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ParseSExpr parses a complete source string and returns its ("block", ...) AST.
func ParseSExpr(src string) (S, error) {
	return parse(src, false)
}

// ParseSExprInteractive parses in REPL-friendly mode.
// Unterminated constructs at EOF produce *Error{Kind: ErrIncomplete}.
func ParseSExprInteractive(src string) (S, error) {
	return parse(src, true)
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

func parse(src string, interactive bool) (S, error) {
	all, err := NewLexer(src).ScanWithComments()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: make([]Token, 0, len(all)), interactive: interactive}
	for _, t := range all {
		if t.Type == COMMENT {
			p.comments = append(p.comments, comment{text: t.Literal.(string), at: len(p.toks), line: t.Line})
			continue
		}
		p.toks = append(p.toks, t)
	}
	return p.program()
}

type parser struct {
	toks        []Token
	i           int
	interactive bool

	comments []comment
	ci       int // next unplaced comment
}

type comment struct {
	text string
	at   int // index of the next code token
	line int
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == EOF }
func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}
func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

// errHere reports msg at the current token. At EOF in interactive mode the
// error is ErrIncomplete.
func (p *parser) errHere(msg string) error {
	g := p.peek()
	kind := ErrParse
	if g.Type == EOF && p.interactive {
		kind = ErrIncomplete
	}
	return &Error{Kind: kind, Msg: msg, Line: g.Line, Col: g.Col + 1}
}

func (p *parser) need(t TokenType, msg string) (Token, error) {
	if p.match(t) {
		return p.prev(), nil
	}
	return Token{}, p.errHere(msg)
}

// endStatement consumes ';' or accepts its omission before '}' / EOF.
func (p *parser) endStatement() error {
	if p.match(SEMICOLON) {
		return nil
	}
	if g := p.peek().Type; g == RCURLY || g == EOF {
		return nil
	}
	return p.errHere(fmt.Sprintf("expected ';' but found %s", p.peek().Type))
}

// ───────────────────────── precedence / associativity ──────────────────────

func lbp(t TokenType) (int, bool) {
	switch t {
	case MULT:
		return 60, true
	case PLUS:
		return 50, true
	case LESS, GREATER:
		return 40, true
	case EQ, NEQ:
		return 30, true
	case AND:
		return 20, true
	case OR:
		return 15, true
	case ASSIGN:
		return 10, true
	}
	return 0, false
}

var binopText = map[TokenType]string{
	PLUS: OpAdd, MULT: OpMul, LESS: OpLess, GREATER: OpGreater,
	EQ: OpEqual, NEQ: OpNotEqual, AND: OpLogicalAnd, OR: OpLogicalOr,
}

// ───────────────────────── program / blocks ────────────────────────────

func (p *parser) program() (S, error) {
	var items []S
	for !p.atEnd() {
		if err := p.commentedStatement(&items); err != nil {
			return nil, err
		}
	}
	p.placeComments(p.i, &items)
	return Block(items...), nil
}

// block parses '{' stmt* '}'.
func (p *parser) block() (S, error) {
	if _, err := p.need(LCURLY, "expected '{'"); err != nil {
		return nil, err
	}
	var items []S
	for !p.atEnd() && p.peek().Type != RCURLY {
		if err := p.commentedStatement(&items); err != nil {
			return nil, err
		}
	}
	p.placeComments(p.i, &items)
	if _, err := p.need(RCURLY, "expected '}'"); err != nil {
		return nil, err
	}
	return Block(items...), nil
}

// placeComments emits every unplaced comment before token index upto as a
// statement of its own.
func (p *parser) placeComments(upto int, out *[]S) {
	for p.ci < len(p.comments) && p.comments[p.ci].at <= upto {
		*out = append(*out, Annot(p.comments[p.ci].text, L("noop")))
		p.ci++
	}
}

// commentedStatement parses one statement into out together with the
// comments around it.
func (p *parser) commentedStatement(out *[]S) error {
	p.placeComments(p.i, out)
	s, err := p.statement()
	if err != nil {
		return err
	}
	p.placeComments(p.i-1, out)
	if p.ci < len(p.comments) {
		if c := p.comments[p.ci]; c.at == p.i && c.line == p.prev().Line {
			s = Annot(c.text, s)
			p.ci++
		}
	}
	*out = append(*out, s)
	return nil
}

// ───────────────────────────── statements ──────────────────────────────────

func (p *parser) statement() (S, error) {
	switch p.peek().Type {
	case SEMICOLON:
		p.i++
		return L("noop"), nil
	case LET:
		p.i++
		return p.letStmt()
	case FUNCTION:
		p.i++
		return p.funStmt()
	case RETURN:
		p.i++
		return p.returnStmt()
	case IF:
		p.i++
		return p.ifStmt()
	case PRINTLN:
		p.i++
		return p.printlnStmt()
	}
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) letStmt() (S, error) {
	name, err := p.need(ID, "expected identifier after 'let'")
	if err != nil {
		return nil, err
	}
	n := L("let", name.Lexeme)
	if p.match(ASSIGN) {
		init, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		n = L("let", name.Lexeme, init)
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) funStmt() (S, error) {
	name, err := p.need(ID, "expected function name after 'fun'")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LROUND, "expected '(' after function name"); err != nil {
		return nil, err
	}
	var params []string
	if !p.match(RROUND) {
		for {
			prm, err := p.need(ID, "expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, prm.Lexeme)
			if p.match(COMMA) {
				continue
			}
			if _, err := p.need(RROUND, "expected ')' after parameters"); err != nil {
				return nil, err
			}
			break
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return L("fun", name.Lexeme, Params(params...), body), nil
}

func (p *parser) returnStmt() (S, error) {
	if p.match(SEMICOLON) {
		return L("return", L("noop")), nil
	}
	if g := p.peek().Type; g == RCURLY || (g == EOF && !p.interactive) {
		return L("return", L("noop")), nil
	}
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return L("return", e), nil
}

func (p *parser) ifStmt() (S, error) {
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	then, err := p.block()
	if err != nil {
		return nil, err
	}
	if !p.match(ELSE) {
		return L("if", cond, then), nil
	}
	if p.match(IF) {
		nested, err := p.ifStmt()
		if err != nil {
			return nil, err
		}
		return L("if", cond, then, Block(nested)), nil
	}
	alt, err := p.block()
	if err != nil {
		return nil, err
	}
	return L("if", cond, then, alt), nil
}

func (p *parser) printlnStmt() (S, error) {
	if _, err := p.need(LROUND, "expected '(' after 'println'"); err != nil {
		return nil, err
	}
	e, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(RROUND, "expected ')'"); err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return L("println", e), nil
}

// ───────────────────────────── expressions ─────────────────────────────────

func (p *parser) expr(minBP int) (S, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		bp, ok := lbp(t.Type)
		if !ok || bp <= minBP {
			return left, nil
		}
		p.i++
		if t.Type == ASSIGN {
			if tag(left) != "id" {
				return nil, &Error{Kind: ErrParse, Msg: "invalid assignment target", Line: t.Line, Col: t.Col + 1}
			}
			// right-associative: a = b = 1
			rhs, err := p.expr(bp - 1)
			if err != nil {
				return nil, err
			}
			left = L("assign", getName(left), rhs)
			continue
		}
		rhs, err := p.expr(bp)
		if err != nil {
			return nil, err
		}
		left = L("binop", binopText[t.Type], left, rhs)
	}
}

func (p *parser) prefix() (S, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.i++
		return L("int", t.Literal.(uint64)), nil
	case BOOLEAN:
		p.i++
		return L("bool", t.Literal.(bool)), nil
	case ID:
		p.i++
		if p.match(LROUND) {
			return p.callAfterOpen(t.Lexeme)
		}
		return L("id", t.Lexeme), nil
	case LROUND:
		p.i++
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RROUND, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.errHere(fmt.Sprintf("expected expression but found %s", t.Type))
}

func (p *parser) callAfterOpen(name string) (S, error) {
	n := L("call", name)
	if p.match(RROUND) {
		return n, nil
	}
	for {
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		n = append(n, arg)
		if p.match(COMMA) {
			continue
		}
		if _, err := p.need(RROUND, "expected ')' after arguments"); err != nil {
			return nil, err
		}
		return n, nil
	}
}
