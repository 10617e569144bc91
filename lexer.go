// lexer.go
package yaiwr

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LROUND    // "("
	RROUND    // ")"
	LCURLY    // "{"
	RCURLY    // "}"
	COMMA     // ","
	SEMICOLON // ";"

	// Operators
	PLUS
	MULT
	ASSIGN // "="
	EQ     // "=="
	NEQ    // "!="
	LESS
	GREATER
	AND // "&&"
	OR  // "||"

	// Literals & identifiers
	ID
	INTEGER
	BOOLEAN

	// Keywords
	LET
	FUNCTION
	RETURN
	IF
	ELSE
	PRINTLN

	COMMENT // "// text", Literal is the trimmed text
)

var tokenNames = map[TokenType]string{
	EOF: "end of input", ILLEGAL: "illegal token",
	LROUND: "'('", RROUND: "')'", LCURLY: "'{'", RCURLY: "'}'", COMMA: "','", SEMICOLON: "';'",
	PLUS: "'+'", MULT: "'*'", ASSIGN: "'='", EQ: "'=='", NEQ: "'!='", LESS: "'<'", GREATER: "'>'",
	AND: "'&&'", OR: "'||'",
	ID: "identifier", INTEGER: "integer", BOOLEAN: "boolean",
	LET: "'let'", FUNCTION: "'fun'", RETURN: "'return'", IF: "'if'", ELSE: "'else'", PRINTLN: "'println'",
	COMMENT: "comment",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string // raw text slice
	Literal any    // uint64 for INTEGER, bool for BOOLEAN, string for ID
	Line    int    // 1-based
	Col     int    // 0-based
}

var keywords = map[string]TokenType{
	"let":     LET,
	"fun":     FUNCTION,
	"return":  RETURN,
	"if":      IF,
	"else":    ELSE,
	"println": PRINTLN,
	"true":    BOOLEAN,
	"false":   BOOLEAN,
}

// Lexer scans a source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 0-based column within line
	tokens []Token

	// precise token start position
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
// Comments are dropped.
func (l *Lexer) Scan() ([]Token, error) {
	all, err := l.ScanWithComments()
	if err != nil {
		return nil, err
	}
	out := make([]Token, 0, len(all))
	for _, t := range all {
		if t.Type != COMMENT {
			out = append(out, t)
		}
	}
	return out, nil
}

// ScanWithComments is Scan, but keeps // comments as COMMENT tokens.
func (l *Lexer) ScanWithComments() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) addToken(tt TokenType, lit any) Token {
	tok := Token{
		Type:    tt,
		Lexeme:  l.src[l.start:l.cur],
		Literal: lit,
		Line:    l.tokStartLine,
		Col:     l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

// skipTrivia eats whitespace.
func (l *Lexer) skipTrivia() {
	for !l.isAtEnd() {
		switch ch, _ := l.peek(); ch {
		case ' ', '\r', '\n', '\t':
			l.advance()
		default:
			return
		}
	}
}

// comment scans a // comment up to (not including) the newline.
func (l *Lexer) comment() Token {
	for !l.isAtEnd() {
		if b, _ := l.peek(); b == '\n' {
			break
		}
		l.advance()
	}
	text := strings.TrimSpace(strings.TrimPrefix(l.src[l.start:l.cur], "//"))
	return l.addToken(COMMENT, text)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func (l *Lexer) errAt(line, col int, msg string) error {
	return &Error{Kind: ErrParse, Msg: msg, Line: line, Col: col + 1}
}

func (l *Lexer) scanToken() (Token, error) {
	l.skipTrivia()
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.addToken(EOF, nil), nil
	}

	if b, ok := l.peekN(1); ok && b == '/' && l.src[l.cur] == '/' {
		return l.comment(), nil
	}

	ch := l.advance()
	switch ch {
	case '(':
		return l.addToken(LROUND, nil), nil
	case ')':
		return l.addToken(RROUND, nil), nil
	case '{':
		return l.addToken(LCURLY, nil), nil
	case '}':
		return l.addToken(RCURLY, nil), nil
	case ',':
		return l.addToken(COMMA, nil), nil
	case ';':
		return l.addToken(SEMICOLON, nil), nil
	case '+':
		return l.addToken(PLUS, nil), nil
	case '*':
		return l.addToken(MULT, nil), nil
	case '<':
		return l.addToken(LESS, nil), nil
	case '>':
		return l.addToken(GREATER, nil), nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(EQ, nil), nil
		}
		return l.addToken(ASSIGN, nil), nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(NEQ, nil), nil
		}
	case '&':
		if b, ok := l.peek(); ok && b == '&' {
			l.advance()
			return l.addToken(AND, nil), nil
		}
	case '|':
		if b, ok := l.peek(); ok && b == '|' {
			l.advance()
			return l.addToken(OR, nil), nil
		}
	}

	if isDigit(ch) {
		for {
			b, ok := l.peek()
			if !ok || !isDigit(b) {
				break
			}
			l.advance()
		}
		lex := l.src[l.start:l.cur]
		v, err := strconv.ParseUint(lex, 10, 64)
		if err != nil {
			return Token{}, l.errAt(l.tokStartLine, l.tokStartCol, fmt.Sprintf("integer literal %s does not fit in 64 bits", lex))
		}
		return l.addToken(INTEGER, v), nil
	}

	if isAlpha(ch) {
		for {
			b, ok := l.peek()
			if !ok || !isAlphaNum(b) {
				break
			}
			l.advance()
		}
		lex := l.src[l.start:l.cur]
		if tt, ok := keywords[lex]; ok {
			if tt == BOOLEAN {
				return l.addToken(BOOLEAN, lex == "true"), nil
			}
			return l.addToken(tt, lex), nil
		}
		return l.addToken(ID, lex), nil
	}

	return Token{}, l.errAt(l.tokStartLine, l.tokStartCol, fmt.Sprintf("unexpected character %q", l.src[l.start:l.cur]))
}
