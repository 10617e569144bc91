// lexer_test.go
package yaiwr

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src)
	ts, err := l.Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func wantLexError(t *testing.T, src, substr string) {
	t.Helper()
	_, err := NewLexer(src).Scan()
	if err == nil {
		t.Fatalf("expected lex error for %q", src)
	}
	if !IsKind(err, ErrParse) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("error %q does not contain %q", err.Error(), substr)
	}
}

func Test_Lexer_Punctuation_And_Operators(t *testing.T) {
	wantTypes(t, "( ) { } , ; + * = == != < > && ||", []TokenType{
		LROUND, RROUND, LCURLY, RCURLY, COMMA, SEMICOLON,
		PLUS, MULT, ASSIGN, EQ, NEQ, LESS, GREATER, AND, OR,
	})
}

func Test_Lexer_Keywords_And_Identifiers(t *testing.T) {
	ts := wantTypes(t, "let fun return if else println true false lettuce _x1", []TokenType{
		LET, FUNCTION, RETURN, IF, ELSE, PRINTLN, BOOLEAN, BOOLEAN, ID, ID,
	})
	if ts[6].Literal != true || ts[7].Literal != false {
		t.Fatalf("boolean literals: got %v, %v", ts[6].Literal, ts[7].Literal)
	}
	if ts[8].Lexeme != "lettuce" {
		t.Fatalf("keyword prefix must stay an identifier, got %q", ts[8].Lexeme)
	}
}

func Test_Lexer_Integers(t *testing.T) {
	ts := wantTypes(t, "0 42 18446744073709551615", []TokenType{INTEGER, INTEGER, INTEGER})
	if ts[1].Literal.(uint64) != 42 {
		t.Fatalf("want 42, got %v", ts[1].Literal)
	}
	if ts[2].Literal.(uint64) != 18446744073709551615 {
		t.Fatalf("want max uint64, got %v", ts[2].Literal)
	}
}

func Test_Lexer_Integer_Too_Large(t *testing.T) {
	wantLexError(t, "18446744073709551616", "does not fit in 64 bits")
}

func Test_Lexer_Comments_Skipped(t *testing.T) {
	wantTypes(t, "let x = 1; // the answer\n// whole line\nx", []TokenType{
		LET, ID, ASSIGN, INTEGER, SEMICOLON, ID,
	})
}

func Test_Lexer_Comment_Tokens(t *testing.T) {
	ts, err := NewLexer("let x = 1; //  the answer \n//\nx").ScanWithComments()
	if err != nil {
		t.Fatal(err)
	}
	want := []TokenType{LET, ID, ASSIGN, INTEGER, SEMICOLON, COMMENT, COMMENT, ID}
	if got := typesWithoutEOF(ts); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
	if ts[5].Literal != "the answer" || ts[5].Line != 1 {
		t.Fatalf("trailing comment: %+v", ts[5])
	}
	if ts[6].Literal != "" || ts[6].Line != 2 {
		t.Fatalf("empty comment: %+v", ts[6])
	}
}

func Test_Lexer_Single_Slash_Is_Error(t *testing.T) {
	wantLexError(t, "4 / 2", "unexpected character")
}

func Test_Lexer_Positions(t *testing.T) {
	ts := toks(t, "let x;\n  x = 2;")
	// tokens: let x ; x = 2 ; EOF
	if ts[0].Line != 1 || ts[0].Col != 0 {
		t.Fatalf("let at %d:%d", ts[0].Line, ts[0].Col)
	}
	if ts[3].Line != 2 || ts[3].Col != 2 {
		t.Fatalf("second x at %d:%d", ts[3].Line, ts[3].Col)
	}
	if last := ts[len(ts)-1]; last.Type != EOF {
		t.Fatalf("missing EOF, got %v", last.Type)
	}
}

func Test_Lexer_Unexpected_Character(t *testing.T) {
	wantLexError(t, "let x = 1 - 2;", "unexpected character")
	wantLexError(t, "a ! b", "unexpected character")
	wantLexError(t, "a & b", "unexpected character")
}

func Test_Lexer_Error_Position(t *testing.T) {
	_, err := NewLexer("1;\n  @").Scan()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("want *Error, got %T", err)
	}
	if e.Line != 2 || e.Col != 3 {
		t.Fatalf("want 2:3, got %d:%d", e.Line, e.Col)
	}
}
