package lexer

import (
	"testing"

	"github.com/funvibe/sumshape/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `(T, ..) | { name: &'a mut str, _ } where T: ^AsRef<str> + std::ops::Add<Output = i32>`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.LPAREN, "("},
		{token.IDENT, "T"},
		{token.COMMA, ","},
		{token.DOTDOT, ".."},
		{token.RPAREN, ")"},
		{token.PIPE, "|"},
		{token.LBRACE, "{"},
		{token.IDENT, "name"},
		{token.COLON, ":"},
		{token.AMPERSAND, "&"},
		{token.LIFETIME, "'a"},
		{token.MUT, "mut"},
		{token.IDENT, "str"},
		{token.COMMA, ","},
		{token.UNDERSCORE, "_"},
		{token.RBRACE, "}"},
		{token.WHERE, "where"},
		{token.IDENT, "T"},
		{token.COLON, ":"},
		{token.CARET, "^"},
		{token.IDENT, "AsRef"},
		{token.LT, "<"},
		{token.IDENT, "str"},
		{token.GT, ">"},
		{token.PLUS, "+"},
		{token.IDENT, "std"},
		{token.COLONCOLON, "::"},
		{token.IDENT, "ops"},
		{token.COLONCOLON, "::"},
		{token.IDENT, "Add"},
		{token.LT, "<"},
		{token.IDENT, "Output"},
		{token.ASSIGN, "="},
		{token.IDENT, "i32"},
		{token.GT, ">"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestTraitSourceTokens(t *testing.T) {
	input := "pub trait Shr<Rhs = Self> {\n    // shift\n    type Output;\n    fn shr(self, rhs: Rhs) -> Self::Output;\n}"
	toks := New(input).Tokens()

	want := []token.TokenType{
		token.PUB, token.TRAIT, token.IDENT, token.LT, token.IDENT, token.ASSIGN, token.IDENT, token.GT, token.LBRACE,
		token.TYPE, token.IDENT, token.SEMICOLON,
		token.FN, token.IDENT, token.LPAREN, token.SELF, token.COMMA, token.IDENT, token.COLON, token.IDENT, token.RPAREN,
		token.ARROW, token.IDENT, token.COLONCOLON, token.IDENT, token.SEMICOLON,
		token.RBRACE, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("toks[%d] = %s; want %s", i, toks[i].Type, tt)
		}
	}
	// type Output is on line 3 after the comment line
	if toks[9].Line != 3 {
		t.Errorf("type keyword line = %d; want 3", toks[9].Line)
	}
}

func TestNumbersAndStrings(t *testing.T) {
	toks := New(`..1_000 "doc \"x\""`).Tokens()
	if toks[1].Type != token.INT || toks[1].Literal.(int64) != 1000 {
		t.Errorf("number token = %v; want INT 1000", toks[1])
	}
	if toks[2].Type != token.STRING || toks[2].Literal.(string) != `doc \"x\"` {
		t.Errorf("string token = %v", toks[2])
	}
}
