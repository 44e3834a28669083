package token

import "fmt"

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT    TokenType = "IDENT"
	INT      TokenType = "INT"
	STRING   TokenType = "STRING"
	LIFETIME TokenType = "LIFETIME" // 'a

	PIPE       TokenType = "|"
	COMMA      TokenType = ","
	COLON      TokenType = ":"
	COLONCOLON TokenType = "::"
	SEMICOLON  TokenType = ";"
	DOLLAR     TokenType = "$"
	CARET      TokenType = "^"
	PLUS       TokenType = "+"
	AMPERSAND  TokenType = "&"
	QUESTION   TokenType = "?"
	ASSIGN     TokenType = "="
	ARROW      TokenType = "->"
	DOTDOT     TokenType = ".."
	DOT        TokenType = "."
	ASTERISK   TokenType = "*"
	HASH       TokenType = "#"
	BANG       TokenType = "!"
	UNDERSCORE TokenType = "_"

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	LT       TokenType = "<"
	GT       TokenType = ">"

	// Keywords
	WHERE TokenType = "WHERE"
	IMPL  TokenType = "IMPL"
	MUT   TokenType = "MUT"
	DYN   TokenType = "DYN"
	TRAIT TokenType = "TRAIT"
	TYPE  TokenType = "TYPE"
	FN    TokenType = "FN"
	PUB   TokenType = "PUB"
	SELF  TokenType = "SELF" // lowercase receiver
	CONST TokenType = "CONST"
)

var keywords = map[string]TokenType{
	"where": WHERE,
	"impl":  IMPL,
	"mut":   MUT,
	"dyn":   DYN,
	"trait": TRAIT,
	"type":  TYPE,
	"fn":    FN,
	"pub":   PUB,
	"self":  SELF,
	"const": CONST,
	"_":     UNDERSCORE,
}

// LookupIdent returns the keyword type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
