// Package parser reads the textual forms used in configuration and source
// attributes: shape patterns, type expressions, trait bounds and trait
// declarations.
package parser

import (
	"fmt"
	"regexp"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/lexer"
	"github.com/funvibe/sumshape/internal/token"
)

var genericName = regexp.MustCompile(`^[A-Z][A-Z0-9]*$`)

// IsGenericName reports whether ident names a generic symbol rather than a
// concrete type. Generic symbols are upper-case letters and digits: T, U1, ID.
func IsGenericName(ident string) bool {
	return genericName.MatchString(ident)
}

// Parser is a recursive-descent parser over a lexer token stream. It stops
// at the first error; all errors are S010.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []*diagnostics.DiagnosticError
}

func New(input string) *Parser {
	p := &Parser{l: lexer.New(input)}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the parse errors collected so far.
func (p *Parser) Errors() []*diagnostics.DiagnosticError {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t token.TokenType, what string) bool {
	if !p.curTokenIs(t) {
		p.errorf(p.curToken, "expected %s, found %s", what, describe(p.curToken))
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	if p.failed() {
		return
	}
	p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrS010, tok, fmt.Sprintf(format, args...)))
}

// err returns the first error as an error value, or nil.
func (p *Parser) err() error {
	if !p.failed() {
		return nil
	}
	return p.errors[0]
}

func (p *Parser) expectEOF() {
	if !p.failed() && !p.curTokenIs(token.EOF) {
		p.errorf(p.curToken, "unexpected %s", describe(p.curToken))
	}
}

// skipBalanced skips from the current open token to just past its matching
// close token.
func (p *Parser) skipBalanced(open, close token.TokenType) {
	depth := 0
	for {
		switch p.curToken.Type {
		case open:
			depth++
		case close:
			depth--
		case token.EOF:
			p.errorf(p.curToken, "unbalanced `%s`", open)
			return
		}
		p.nextToken()
		if depth == 0 {
			return
		}
	}
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return "`" + tok.Lexeme + "`"
}
