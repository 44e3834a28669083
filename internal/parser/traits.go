package parser

import (
	"github.com/funvibe/sumshape/internal/token"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// ParseTrait parses a single trait declaration into a blueprint. Default
// method bodies, attributes, supertraits and where clauses are skipped.
func ParseTrait(src string) (*traits.Blueprint, error) {
	p := New(src)
	bp := p.parseTrait()
	p.expectEOF()
	if err := p.err(); err != nil {
		return nil, err
	}
	return bp, nil
}

// ParseTraits parses every trait declaration in src.
func ParseTraits(src string) ([]*traits.Blueprint, error) {
	p := New(src)
	var out []*traits.Blueprint
	for {
		p.skipAttributes()
		if p.curTokenIs(token.EOF) || p.failed() {
			break
		}
		out = append(out, p.parseTrait())
	}
	if err := p.err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) skipAttributes() {
	for p.curTokenIs(token.HASH) && !p.failed() {
		p.nextToken()
		if p.curTokenIs(token.BANG) {
			p.nextToken()
		}
		if !p.curTokenIs(token.LBRACKET) {
			p.errorf(p.curToken, "expected `[` after `#`, found %s", describe(p.curToken))
			return
		}
		p.skipBalanced(token.LBRACKET, token.RBRACKET)
	}
}

func (p *Parser) skipVisibility() {
	if !p.curTokenIs(token.PUB) {
		return
	}
	p.nextToken()
	if p.curTokenIs(token.LPAREN) {
		p.skipBalanced(token.LPAREN, token.RPAREN)
	}
}

// skipUntil advances to the first token of one of the given types.
func (p *Parser) skipUntil(types ...token.TokenType) {
	for !p.curTokenIs(token.EOF) {
		for _, t := range types {
			if p.curTokenIs(t) {
				return
			}
		}
		p.nextToken()
	}
}

func (p *Parser) parseTrait() *traits.Blueprint {
	p.skipAttributes()
	p.skipVisibility()
	for p.curTokenIs(token.IDENT) && (p.curToken.Lexeme == "unsafe" || p.curToken.Lexeme == "auto") {
		p.nextToken()
	}
	if !p.expect(token.TRAIT, "`trait`") {
		return nil
	}
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected trait name, found %s", describe(p.curToken))
		return nil
	}
	bp := &traits.Blueprint{Name: p.curToken.Lexeme}
	p.nextToken()

	if p.curTokenIs(token.LT) {
		bp.Params = p.parseTypeParams()
	}
	if p.curTokenIs(token.COLON) {
		p.nextToken()
		p.parseBounds()
	}
	if p.curTokenIs(token.WHERE) {
		p.skipUntil(token.LBRACE)
	}
	if !p.expect(token.LBRACE, "`{`") {
		return nil
	}

	for !p.curTokenIs(token.RBRACE) && !p.failed() {
		p.skipAttributes()
		switch p.curToken.Type {
		case token.TYPE:
			if name := p.parseAssocType(); name != "" {
				bp.AssocTypes = append(bp.AssocTypes, name)
			}
		case token.CONST:
			p.skipUntil(token.SEMICOLON)
			p.expect(token.SEMICOLON, "`;`")
		case token.FN:
			if m, ok := p.parseMethod(); ok {
				bp.Methods = append(bp.Methods, m)
			}
		case token.IDENT:
			switch p.curToken.Lexeme {
			case "unsafe", "async", "extern":
				p.nextToken()
			default:
				p.errorf(p.curToken, "unexpected %s in trait body", describe(p.curToken))
			}
		case token.RBRACE:
		default:
			p.errorf(p.curToken, "unexpected %s in trait body", describe(p.curToken))
		}
	}
	p.expect(token.RBRACE, "`}`")
	if p.failed() {
		return nil
	}
	return bp
}

func (p *Parser) parseTypeParams() []traits.TypeParam {
	p.nextToken() // <
	var params []traits.TypeParam
	for !p.curTokenIs(token.GT) && !p.failed() {
		switch {
		case p.curTokenIs(token.LIFETIME):
			p.nextToken()
			if p.curTokenIs(token.COLON) {
				p.skipUntil(token.COMMA, token.GT)
			}
		case p.curTokenIs(token.CONST):
			p.errorf(p.curToken, "const generics are not supported")
			return nil
		case p.curTokenIs(token.IDENT):
			tp := traits.TypeParam{Name: p.curToken.Lexeme}
			p.nextToken()
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				tp.Bounds = p.parseBounds()
			}
			if p.curTokenIs(token.ASSIGN) {
				p.nextToken()
				tp.Default = p.parseType()
			}
			params = append(params, tp)
		default:
			p.errorf(p.curToken, "expected type parameter, found %s", describe(p.curToken))
			return nil
		}
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.GT) {
			p.errorf(p.curToken, "expected `,` or `>`, found %s", describe(p.curToken))
			return nil
		}
	}
	p.nextToken() // >
	return params
}

func (p *Parser) parseAssocType() string {
	p.nextToken() // type
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected associated type name, found %s", describe(p.curToken))
		return ""
	}
	name := p.curToken.Lexeme
	p.nextToken()
	if p.curTokenIs(token.LT) {
		p.errorf(p.curToken, "generic associated type `%s` is not supported", name)
		return ""
	}
	if p.curTokenIs(token.COLON) {
		p.nextToken()
		p.parseBounds()
	}
	if p.curTokenIs(token.ASSIGN) {
		p.nextToken()
		p.parseType()
	}
	if !p.expect(token.SEMICOLON, "`;`") {
		return ""
	}
	return name
}

func (p *Parser) parseMethod() (traits.Method, bool) {
	p.nextToken() // fn
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected method name, found %s", describe(p.curToken))
		return traits.Method{}, false
	}
	m := traits.Method{Name: p.curToken.Lexeme}
	p.nextToken()

	if p.curTokenIs(token.LT) {
		m.Generics = p.parseTypeParams()
	}
	if !p.expect(token.LPAREN, "`(`") {
		return m, false
	}

	m.Receiver = p.parseReceiver()
	if m.Receiver != traits.NoReceiver && p.curTokenIs(token.COMMA) {
		p.nextToken()
	}

	for !p.curTokenIs(token.RPAREN) && !p.failed() {
		if p.curTokenIs(token.MUT) {
			p.nextToken()
		}
		if !p.curTokenIs(token.IDENT) && !p.curTokenIs(token.UNDERSCORE) {
			p.errorf(p.curToken, "expected parameter name, found %s", describe(p.curToken))
			return m, false
		}
		name := p.curToken.Lexeme
		p.nextToken()
		if !p.expect(token.COLON, "`:`") {
			return m, false
		}
		t := p.parseType()
		if t == nil {
			return m, false
		}
		m.Params = append(m.Params, traits.Param{Name: name, Type: t})
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.RPAREN) {
			p.errorf(p.curToken, "expected `,` or `)`, found %s", describe(p.curToken))
			return m, false
		}
	}
	if !p.expect(token.RPAREN, "`)`") {
		return m, false
	}

	if p.curTokenIs(token.ARROW) {
		p.nextToken()
		m.Return = p.parseType()
		if m.Return == nil {
			return m, false
		}
	}
	if p.curTokenIs(token.WHERE) {
		p.skipUntil(token.SEMICOLON, token.LBRACE)
	}

	switch {
	case p.curTokenIs(token.SEMICOLON):
		p.nextToken()
	case p.curTokenIs(token.LBRACE):
		p.skipBalanced(token.LBRACE, token.RBRACE)
	default:
		p.errorf(p.curToken, "expected `;` or method body, found %s", describe(p.curToken))
		return m, false
	}
	return m, !p.failed()
}

func (p *Parser) parseReceiver() traits.Receiver {
	switch {
	case p.curTokenIs(token.AMPERSAND) && (p.peekTokenIs(token.SELF) || p.peekTokenIs(token.MUT) || p.peekTokenIs(token.LIFETIME)):
		p.nextToken()
		if p.curTokenIs(token.LIFETIME) {
			p.nextToken()
		}
		recv := traits.ByRef
		if p.curTokenIs(token.MUT) {
			recv = traits.ByMutRef
			p.nextToken()
		}
		if !p.expect(token.SELF, "`self`") {
			return traits.NoReceiver
		}
		return recv
	case p.curTokenIs(token.MUT) && p.peekTokenIs(token.SELF):
		p.nextToken()
		p.nextToken()
		return traits.ByValue
	case p.curTokenIs(token.SELF):
		p.nextToken()
		if !p.curTokenIs(token.COLON) {
			return traits.ByValue
		}
		// self: &Self, self: &mut Self, self: Box<Self> ...
		p.nextToken()
		t := p.parseType()
		if ref, ok := t.(typesystem.TRef); ok {
			if ref.Mutable {
				return traits.ByMutRef
			}
			return traits.ByRef
		}
		return traits.ByValue
	default:
		return traits.NoReceiver
	}
}
