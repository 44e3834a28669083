package parser

import (
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/token"
)

// ParsePattern parses a shape pattern such as
//
//	(T, ..) | { name: String } | () where T: Copy + ^AsRef<str>
//
// The returned set is structurally parsed only; run shape.Validate for the
// where-clause checks.
func ParsePattern(src string) (*shape.PatternSet, *diagnostics.Set) {
	p := New(src)
	set := p.parsePatternSet()
	diags := diagnostics.NewSet(p.errors...)
	if p.failed() {
		return nil, diags
	}
	return set, diags
}

func (p *Parser) parsePatternSet() *shape.PatternSet {
	set := &shape.PatternSet{}
	for {
		frags := p.parseFragment()
		if p.failed() {
			return nil
		}
		set.Fragments = append(set.Fragments, frags...)
		if !p.curTokenIs(token.PIPE) {
			break
		}
		p.nextToken()
	}

	if p.curTokenIs(token.WHERE) {
		p.nextToken()
		set.Predicates = p.parsePredicates()
	}
	p.expectEOF()
	if p.failed() {
		return nil
	}
	return set
}

func (p *Parser) parseFragment() []shape.Fragment {
	if p.curTokenIs(token.DOLLAR) {
		p.nextToken()
	}

	switch p.curToken.Type {
	case token.UNDERSCORE:
		p.nextToken()
		return []shape.Fragment{
			shape.UnitFragment(),
			shape.TupleFragment(shape.Variadic()),
			shape.StructFragment(shape.Variadic()),
		}
	case token.IDENT:
		name := p.curToken.Lexeme
		p.nextToken()
		frag := shape.UnitFragment()
		if p.curTokenIs(token.LPAREN) || p.curTokenIs(token.LBRACE) {
			frag = p.parseFragmentBody()
		}
		frag.Name = name
		return []shape.Fragment{frag}
	case token.LPAREN, token.LBRACE:
		return []shape.Fragment{p.parseFragmentBody()}
	default:
		p.errorf(p.curToken, "expected fragment, found %s", describe(p.curToken))
		return nil
	}
}

func (p *Parser) parseFragmentBody() shape.Fragment {
	structural := p.curTokenIs(token.LBRACE)
	closing := token.RPAREN
	if structural {
		closing = token.RBRACE
	}
	p.nextToken()

	var fields []shape.FieldPattern
	for !p.curTokenIs(closing) {
		var fp shape.FieldPattern
		if structural {
			fp = p.parseStructField()
		} else {
			fp = p.parseFieldPattern()
		}
		if p.failed() {
			return shape.Fragment{}
		}
		fields = append(fields, fp)

		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(closing) {
			p.errorf(p.curToken, "expected `,` or `%s`, found %s", closing, describe(p.curToken))
			return shape.Fragment{}
		}
	}
	p.nextToken()

	switch {
	case len(fields) == 0:
		return shape.UnitFragment()
	case structural:
		return shape.StructFragment(fields...)
	default:
		return shape.TupleFragment(fields...)
	}
}

func (p *Parser) parseStructField() shape.FieldPattern {
	if p.curTokenIs(token.DOTDOT) {
		return p.parseFieldPattern()
	}
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected field name, found %s", describe(p.curToken))
		return shape.FieldPattern{}
	}
	name := p.curToken.Lexeme
	p.nextToken()
	if !p.expect(token.COLON, "`:`") {
		return shape.FieldPattern{}
	}

	tok := p.curToken
	fp := p.parseFieldPattern()
	if fp.Kind == shape.FieldVariadic {
		p.errorf(tok, "`..` cannot be bound to field `%s`", name)
	}
	return shape.Named(name, fp)
}

func (p *Parser) parseFieldPattern() shape.FieldPattern {
	switch p.curToken.Type {
	case token.DOTDOT:
		tok := p.curToken
		p.nextToken()
		if p.curTokenIs(token.INT) {
			p.errorf(tok, "range `..%s` is not supported", p.curToken.Lexeme)
			return shape.FieldPattern{}
		}
		return shape.Variadic()
	case token.UNDERSCORE:
		p.nextToken()
		return shape.Placeholder()
	case token.IMPL:
		p.nextToken()
		tok := p.curToken
		bounds := p.parseBounds()
		for _, b := range bounds {
			if b.Dispatch {
				p.errorf(tok, "impl bound `%s` cannot be dispatched", b.String())
			}
		}
		return shape.Impl(bounds...)
	case token.IDENT:
		if IsGenericName(p.curToken.Lexeme) && !p.peekTokenIs(token.LT) && !p.peekTokenIs(token.COLONCOLON) && !p.peekTokenIs(token.DOT) {
			sym := p.curToken.Lexeme
			p.nextToken()
			return shape.Generic(sym)
		}
	}

	t := p.parseType()
	if p.failed() {
		return shape.FieldPattern{}
	}
	return shape.Concrete(t)
}

func (p *Parser) parsePredicates() []shape.Predicate {
	var preds []shape.Predicate
	for !p.curTokenIs(token.EOF) {
		pred := p.parsePredicate()
		if p.failed() {
			return nil
		}
		preds = append(preds, pred)
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if len(preds) == 0 {
		p.errorf(p.curToken, "empty where clause")
	}
	return preds
}

func (p *Parser) parsePredicate() shape.Predicate {
	var pred shape.Predicate
	switch {
	case p.curTokenIs(token.LIFETIME):
		p.errorf(p.curToken, "lifetime bound `%s` is not supported", p.curToken.Lexeme)
		return pred
	case p.curTokenIs(token.IDENT) && IsGenericName(p.curToken.Lexeme) && p.peekTokenIs(token.COLON):
		pred.Symbol = p.curToken.Lexeme
		p.nextToken()
	default:
		pred.Subject = p.parseType()
		if p.failed() {
			return pred
		}
	}
	if !p.expect(token.COLON, "`:`") {
		return pred
	}
	pred.Bounds = p.parseBounds()
	return pred
}
