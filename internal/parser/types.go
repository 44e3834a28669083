package parser

import (
	"strings"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/token"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// ParseType parses a type expression. Lifetimes are accepted and dropped.
func ParseType(src string) (typesystem.Type, error) {
	p := New(src)
	t := p.parseType()
	p.expectEOF()
	if err := p.err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseBound parses a single bound, e.g. "^Add<i32, Output = i32>".
func ParseBound(src string) (typesystem.Bound, error) {
	p := New(src)
	b, _ := p.parseBound()
	p.expectEOF()
	if err := p.err(); err != nil {
		return typesystem.Bound{}, err
	}
	return b, nil
}

// ParseBounds parses a '+'-separated bound list.
func ParseBounds(src string) ([]typesystem.Bound, error) {
	p := New(src)
	bs := p.parseBounds()
	p.expectEOF()
	if err := p.err(); err != nil {
		return nil, err
	}
	return bs, nil
}

func (p *Parser) parseType() typesystem.Type {
	switch p.curToken.Type {
	case token.AMPERSAND:
		p.nextToken()
		if p.curTokenIs(token.LIFETIME) {
			p.nextToken()
		}
		mutable := false
		if p.curTokenIs(token.MUT) {
			mutable = true
			p.nextToken()
		}
		elem := p.parseType()
		if elem == nil {
			return nil
		}
		return typesystem.TRef{Elem: elem, Mutable: mutable}

	case token.ASTERISK:
		// Go pointers and Rust raw pointers both model as references.
		p.nextToken()
		mutable := false
		if p.curTokenIs(token.MUT) {
			mutable = true
			p.nextToken()
		} else if p.curTokenIs(token.CONST) {
			p.nextToken()
		}
		elem := p.parseType()
		if elem == nil {
			return nil
		}
		return typesystem.TRef{Elem: elem, Mutable: mutable}

	case token.LPAREN:
		return p.parseTupleType()

	case token.LBRACKET:
		p.nextToken()
		if p.curTokenIs(token.RBRACKET) {
			// Go slice: []T
			p.nextToken()
			elem := p.parseType()
			if elem == nil {
				return nil
			}
			return typesystem.TSlice{Elem: elem}
		}
		elem := p.parseType()
		if elem == nil {
			return nil
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			if !p.curTokenIs(token.INT) {
				p.errorf(p.curToken, "expected array length, found %s", describe(p.curToken))
				return nil
			}
			n := p.curToken.Literal.(int64)
			p.nextToken()
			if !p.expect(token.RBRACKET, "`]`") {
				return nil
			}
			return typesystem.TArray{Elem: elem, Len: n}
		}
		if !p.expect(token.RBRACKET, "`]`") {
			return nil
		}
		return typesystem.TSlice{Elem: elem}

	case token.DYN, token.IMPL:
		opaque := p.curTokenIs(token.IMPL)
		p.nextToken()
		bounds := p.parseBounds()
		if p.failed() {
			return nil
		}
		return typesystem.TDyn{Bounds: bounds, Opaque: opaque}

	case token.IDENT, token.COLONCOLON:
		return p.parsePathType()

	default:
		p.errorf(p.curToken, "expected type, found %s", describe(p.curToken))
		return nil
	}
}

func (p *Parser) parseTupleType() typesystem.Type {
	p.nextToken() // (
	var elems []typesystem.Type
	trailingComma := false
	for !p.curTokenIs(token.RPAREN) {
		t := p.parseType()
		if t == nil {
			return nil
		}
		elems = append(elems, t)
		trailingComma = false
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			trailingComma = true
			continue
		}
		if !p.curTokenIs(token.RPAREN) {
			p.errorf(p.curToken, "expected `,` or `)`, found %s", describe(p.curToken))
			return nil
		}
	}
	p.nextToken() // )

	if len(elems) == 1 && !trailingComma {
		return elems[0]
	}
	return typesystem.TTuple{Elements: elems}
}

func (p *Parser) parsePathType() typesystem.Type {
	name, module, ok := p.parsePath()
	if !ok {
		return nil
	}

	if module == "" && strings.HasPrefix(name, config.SelfTypeName+"::") {
		return typesystem.TAssoc{Base: typesystem.Named(config.SelfTypeName), Name: strings.TrimPrefix(name, config.SelfTypeName+"::")}
	}

	con := typesystem.TCon{Name: name, Module: module}
	if !p.curTokenIs(token.LT) {
		return con
	}

	p.nextToken() // <
	var args []typesystem.Type
	for !p.curTokenIs(token.GT) {
		if p.curTokenIs(token.LIFETIME) {
			p.nextToken()
		} else {
			t := p.parseType()
			if t == nil {
				return nil
			}
			args = append(args, t)
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

	if len(args) == 0 {
		return con
	}
	return typesystem.TApp{Constructor: con, Args: args}
}

// parsePath reads a Rust path ('std::ops::Add', 'Self::Output') or a Go
// qualified name ('fmt.Stringer'). For Go names the qualifier is returned
// as module.
func (p *Parser) parsePath() (name, module string, ok bool) {
	leading := ""
	if p.curTokenIs(token.COLONCOLON) {
		leading = "::"
		p.nextToken()
	}
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected path, found %s", describe(p.curToken))
		return "", "", false
	}
	first := p.curToken.Lexeme
	p.nextToken()

	if leading == "" && p.curTokenIs(token.DOT) {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected name after `%s.`, found %s", first, describe(p.curToken))
			return "", "", false
		}
		name := p.curToken.Lexeme
		p.nextToken()
		return name, first, true
	}

	segs := []string{first}
	for p.curTokenIs(token.COLONCOLON) && p.peekTokenIs(token.IDENT) {
		p.nextToken()
		segs = append(segs, p.curToken.Lexeme)
		p.nextToken()
	}
	return leading + strings.Join(segs, "::"), "", true
}

func (p *Parser) parseBounds() []typesystem.Bound {
	var out []typesystem.Bound
	for {
		b, ok := p.parseBound()
		if !ok {
			return nil
		}
		out = append(out, b)
		if !p.curTokenIs(token.PLUS) {
			return out
		}
		p.nextToken()
	}
}

func (p *Parser) parseBound() (typesystem.Bound, bool) {
	var b typesystem.Bound
	if p.curTokenIs(token.CARET) {
		b.Dispatch = true
		p.nextToken()
	}
	switch {
	case p.curTokenIs(token.QUESTION):
		p.errorf(p.curToken, "`?%s` bounds are not supported", p.peekToken.Lexeme)
		return b, false
	case p.curTokenIs(token.LIFETIME):
		p.errorf(p.curToken, "lifetime bound `%s` is not supported", p.curToken.Lexeme)
		return b, false
	}

	name, module, ok := p.parsePath()
	if !ok {
		return b, false
	}
	b.Trait = name
	if module != "" {
		b.Trait = module + "." + name
	}

	if !p.curTokenIs(token.LT) {
		return b, true
	}
	p.nextToken() // <
	for !p.curTokenIs(token.GT) {
		switch {
		case p.curTokenIs(token.LIFETIME):
			p.nextToken()
		case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
			assoc := p.curToken.Lexeme
			p.nextToken()
			p.nextToken()
			t := p.parseType()
			if t == nil {
				return b, false
			}
			b.Assoc = append(b.Assoc, typesystem.AssocBinding{Name: assoc, Type: t})
		default:
			tok := p.curToken
			t := p.parseType()
			if t == nil {
				return b, false
			}
			if len(b.Assoc) > 0 {
				p.errorf(tok, "generic arguments must precede associated type bindings")
				return b, false
			}
			b.Args = append(b.Args, t)
		}
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		if !p.curTokenIs(token.GT) {
			p.errorf(p.curToken, "expected `,` or `>`, found %s", describe(p.curToken))
			return b, false
		}
	}
	p.nextToken() // >
	return b, true
}
