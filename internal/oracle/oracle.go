// Package oracle answers capability questions about concrete types: does a
// type satisfy a bound, and how is its default value constructed.
package oracle

import "github.com/funvibe/sumshape/internal/typesystem"

// Constructor is a zero-argument way to obtain a value of some type.
type Constructor struct {
	// Expr is the expression in the output dialect, e.g.
	// "Default::default()" or "Storage{}".
	Expr string
	// Capability names what provided the constructor ("Default", "zero", ...).
	Capability string
}

// ZeroCapability marks a constructor that spells the zero value of a Go
// type.
const ZeroCapability = "zero"

// Oracle is queried by the matcher, the verifier and default inference.
// Implementations must be deterministic: the same question always gets the
// same answer within a run.
type Oracle interface {
	Satisfies(t typesystem.Type, b typesystem.Bound) bool
	DefaultConstructor(t typesystem.Type) (Constructor, bool)
}

type chain []Oracle

// Chain combines oracles: a bound is satisfied if any oracle says so, and
// the first oracle with a default constructor wins.
func Chain(oracles ...Oracle) Oracle {
	var flat chain
	for _, o := range oracles {
		if o == nil {
			continue
		}
		if c, ok := o.(chain); ok {
			flat = append(flat, c...)
			continue
		}
		flat = append(flat, o)
	}
	return flat
}

func (c chain) Satisfies(t typesystem.Type, b typesystem.Bound) bool {
	for _, o := range c {
		if o.Satisfies(t, b) {
			return true
		}
	}
	return false
}

func (c chain) DefaultConstructor(t typesystem.Type) (Constructor, bool) {
	for _, o := range c {
		if ctor, ok := o.DefaultConstructor(t); ok {
			return ctor, true
		}
	}
	return Constructor{}, false
}

// Matches reports whether a known implementation 'have' answers the query
// 'want'. Trait paths compare by last segment when either side is
// unqualified. Associated types the query leaves open are not checked.
func Matches(have, want typesystem.Bound) bool {
	if have.Trait != want.Trait && have.Name() != want.Name() {
		return false
	}
	if len(have.Args) != len(want.Args) {
		return false
	}
	for i := range want.Args {
		if !typesystem.Equal(have.Args[i], want.Args[i]) {
			return false
		}
	}
	for _, a := range want.Assoc {
		got, ok := have.AssocType(a.Name)
		if !ok || !typesystem.Equal(got, a.Type) {
			return false
		}
	}
	return true
}
