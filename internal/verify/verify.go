// Package verify checks the where clause of a pattern against the concrete
// types a variant bound to its symbols.
package verify

import (
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/matcher"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Assertion is a concrete 'Type: Bound' obligation implied by a predicate
// for one matched variant.
type Assertion struct {
	Variant string
	Subject string // predicate key: a symbol or a concrete type
	Type    typesystem.Type
	Bound   typesystem.Bound
}

func (a Assertion) String() string {
	return a.Type.String() + ": " + a.Bound.String()
}

// Verify asks the oracle about every predicate whose subject is bound in
// subst. Subjects the variant did not bind are vacuously satisfied. All
// failures are returned; none short-circuits the rest.
func Verify(v subject.Variant, subst matcher.Substitution, set *shape.PatternSet, o oracle.Oracle) []*diagnostics.DiagnosticError {
	var out []*diagnostics.DiagnosticError
	for _, a := range Assertions(v, subst, set) {
		if o != nil && o.Satisfies(a.Type, a.Bound) {
			continue
		}
		b, _ := subst.Lookup(a.Subject)
		out = append(out, diagnostics.NewUnsatisfiedBound("", v.Name(), a.Subject, a.Type.String(), a.Bound.String(), b.Index, b.Field))
	}
	return out
}

// Assertions lists the obligations for v in where-clause order.
func Assertions(v subject.Variant, subst matcher.Substitution, set *shape.PatternSet) []Assertion {
	var out []Assertion
	for _, p := range set.Predicates {
		b, ok := subst.Lookup(p.Key())
		if !ok {
			continue
		}
		for _, bound := range p.Bounds {
			out = append(out, Assertion{Variant: v.Name(), Subject: p.Key(), Type: b.Type, Bound: bound.Plain()})
		}
	}
	return out
}
