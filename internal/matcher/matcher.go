// Package matcher assigns each variant of a sum type to the first shape
// fragment that structurally accepts it.
package matcher

import (
	"fmt"

	"github.com/benbjohnson/immutable"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Result is the outcome of matching one variant.
type Result struct {
	Variant  subject.Variant
	Fragment int // index of the accepting fragment, -1 if none
	Subst    Substitution
	// Attempts lists the rejection reason of every fragment tried before
	// the accepting one (or all of them on failure).
	Attempts []diagnostics.Attempt
}

func (r Result) Matched() bool {
	return r.Fragment >= 0
}

// Mismatch builds the S001 diagnostic for a failed match.
func (r Result) Mismatch(enum string) *diagnostics.DiagnosticError {
	if r.Matched() {
		return nil
	}
	return diagnostics.NewShapeMismatch(enum, r.Variant.Name(), r.Attempts)
}

// Match tries the fragments of set in declaration order and returns the
// first that accepts v.
func Match(v subject.Variant, set *shape.PatternSet, o oracle.Oracle) Result {
	res := Result{Variant: v, Fragment: -1}
	for i, frag := range set.Fragments {
		subst, reason := matchFragment(v, frag, o)
		if reason != "" {
			res.Attempts = append(res.Attempts, diagnostics.Attempt{Fragment: i, Reason: reason})
			continue
		}
		res.Fragment = i
		res.Subst = subst
		return res
	}
	return res
}

// MatchAll matches every variant of e, in declaration order.
func MatchAll(e *subject.Enum, set *shape.PatternSet, o oracle.Oracle) []Result {
	out := make([]Result, len(e.Variants))
	for i, v := range e.Variants {
		out[i] = Match(v, set, o)
	}
	return out
}

// Accepts reports whether fragment i alone accepts v.
func Accepts(v subject.Variant, set *shape.PatternSet, i int, o oracle.Oracle) bool {
	_, reason := matchFragment(v, set.Fragments[i], o)
	return reason == ""
}

// Overlaps returns the S009 warning when a later fragment would also have
// accepted a matched variant, or nil.
func Overlaps(enum string, r Result, set *shape.PatternSet, o oracle.Oracle) *diagnostics.DiagnosticError {
	if !r.Matched() {
		return nil
	}
	for j := r.Fragment + 1; j < len(set.Fragments); j++ {
		if Accepts(r.Variant, set, j, o) {
			return diagnostics.NewOverlap(enum, r.Variant.Name(), r.Fragment, j)
		}
	}
	return nil
}

func matchFragment(v subject.Variant, frag shape.Fragment, o oracle.Oracle) (Substitution, string) {
	if frag.Name != "" && frag.Name != v.Name() {
		return Substitution{}, fmt.Sprintf("fragment is restricted to variant `%s`", frag.Name)
	}
	// A unit fragment accepts any variant without fields, so 'V()' and
	// 'V {}' match '()' like 'V' does.
	if frag.Kind == shape.Unit {
		if v.Arity() != 0 {
			return Substitution{}, fmt.Sprintf("arity %d vs required 0", v.Arity())
		}
		return NewSubstitution(), ""
	}
	if frag.Kind != v.Kind() {
		return Substitution{}, fmt.Sprintf("kind mismatch: expected %s, found %s", frag.Kind, v.Kind())
	}
	switch frag.Kind {
	case shape.Tuple:
		return matchTuple(v, frag, o)
	default:
		return matchStruct(v, frag, o)
	}
}

func matchTuple(v subject.Variant, frag shape.Fragment, o oracle.Oracle) (Substitution, string) {
	fixed := frag.Fixed()
	if frag.HasVariadic() {
		if v.Arity() < len(fixed) {
			return Substitution{}, fmt.Sprintf("arity %d vs required ≥%d", v.Arity(), len(fixed))
		}
	} else if v.Arity() != len(fixed) {
		return Substitution{}, fmt.Sprintf("arity %d vs required %d", v.Arity(), len(fixed))
	}

	subst := NewSubstitution()
	for i, fp := range fixed {
		var reason string
		subst, reason = unify(subst, fp, i, v.Field(i), o)
		if reason != "" {
			return Substitution{}, reason
		}
	}
	return subst, ""
}

func matchStruct(v subject.Variant, frag shape.Fragment, o oracle.Oracle) (Substitution, string) {
	fixed := frag.Fixed()

	fields := v.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	have := immutable.NewSet[string](immutable.NewHasher(""), names...)

	for _, fp := range fixed {
		if !have.Has(fp.Name) {
			return Substitution{}, fmt.Sprintf("missing field `%s`", fp.Name)
		}
		have = have.Delete(fp.Name)
	}
	if !frag.HasVariadic() && have.Len() > 0 {
		for _, f := range fields {
			if have.Has(f.Name) {
				return Substitution{}, fmt.Sprintf("unexpected field `%s`", f.Name)
			}
		}
	}

	subst := NewSubstitution()
	for _, fp := range fixed {
		idx, field, _ := v.Lookup(fp.Name)
		var reason string
		subst, reason = unify(subst, fp, idx, field, o)
		if reason != "" {
			return Substitution{}, reason
		}
	}
	return subst, ""
}

func unify(subst Substitution, fp shape.FieldPattern, idx int, field subject.Field, o oracle.Oracle) (Substitution, string) {
	where := fieldRef(idx, field)
	switch fp.Kind {
	case shape.FieldPlaceholder, shape.FieldVariadic:
		return subst, ""
	case shape.FieldConcrete:
		if err := typesystem.Expect(fp.Type, field.Type); err != nil {
			return subst, fmt.Sprintf("%s: %s", where, err)
		}
		key := fp.Type.String()
		if _, ok := subst.Lookup(key); !ok {
			subst = subst.bind(key, Binding{Type: field.Type, Index: idx, Field: field.Name})
		}
		return subst, ""
	case shape.FieldImpl:
		for _, b := range fp.Bounds {
			if o == nil || !o.Satisfies(field.Type, b) {
				return subst, fmt.Sprintf("%s: `%s` does not implement `%s`", where, field.Type, b)
			}
		}
		return subst, ""
	case shape.FieldGeneric:
		if prev, ok := subst.Lookup(fp.Symbol); ok {
			if !typesystem.Equal(prev.Type, field.Type) {
				return subst, fmt.Sprintf("%s: `%s` already bound to `%s`, found `%s`", where, fp.Symbol, prev.Type, field.Type)
			}
			return subst, ""
		}
		return subst.bind(fp.Symbol, Binding{Type: field.Type, Index: idx, Field: field.Name}), ""
	default:
		return subst, fmt.Sprintf("%s: unsupported pattern", where)
	}
}

func fieldRef(idx int, f subject.Field) string {
	if f.Name != "" {
		return "field `" + f.Name + "`"
	}
	return fmt.Sprintf("field %d", idx)
}
