// Package shape models shape patterns: the fragments a variant may take and
// the predicates constraining the generic symbols they introduce.
package shape

import (
	"strings"

	"github.com/funvibe/sumshape/internal/typesystem"
)

// Kind is the structural kind shared by fragments and variants.
type Kind int

const (
	Unit Kind = iota
	Tuple
	Struct
)

func (k Kind) String() string {
	switch k {
	case Unit:
		return "unit"
	case Tuple:
		return "tuple"
	case Struct:
		return "struct"
	default:
		return "unknown"
	}
}

type FieldKind int

const (
	FieldGeneric FieldKind = iota
	FieldPlaceholder
	FieldVariadic
	FieldImpl
	FieldConcrete
)

// FieldPattern constrains one position of a fragment. Name is set only for
// struct fragments.
type FieldPattern struct {
	Kind   FieldKind
	Name   string
	Symbol string             // FieldGeneric
	Bounds []typesystem.Bound // FieldImpl
	Type   typesystem.Type    // FieldConcrete
}

func Generic(symbol string) FieldPattern {
	return FieldPattern{Kind: FieldGeneric, Symbol: symbol}
}

func Placeholder() FieldPattern {
	return FieldPattern{Kind: FieldPlaceholder}
}

func Variadic() FieldPattern {
	return FieldPattern{Kind: FieldVariadic}
}

func Impl(bounds ...typesystem.Bound) FieldPattern {
	return FieldPattern{Kind: FieldImpl, Bounds: bounds}
}

func Concrete(t typesystem.Type) FieldPattern {
	return FieldPattern{Kind: FieldConcrete, Type: t}
}

// Named returns a copy of f bound to a struct field name.
func Named(name string, f FieldPattern) FieldPattern {
	f.Name = name
	return f
}

func (f FieldPattern) String() string {
	var body string
	switch f.Kind {
	case FieldGeneric:
		body = f.Symbol
	case FieldPlaceholder:
		body = "_"
	case FieldVariadic:
		return ".."
	case FieldImpl:
		parts := make([]string, len(f.Bounds))
		for i, b := range f.Bounds {
			parts[i] = b.String()
		}
		body = "impl " + strings.Join(parts, " + ")
	case FieldConcrete:
		body = f.Type.String()
	}
	if f.Name != "" {
		return f.Name + ": " + body
	}
	return body
}

// Fragment is one alternative shape. Name, when set, restricts the fragment
// to the variant of that name.
type Fragment struct {
	Kind   Kind
	Name   string
	Fields []FieldPattern
}

func UnitFragment() Fragment {
	return Fragment{Kind: Unit}
}

func TupleFragment(fields ...FieldPattern) Fragment {
	return Fragment{Kind: Tuple, Fields: fields}
}

func StructFragment(fields ...FieldPattern) Fragment {
	return Fragment{Kind: Struct, Fields: fields}
}

// HasVariadic reports whether the fragment accepts extra fields.
func (f Fragment) HasVariadic() bool {
	for _, fp := range f.Fields {
		if fp.Kind == FieldVariadic {
			return true
		}
	}
	return false
}

// Fixed returns the non-variadic field patterns in order.
func (f Fragment) Fixed() []FieldPattern {
	out := make([]FieldPattern, 0, len(f.Fields))
	for _, fp := range f.Fields {
		if fp.Kind != FieldVariadic {
			out = append(out, fp)
		}
	}
	return out
}

func (f Fragment) String() string {
	parts := make([]string, len(f.Fields))
	for i, fp := range f.Fields {
		parts[i] = fp.String()
	}
	body := strings.Join(parts, ", ")
	switch f.Kind {
	case Tuple:
		return f.Name + "(" + body + ")"
	case Struct:
		if body == "" {
			return f.Name + "{}"
		}
		return f.Name + "{ " + body + " }"
	default:
		if f.Name != "" {
			return f.Name
		}
		return "()"
	}
}

// Predicate attaches bounds to a generic symbol, or to a concrete subject
// type when Symbol is empty.
type Predicate struct {
	Symbol  string
	Subject typesystem.Type
	Bounds  []typesystem.Bound
}

// Key identifies the predicate subject in a substitution.
func (p Predicate) Key() string {
	if p.Symbol != "" {
		return p.Symbol
	}
	return p.Subject.String()
}

// IsGeneric reports whether the subject is a generic symbol.
func (p Predicate) IsGeneric() bool {
	return p.Symbol != ""
}

func (p Predicate) String() string {
	parts := make([]string, len(p.Bounds))
	for i, b := range p.Bounds {
		parts[i] = b.Display()
	}
	return p.Key() + ": " + strings.Join(parts, " + ")
}

// DispatchBound is a bound marked for impl synthesis, with its subject key.
type DispatchBound struct {
	Key   string
	Bound typesystem.Bound
}

// PatternSet is an ordered list of fragments plus a where clause.
// Fragment order is significant.
type PatternSet struct {
	Fragments  []Fragment
	Predicates []Predicate
}

func (s *PatternSet) String() string {
	parts := make([]string, len(s.Fragments))
	for i, f := range s.Fragments {
		parts[i] = f.String()
	}
	out := strings.Join(parts, " | ")
	if len(s.Predicates) > 0 {
		preds := make([]string, len(s.Predicates))
		for i, p := range s.Predicates {
			preds[i] = p.String()
		}
		out += " where " + strings.Join(preds, ", ")
	}
	return out
}

// Symbols returns the generic symbols in order of first introduction.
func (s *PatternSet) Symbols() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range s.Fragments {
		for _, fp := range f.Fields {
			if fp.Kind == FieldGeneric && !seen[fp.Symbol] {
				seen[fp.Symbol] = true
				out = append(out, fp.Symbol)
			}
		}
	}
	return out
}

// Introduces reports whether some fragment introduces symbol.
func (s *PatternSet) Introduces(symbol string) bool {
	for _, sym := range s.Symbols() {
		if sym == symbol {
			return true
		}
	}
	return false
}

// IntroducesConcrete reports whether some fragment names the concrete
// type t in a field position.
func (s *PatternSet) IntroducesConcrete(t typesystem.Type) bool {
	for _, f := range s.Fragments {
		for _, fp := range f.Fields {
			if fp.Kind == FieldConcrete && typesystem.Equal(fp.Type, t) {
				return true
			}
		}
	}
	return false
}

// BoundsFor returns every bound attached to key, in where-clause order.
func (s *PatternSet) BoundsFor(key string) []typesystem.Bound {
	var out []typesystem.Bound
	for _, p := range s.Predicates {
		if p.Key() == key {
			out = append(out, p.Bounds...)
		}
	}
	return out
}

// DispatchBounds returns every dispatch-marked bound, in where-clause order.
func (s *PatternSet) DispatchBounds() []DispatchBound {
	var out []DispatchBound
	for _, p := range s.Predicates {
		for _, b := range p.Bounds {
			if b.Dispatch {
				out = append(out, DispatchBound{Key: p.Key(), Bound: b})
			}
		}
	}
	return out
}
