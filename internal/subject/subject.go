// Package subject models the sum type being checked: an enum and its variants.
package subject

import (
	"fmt"
	"strings"

	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Field is one variant field. Name is empty for tuple variants.
type Field struct {
	Name string
	Type typesystem.Type
}

// Variant is immutable once built; use the constructors.
type Variant struct {
	name   string
	kind   shape.Kind
	fields []Field
	// Discriminant is the literal assigned with '= N', if any.
	discriminant string
}

func Unit(name string) Variant {
	return Variant{name: name, kind: shape.Unit}
}

func Tuple(name string, types ...typesystem.Type) Variant {
	fields := make([]Field, len(types))
	for i, t := range types {
		fields[i] = Field{Type: t}
	}
	return Variant{name: name, kind: shape.Tuple, fields: fields}
}

func Struct(name string, fields ...Field) Variant {
	return Variant{name: name, kind: shape.Struct, fields: append([]Field(nil), fields...)}
}

// WithDiscriminant returns a copy carrying an explicit discriminant.
func (v Variant) WithDiscriminant(lit string) Variant {
	v.discriminant = lit
	return v
}

func (v Variant) Name() string         { return v.name }
func (v Variant) Kind() shape.Kind     { return v.kind }
func (v Variant) Arity() int           { return len(v.fields) }
func (v Variant) Discriminant() string { return v.discriminant }

// Fields returns a copy of the fields in declaration order.
func (v Variant) Fields() []Field {
	return append([]Field(nil), v.fields...)
}

func (v Variant) Field(i int) Field {
	return v.fields[i]
}

// Lookup finds a struct field by name.
func (v Variant) Lookup(name string) (int, Field, bool) {
	for i, f := range v.fields {
		if f.Name == name {
			return i, f, true
		}
	}
	return -1, Field{}, false
}

func (v Variant) String() string {
	switch v.kind {
	case shape.Tuple:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Type.String()
		}
		return v.name + "(" + strings.Join(parts, ", ") + ")"
	case shape.Struct:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ": " + f.Type.String()
		}
		return v.name + " { " + strings.Join(parts, ", ") + " }"
	default:
		if v.discriminant != "" {
			return v.name + " = " + v.discriminant
		}
		return v.name
	}
}

// Enum is a named sum type with its variants in declaration order.
type Enum struct {
	Name     string
	Module   string   // Go import path or Rust module, informational
	Generics []string // declared type parameters, e.g. ["T"]
	Variants []Variant
}

func New(name string, variants ...Variant) *Enum {
	return &Enum{Name: name, Variants: variants}
}

// Type returns the enum as a type, applying its declared generics.
func (e *Enum) Type() typesystem.Type {
	con := typesystem.TCon{Name: e.Name, Module: e.Module}
	if len(e.Generics) == 0 {
		return con
	}
	args := make([]typesystem.Type, len(e.Generics))
	for i, g := range e.Generics {
		args[i] = typesystem.Named(g)
	}
	return typesystem.TApp{Constructor: typesystem.Named(e.Name), Args: args}
}

// Variant looks a variant up by name.
func (e *Enum) Variant(name string) (Variant, bool) {
	for _, v := range e.Variants {
		if v.name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Check rejects duplicate variant names and malformed struct variants.
func (e *Enum) Check() error {
	seen := map[string]bool{}
	for _, v := range e.Variants {
		if seen[v.name] {
			return fmt.Errorf("enum %s: duplicate variant %s", e.Name, v.name)
		}
		seen[v.name] = true
		if v.kind == shape.Struct {
			names := map[string]bool{}
			for i, f := range v.fields {
				if f.Name == "" {
					return fmt.Errorf("enum %s: variant %s: field %d has no name", e.Name, v.name, i)
				}
				if names[f.Name] {
					return fmt.Errorf("enum %s: variant %s: duplicate field %s", e.Name, v.name, f.Name)
				}
				names[f.Name] = true
			}
		}
		for i, f := range v.fields {
			if f.Type == nil {
				return fmt.Errorf("enum %s: variant %s: field %d has no type", e.Name, v.name, i)
			}
		}
	}
	return nil
}
