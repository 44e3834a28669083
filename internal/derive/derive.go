// Package derive builds expression-table impls (ToString, Display, Into,
// Deref, StaticStr): each variant carries the expression its arm returns.
package derive

import (
	"fmt"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

type Kind int

const (
	ToString Kind = iota
	Display
	Into
	Deref
	StaticStr
)

var kindNames = map[string]Kind{
	"ToString":  ToString,
	"Display":   Display,
	"Into":      Into,
	"Deref":     Deref,
	"StaticStr": StaticStr,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k {
			return name
		}
	}
	return "unknown"
}

// ParseKind maps a derive name to its kind.
func ParseKind(name string) (Kind, error) {
	if k, ok := kindNames[name]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("unknown derive %q (want ToString, Display, Into, Deref or StaticStr)", name)
}

// NeedsTarget reports whether the derive takes a target type.
func (k Kind) NeedsTarget() bool {
	return k == Into || k == Deref
}

// Arm is one variant with its expression.
type Arm struct {
	Variant subject.Variant
	Expr    string
}

// Derivation is a resolved expression table.
type Derivation struct {
	Kind   Kind
	Target typesystem.Type // Into<T>, Deref<Target = T>; str for StaticStr
	// Enum is the input without the fallback variant and without
	// expression discriminants.
	Enum *subject.Enum
	Arms []Arm
	// Fallback is the expression for variants without one. It is the
	// fallback variant's expression when present.
	Fallback string
	// Custom is set when Fallback came from the enum.
	Custom bool
}

// Exhaustive reports whether every variant has its own arm.
func (d *Derivation) Exhaustive() bool {
	return len(d.Arms) == len(d.Enum.Variants)
}

// Derive builds the table for e. Variant discriminants are the per-variant
// expressions.
func Derive(e *subject.Enum, kind Kind, target typesystem.Type) (*Derivation, error) {
	switch {
	case kind == StaticStr:
		target = typesystem.Named("str")
	case kind.NeedsTarget() && target == nil:
		return nil, fmt.Errorf("derive %s for %s: missing target type", kind, e.Name)
	case !kind.NeedsTarget() && target != nil:
		return nil, fmt.Errorf("derive %s for %s: takes no target type", kind, e.Name)
	}

	d := &Derivation{
		Kind:   kind,
		Target: target,
		Enum:   &subject.Enum{Name: e.Name, Module: e.Module, Generics: e.Generics},
	}
	for _, v := range e.Variants {
		if v.Name() == config.DefaultVariantName {
			if v.Discriminant() == "" {
				return nil, fmt.Errorf("derive %s for %s: %s needs an expression", kind, e.Name, v.Name())
			}
			d.Fallback = v.Discriminant()
			d.Custom = true
			continue
		}
		stripped := v.WithDiscriminant("")
		d.Enum.Variants = append(d.Enum.Variants, stripped)
		if v.Discriminant() != "" {
			d.Arms = append(d.Arms, Arm{Variant: stripped, Expr: v.Discriminant()})
		}
	}
	if len(d.Enum.Variants) == 0 {
		return nil, fmt.Errorf("derive %s for %s: enum has no variants", kind, e.Name)
	}
	if !d.Custom {
		d.Fallback = builtinFallback(kind)
	}
	return d, nil
}

func builtinFallback(kind Kind) string {
	switch kind {
	case ToString, Display, StaticStr:
		return `""`
	default:
		return config.DefaultCallExpr
	}
}
