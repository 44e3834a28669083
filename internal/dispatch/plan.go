package dispatch

import (
	"fmt"

	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

type PlanKind int

const (
	// Forward calls the method on one field of the variant.
	Forward PlanKind = iota
	// Default returns an inferred default without touching the variant.
	Default
	// Unsatisfiable means neither applies; it never survives into an Impl.
	Unsatisfiable
)

func (k PlanKind) String() string {
	switch k {
	case Forward:
		return "forward"
	case Default:
		return "default"
	default:
		return "unsatisfiable"
	}
}

// Plan is one match arm: how a variant answers one method.
type Plan struct {
	Kind    PlanKind
	Variant subject.Variant

	// Forward
	Field     int
	FieldName string
	FieldType typesystem.Type

	// Default
	Value defaults.Expr
}

func (p Plan) String() string {
	switch p.Kind {
	case Forward:
		if p.FieldName != "" {
			return fmt.Sprintf("%s => forward .%s", p.Variant.Name(), p.FieldName)
		}
		return fmt.Sprintf("%s => forward .%d", p.Variant.Name(), p.Field)
	case Default:
		return fmt.Sprintf("%s => %s", p.Variant.Name(), p.Value)
	default:
		return p.Variant.Name() + " => unsatisfiable"
	}
}
