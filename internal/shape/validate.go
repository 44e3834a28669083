package shape

import (
	"fmt"

	"github.com/funvibe/sumshape/internal/diagnostics"
)

// Validate checks the structural well-formedness of a pattern set and the
// consistency of its where clause. It never consults an oracle.
func Validate(set *PatternSet) *diagnostics.Set {
	diags := diagnostics.NewSet()

	if len(set.Fragments) == 0 {
		diags.Add(diagnostics.New(diagnostics.ErrS010, "pattern has no fragments"))
		return diags
	}

	for i, frag := range set.Fragments {
		if msg := checkFragment(frag); msg != "" {
			d := diagnostics.New(diagnostics.ErrS010, fmt.Sprintf("fragment %d `%s`: %s", i, frag, msg))
			d.Fragment = i
			diags.Add(d)
		}
	}

	for _, p := range set.Predicates {
		if p.IsGeneric() && !set.Introduces(p.Symbol) {
			diags.Add(diagnostics.NewDanglingPredicate(p.Symbol))
		}
		if !p.IsGeneric() {
			switch {
			case p.Subject == nil:
				diags.Add(diagnostics.New(diagnostics.ErrS010, "predicate without subject"))
			case !set.IntroducesConcrete(p.Subject):
				diags.Add(diagnostics.NewDanglingPredicate(p.Key()))
			}
		}
	}

	for _, sym := range set.Symbols() {
		if len(set.BoundsFor(sym)) == 0 {
			diags.Add(diagnostics.NewUnboundSymbol(sym))
		}
	}

	return diags
}

func checkFragment(f Fragment) string {
	if f.Kind == Unit {
		if len(f.Fields) > 0 {
			return "unit fragment cannot have fields"
		}
		return ""
	}

	names := map[string]bool{}
	for i, fp := range f.Fields {
		if fp.Kind == FieldVariadic {
			if i != len(f.Fields)-1 {
				return "`..` must be the last field"
			}
			if fp.Name != "" {
				return "`..` cannot be named"
			}
			continue
		}
		if fp.Kind == FieldImpl {
			if len(fp.Bounds) == 0 {
				return "impl field without bounds"
			}
			for _, b := range fp.Bounds {
				if b.Dispatch {
					return fmt.Sprintf("impl bound `%s` cannot be dispatched", b.String())
				}
			}
		}
		if fp.Kind == FieldConcrete && fp.Type == nil {
			return "concrete field without type"
		}
		switch f.Kind {
		case Tuple:
			if fp.Name != "" {
				return fmt.Sprintf("tuple field %d cannot be named", i)
			}
		case Struct:
			if fp.Name == "" {
				return fmt.Sprintf("struct field %d needs a name", i)
			}
			if names[fp.Name] {
				return fmt.Sprintf("duplicate field `%s`", fp.Name)
			}
			names[fp.Name] = true
		}
	}
	return ""
}
