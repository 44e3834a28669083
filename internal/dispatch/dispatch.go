// Package dispatch turns dispatch-marked bounds into forwarding impls: one
// exhaustive match arm per variant and method.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/matcher"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/typesystem"
)

var implNamespace = uuid.MustParse("a3d1e7b2-4f61-4c0e-8d2a-0f9e5c7b1a64")

var selfType = typesystem.Named(config.SelfTypeName)

// Target is a dispatch bound resolved against the trait registry.
type Target struct {
	Key      string // predicate subject the bound hangs off
	Bound    typesystem.Bound
	Instance *traits.Instance
}

// Method is a trait method with one arm per variant, in declaration order.
type Method struct {
	traits.Method
	// Resolved is the return type with pinned associated types substituted.
	Resolved typesystem.Type
	Arms     []Plan
}

// Impl is a synthesized trait implementation for an enum.
type Impl struct {
	// ID is stable for the same enum, subject and bound.
	ID       uuid.UUID
	Enum     *subject.Enum
	Key      string
	Bound    typesystem.Bound
	Instance *traits.Instance
	Methods  []Method
}

// Trait returns the trait path as written in the bound.
func (i *Impl) Trait() string {
	return i.Bound.Trait
}

func (i *Impl) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "impl %s for %s", i.Bound, i.Enum.Name)
	for _, m := range i.Methods {
		fmt.Fprintf(&b, "\n  %s", m.Signature())
		for _, arm := range m.Arms {
			fmt.Fprintf(&b, "\n    %s", arm)
		}
	}
	return b.String()
}

// Prepare resolves every dispatch bound of set before any matching happens.
// Signatures keep 'Self' so renderers can print them inside the impl.
func Prepare(set *shape.PatternSet, registry *traits.Registry) ([]Target, *diagnostics.Set) {
	diags := diagnostics.NewSet()
	var targets []Target
	for _, db := range set.DispatchBounds() {
		bound := db.Bound.Plain()
		bp, ok := registry.Lookup(bound.Trait)
		if !ok {
			d := diagnostics.NewUnknownTrait(bound.String())
			d.Symbol = db.Key
			diags.Add(d)
			continue
		}
		if missing := bp.MissingAssoc(bound); len(missing) > 0 {
			d := diagnostics.NewAmbiguousAssociatedType(bound.String(), missing)
			d.Symbol = db.Key
			diags.Add(d)
			continue
		}
		inst, err := bp.Instantiate(bound, selfType)
		if err != nil {
			d := diagnostics.New(diagnostics.ErrS010, err.Error())
			d.Symbol = db.Key
			d.Bound = bound.String()
			diags.Add(d)
			continue
		}
		if d := checkForwardable(inst); d != nil {
			d.Symbol = db.Key
			diags.Add(d)
			continue
		}
		targets = append(targets, Target{Key: db.Key, Bound: bound, Instance: inst})
	}
	return targets, diags
}

// checkForwardable rejects methods a field cannot answer on the enum's
// behalf.
func checkForwardable(inst *traits.Instance) *diagnostics.DiagnosticError {
	bound := inst.Bound.String()
	for _, m := range inst.Methods {
		if m.Receiver == traits.NoReceiver {
			return diagnostics.NewUndispatchable(bound, m.Name, "method has no receiver")
		}
		for _, p := range m.Params {
			if mentionsSelf(p.Type) {
				return diagnostics.NewUndispatchable(bound, m.Name,
					fmt.Sprintf("parameter `%s: %s` refers to Self; pin the generic argument", p.Name, p.Type))
			}
		}
		if mentionsSelf(typesystem.ReplaceAssoc(m.Return, inst.Assoc)) {
			return diagnostics.NewUndispatchable(bound, m.Name, "method returns Self")
		}
	}
	return nil
}

// mentionsSelf reports a bare 'Self'. Projections like 'Self::Output' are
// resolved through pinned associated types and do not count.
func mentionsSelf(t typesystem.Type) bool {
	switch typ := t.(type) {
	case nil:
		return false
	case typesystem.TCon:
		return typ.Name == config.SelfTypeName
	case typesystem.TApp:
		if mentionsSelf(typ.Constructor) {
			return true
		}
		for _, a := range typ.Args {
			if mentionsSelf(a) {
				return true
			}
		}
	case typesystem.TRef:
		return mentionsSelf(typ.Elem)
	case typesystem.TSlice:
		return mentionsSelf(typ.Elem)
	case typesystem.TArray:
		return mentionsSelf(typ.Elem)
	case typesystem.TTuple:
		for _, e := range typ.Elements {
			if mentionsSelf(e) {
				return true
			}
		}
	}
	return false
}

// Synthesize builds the impl for one target. Every variant must have been
// matched. A variant that neither binds the subject nor has a default for
// a method's return type yields S006; all such arms are reported together.
func Synthesize(e *subject.Enum, target Target, matches []matcher.Result, table *defaults.Table, o oracle.Oracle) (*Impl, error) {
	if len(matches) != len(e.Variants) {
		return nil, fmt.Errorf("dispatch %s: %d match results for %d variants", target.Bound, len(matches), len(e.Variants))
	}
	impl := &Impl{
		ID:       Fingerprint(e.Name, target.Key, target.Bound),
		Enum:     e,
		Key:      target.Key,
		Bound:    target.Bound,
		Instance: target.Instance,
	}

	diags := diagnostics.NewSet()
	for _, m := range target.Instance.Methods {
		ret := target.Instance.ReturnType(m)
		method := Method{Method: m, Resolved: ret}
		for i, r := range matches {
			if !r.Matched() {
				return nil, fmt.Errorf("dispatch %s: variant %s did not match", target.Bound, e.Variants[i].Name())
			}
			plan := planArm(r, target.Key, ret, table, o)
			if plan.Kind == Unsatisfiable {
				d := diagnostics.NewUnsatisfiable(e.Name, r.Variant.Name(), m.Name, target.Bound.String(), ret.String())
				d.Symbol = target.Key
				diags.Add(d)
			}
			method.Arms = append(method.Arms, plan)
		}
		impl.Methods = append(impl.Methods, method)
	}
	if err := diags.Err(); err != nil {
		return nil, err
	}
	return impl, nil
}

func planArm(r matcher.Result, key string, ret typesystem.Type, table *defaults.Table, o oracle.Oracle) Plan {
	if b, ok := r.Subst.Lookup(key); ok {
		return Plan{Kind: Forward, Variant: r.Variant, Field: b.Index, FieldName: b.Field, FieldType: b.Type}
	}
	if value, ok := table.Infer(ret, o); ok {
		return Plan{Kind: Default, Variant: r.Variant, Value: value}
	}
	return Plan{Kind: Unsatisfiable, Variant: r.Variant}
}

// Fingerprint derives the impl ID.
func Fingerprint(enum, key string, bound typesystem.Bound) uuid.UUID {
	return uuid.NewSHA1(implNamespace, []byte(enum+"\x00"+key+"\x00"+bound.String()))
}
