// Package traits holds trait blueprints: the method signatures needed to
// synthesize a forwarding impl for a dispatch-marked bound.
package traits

import (
	"fmt"
	"strings"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/typesystem"
)

type Receiver int

const (
	NoReceiver Receiver = iota
	ByValue             // self
	ByRef               // &self
	ByMutRef            // &mut self
)

func (r Receiver) String() string {
	switch r {
	case ByValue:
		return "self"
	case ByRef:
		return "&self"
	case ByMutRef:
		return "&mut self"
	default:
		return ""
	}
}

// TypeParam is a generic parameter of a trait or method.
type TypeParam struct {
	Name    string
	Bounds  []typesystem.Bound
	Default typesystem.Type
}

func (p TypeParam) String() string {
	s := p.Name
	if len(p.Bounds) > 0 {
		parts := make([]string, len(p.Bounds))
		for i, b := range p.Bounds {
			parts[i] = b.String()
		}
		s += ": " + strings.Join(parts, " + ")
	}
	if p.Default != nil {
		s += " = " + p.Default.String()
	}
	return s
}

type Param struct {
	Name string
	Type typesystem.Type
}

// Method is a trait method signature. A nil Return means unit.
type Method struct {
	Name     string
	Generics []TypeParam
	Receiver Receiver
	Params   []Param
	Return   typesystem.Type
}

// Signature renders the method header in Rust syntax.
func (m Method) Signature() string {
	var b strings.Builder
	b.WriteString("fn ")
	b.WriteString(m.Name)
	if len(m.Generics) > 0 {
		parts := make([]string, len(m.Generics))
		for i, g := range m.Generics {
			parts[i] = g.String()
		}
		b.WriteString("<" + strings.Join(parts, ", ") + ">")
	}
	var params []string
	if m.Receiver != NoReceiver {
		params = append(params, m.Receiver.String())
	}
	for _, p := range m.Params {
		params = append(params, p.Name+": "+p.Type.String())
	}
	b.WriteString("(" + strings.Join(params, ", ") + ")")
	if !typesystem.IsUnit(m.Return) {
		b.WriteString(" -> " + m.Return.String())
	}
	return b.String()
}

// Blueprint describes a trait. Path is the fully qualified name when known.
type Blueprint struct {
	Name       string
	Path       string
	Params     []TypeParam
	AssocTypes []string
	Methods    []Method
}

// QualifiedName returns Path, or Name when no path is recorded.
func (b *Blueprint) QualifiedName() string {
	if b.Path != "" {
		return b.Path
	}
	return b.Name
}

// MissingAssoc lists the associated types a bound leaves unpinned.
func (b *Blueprint) MissingAssoc(bound typesystem.Bound) []string {
	var missing []string
	for _, name := range b.AssocTypes {
		if _, ok := bound.AssocType(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Instance is a blueprint applied to a concrete bound and implementing type.
type Instance struct {
	Blueprint *Blueprint
	Bound     typesystem.Bound
	Self      typesystem.Type
	Args      []typesystem.Type
	Assoc     []typesystem.AssocBinding
	Methods   []Method
}

// Instantiate resolves the bound's generic arguments (falling back to the
// parameter defaults) and associated types against the blueprint. Method
// signatures get type parameters substituted; 'Self::X' projections are
// kept so renderers can print them as declared.
func (b *Blueprint) Instantiate(bound typesystem.Bound, self typesystem.Type) (*Instance, error) {
	if len(bound.Args) > len(b.Params) {
		return nil, fmt.Errorf("trait %s takes %d generic argument(s) but %d were supplied", b.Name, len(b.Params), len(bound.Args))
	}
	for _, a := range bound.Assoc {
		if !b.hasAssoc(a.Name) {
			return nil, fmt.Errorf("trait %s has no associated type %s", b.Name, a.Name)
		}
	}

	args := make([]typesystem.Type, len(b.Params))
	for i, p := range b.Params {
		switch {
		case i < len(bound.Args):
			args[i] = bound.Args[i]
		case p.Default != nil:
			args[i] = typesystem.ReplaceTCon(p.Default, config.SelfTypeName, self)
		default:
			return nil, fmt.Errorf("trait %s: missing generic argument %s", b.Name, p.Name)
		}
	}

	inst := &Instance{Blueprint: b, Bound: bound, Self: self, Args: args}
	for _, name := range b.AssocTypes {
		if t, ok := bound.AssocType(name); ok {
			inst.Assoc = append(inst.Assoc, typesystem.AssocBinding{Name: name, Type: t})
		}
	}

	subst := func(t typesystem.Type) typesystem.Type {
		for i, p := range b.Params {
			t = typesystem.ReplaceTCon(t, p.Name, args[i])
		}
		return t
	}
	for _, m := range b.Methods {
		out := Method{Name: m.Name, Generics: m.Generics, Receiver: m.Receiver, Return: subst(m.Return)}
		for _, p := range m.Params {
			out.Params = append(out.Params, Param{Name: p.Name, Type: subst(p.Type)})
		}
		inst.Methods = append(inst.Methods, out)
	}
	return inst, nil
}

// ReturnType resolves a method's return type fully: pinned associated types
// and 'Self' are replaced. Unpinned projections remain.
func (inst *Instance) ReturnType(m Method) typesystem.Type {
	if m.Return == nil {
		return typesystem.Unit
	}
	t := typesystem.ReplaceAssoc(m.Return, inst.Assoc)
	return typesystem.ReplaceTCon(t, config.SelfTypeName, inst.Self)
}

func (b *Blueprint) hasAssoc(name string) bool {
	for _, a := range b.AssocTypes {
		if a == name {
			return true
		}
	}
	return false
}
