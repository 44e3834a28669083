package traits

import "strings"

// Registry maps trait names to blueprints. A registry is never mutated after
// construction; With layers additional blueprints over it.
type Registry struct {
	parent *Registry
	byName map[string]*Blueprint
	order  []*Blueprint
}

func NewRegistry(bps ...*Blueprint) *Registry {
	return (*Registry)(nil).With(bps...)
}

// With returns a registry where bps shadow same-named entries of r.
func (r *Registry) With(bps ...*Blueprint) *Registry {
	child := &Registry{parent: r, byName: make(map[string]*Blueprint, 2*len(bps))}
	for _, bp := range bps {
		child.byName[bp.QualifiedName()] = bp
		if bp.Path != "" {
			child.byName[bp.Name] = bp
		}
		child.order = append(child.order, bp)
	}
	return child
}

// Lookup resolves a trait by qualified path first, then by its last segment.
func (r *Registry) Lookup(path string) (*Blueprint, bool) {
	for reg := r; reg != nil; reg = reg.parent {
		if bp, ok := reg.byName[path]; ok {
			return bp, true
		}
	}
	short := shortName(path)
	if short == path {
		return nil, false
	}
	for reg := r; reg != nil; reg = reg.parent {
		if bp, ok := reg.byName[short]; ok {
			return bp, true
		}
	}
	return nil, false
}

// Resolve is Lookup returning an *UnknownTraitError.
func (r *Registry) Resolve(path string) (*Blueprint, error) {
	if bp, ok := r.Lookup(path); ok {
		return bp, nil
	}
	return nil, NewUnknownTraitError(path)
}

// All returns every visible blueprint, outermost layer first, shadowed
// entries omitted.
func (r *Registry) All() []*Blueprint {
	var layers []*Registry
	for reg := r; reg != nil; reg = reg.parent {
		layers = append([]*Registry{reg}, layers...)
	}
	var out []*Blueprint
	for i, reg := range layers {
		for _, bp := range reg.order {
			if shadowed(layers[i+1:], bp) {
				continue
			}
			out = append(out, bp)
		}
	}
	return out
}

func shadowed(later []*Registry, bp *Blueprint) bool {
	for _, reg := range later {
		if _, ok := reg.byName[bp.QualifiedName()]; ok {
			return true
		}
	}
	return false
}

func shortName(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
