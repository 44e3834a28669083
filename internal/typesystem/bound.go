package typesystem

import "strings"

// AssocBinding pins an associated type inside a bound: 'Output = i32'.
type AssocBinding struct {
	Name string
	Type Type
}

// Bound is a trait reference with its generic arguments and associated type
// bindings. Dispatch marks a bound for which an impl should be synthesized.
type Bound struct {
	Trait    string
	Args     []Type
	Assoc    []AssocBinding
	Dispatch bool
}

func (b Bound) String() string {
	if len(b.Args) == 0 && len(b.Assoc) == 0 {
		return b.Trait
	}
	parts := make([]string, 0, len(b.Args)+len(b.Assoc))
	for _, a := range b.Args {
		parts = append(parts, a.String())
	}
	for _, a := range b.Assoc {
		parts = append(parts, a.Name+" = "+a.Type.String())
	}
	return b.Trait + "<" + strings.Join(parts, ", ") + ">"
}

// Display renders the bound as written in a pattern, with the dispatch marker.
func (b Bound) Display() string {
	if b.Dispatch {
		return "^" + b.String()
	}
	return b.String()
}

// Name returns the trait name without its path ("std::ops::Add" -> "Add",
// "fmt.Stringer" -> "Stringer").
func (b Bound) Name() string {
	name := lastSegment(b.Trait)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// AssocType looks up a pinned associated type.
func (b Bound) AssocType(name string) (Type, bool) {
	for _, a := range b.Assoc {
		if a.Name == name {
			return a.Type, true
		}
	}
	return nil, false
}

// Plain returns the bound without the dispatch marker.
func (b Bound) Plain() Bound {
	b.Dispatch = false
	return b
}

// BoundsEqual compares two bounds structurally, ignoring the dispatch marker.
func BoundsEqual(a, b Bound) bool {
	if a.Trait != b.Trait || len(a.Args) != len(b.Args) || len(a.Assoc) != len(b.Assoc) {
		return false
	}
	for i := range a.Args {
		if !Equal(a.Args[i], b.Args[i]) {
			return false
		}
	}
	for i := range a.Assoc {
		if a.Assoc[i].Name != b.Assoc[i].Name || !Equal(a.Assoc[i].Type, b.Assoc[i].Type) {
			return false
		}
	}
	return true
}
