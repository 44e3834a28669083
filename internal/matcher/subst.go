package matcher

import (
	"sort"

	"github.com/benbjohnson/immutable"

	"github.com/funvibe/sumshape/internal/typesystem"
)

// Binding records where a symbol was bound in a variant.
type Binding struct {
	Type  typesystem.Type
	Index int    // field position
	Field string // field name, empty for tuple variants
}

// Substitution maps predicate subject keys (generic symbols, or the string
// form of a concrete subject type) to bindings. It is persistent: bind
// returns a new substitution and leaves the receiver untouched, so a failed
// fragment attempt never leaks into the next one.
type Substitution struct {
	m *immutable.Map[string, Binding]
}

func NewSubstitution() Substitution {
	return Substitution{m: immutable.NewMap[string, Binding](immutable.NewHasher(""))}
}

func (s Substitution) Lookup(key string) (Binding, bool) {
	if s.m == nil {
		return Binding{}, false
	}
	return s.m.Get(key)
}

func (s Substitution) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Keys returns the bound keys in sorted order.
func (s Substitution) Keys() []string {
	if s.m == nil {
		return nil
	}
	keys := make([]string, 0, s.m.Len())
	itr := s.m.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Substitution) bind(key string, b Binding) Substitution {
	if s.m == nil {
		s = NewSubstitution()
	}
	return Substitution{m: s.m.Set(key, b)}
}
