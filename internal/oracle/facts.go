package oracle

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Facts is an oracle backed by an explicit table of implementations and
// constructors. Build it fully before sharing; lookups never mutate it.
type Facts struct {
	impls map[string][]typesystem.Bound
	ctors map[string]Constructor
}

func NewFacts() *Facts {
	return &Facts{
		impls: make(map[string][]typesystem.Bound),
		ctors: make(map[string]Constructor),
	}
}

// Implement records that t satisfies each bound.
func (f *Facts) Implement(t typesystem.Type, bounds ...typesystem.Bound) *Facts {
	key := typesystem.Key(t)
	for _, b := range bounds {
		f.impls[key] = append(f.impls[key], b.Plain())
	}
	return f
}

// Construct records an explicit default constructor for t.
func (f *Facts) Construct(t typesystem.Type, ctor Constructor) *Facts {
	f.ctors[typesystem.Key(t)] = ctor
	return f
}

// Satisfies looks t up in the table. Generic arguments the query omits
// default to t itself, as with 'Rhs = Self'.
func (f *Facts) Satisfies(t typesystem.Type, b typesystem.Bound) bool {
	for _, have := range f.impls[typesystem.Key(t)] {
		want := b
		for len(want.Args) < len(have.Args) {
			want.Args = append(want.Args[:len(want.Args):len(want.Args)], t)
		}
		if Matches(have, want) {
			return true
		}
	}
	return false
}

// DefaultConstructor prefers an explicit constructor and falls back to the
// Default capability.
func (f *Facts) DefaultConstructor(t typesystem.Type) (Constructor, bool) {
	if ctor, ok := f.ctors[typesystem.Key(t)]; ok {
		return ctor, true
	}
	if f.Satisfies(t, typesystem.Bound{Trait: config.DefaultTraitName}) {
		return Constructor{Expr: config.DefaultCallExpr, Capability: config.DefaultTraitName}, true
	}
	return Constructor{}, false
}

// Types lists the key of every type with at least one recorded fact,
// sorted. Go types are keyed by their full import path.
func (f *Facts) Types() []string {
	seen := make(map[string]bool, len(f.impls)+len(f.ctors))
	for k := range f.impls {
		seen[k] = true
	}
	for k := range f.ctors {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String lists the facts one type per line, sorted by type key.
func (f *Facts) String() string {
	var b strings.Builder
	for _, k := range f.Types() {
		b.WriteString(k + ":")
		for _, bound := range f.impls[k] {
			b.WriteString(" " + bound.String())
		}
		if ctor, ok := f.ctors[k]; ok {
			b.WriteString(" = " + ctor.Expr)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Bounds returns the recorded implementations of a type.
func (f *Facts) Bounds(t string) []typesystem.Bound {
	return f.impls[t]
}

// FactsFile is the YAML form of a fact table:
//
//	facts:
//	  i32: [Trait, "Add<i32, Output = i32>"]
//	defaults:
//	  Storage: "Storage::empty()"
type FactsFile struct {
	Facts    map[string][]string `yaml:"facts"`
	Defaults map[string]string   `yaml:"defaults"`
}

// Load parses the textual facts into f.
func (f *Facts) Load(ff FactsFile) error {
	for _, typ := range sortedKeys(ff.Facts) {
		t, err := parser.ParseType(typ)
		if err != nil {
			return fmt.Errorf("facts: type %q: %w", typ, err)
		}
		for _, src := range ff.Facts[typ] {
			b, err := parser.ParseBound(src)
			if err != nil {
				return fmt.Errorf("facts: %s: bound %q: %w", typ, src, err)
			}
			f.Implement(t, b)
		}
	}
	for _, typ := range sortedKeys(ff.Defaults) {
		t, err := parser.ParseType(typ)
		if err != nil {
			return fmt.Errorf("defaults: type %q: %w", typ, err)
		}
		f.Construct(t, Constructor{Expr: ff.Defaults[typ], Capability: "fact"})
	}
	return nil
}

// LoadFactsFile reads a YAML fact table.
func LoadFactsFile(path string) (*Facts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var ff FactsFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	facts := NewFacts()
	if err := facts.Load(ff); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return facts, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
