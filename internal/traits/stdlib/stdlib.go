// Package stdlib provides the registry of standard-library trait blueprints.
package stdlib

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/traits"
)

//go:embed std/*.rs
var sources embed.FS

// Registry returns the standard registry. It is built on first use and
// shared read-only afterwards.
var Registry = sync.OnceValue(func() *traits.Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
})

// Load parses the embedded trait sources. Each file is a module under std,
// so Add in ops.rs is registered as std::ops::Add.
func Load() (*traits.Registry, error) {
	entries, err := sources.ReadDir("std")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var all []*traits.Blueprint
	for _, name := range names {
		data, err := sources.ReadFile(path.Join("std", name))
		if err != nil {
			return nil, err
		}
		bps, err := parser.ParseTraits(string(data))
		if err != nil {
			return nil, fmt.Errorf("std/%s: %w", name, err)
		}
		module := "std::" + strings.TrimSuffix(name, ".rs")
		for _, bp := range bps {
			bp.Path = module + "::" + bp.Name
		}
		all = append(all, bps...)
	}
	return traits.NewRegistry(all...), nil
}
