// Package project loads a sumshape.yaml project, gathers the sum types it
// declares or points at, checks them and renders the generated code.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/sumshape/internal/config"
)

// Config represents the top-level sumshape.yaml configuration.
type Config struct {
	// Enums are sum types declared directly in the project file.
	Enums []EnumSpec `yaml:"enums,omitempty"`

	// Traits adds user trait blueprints on top of the standard registry.
	Traits []TraitSpec `yaml:"traits,omitempty"`

	Oracle  OracleSpec  `yaml:"oracle,omitempty"`
	Sources SourcesSpec `yaml:"sources,omitempty"`
	Output  OutputSpec  `yaml:"output,omitempty"`

	// Lint enables S004/S009 notes. Defaults to true.
	Lint *bool `yaml:"lint,omitempty"`
}

// EnumSpec declares a sum type and the pattern it must satisfy.
//
//	- name: Shape
//	  pattern: "(T) | () where T: ^Area"
//	  variants:
//	    - name: Circle
//	      fields: [f64]
//	    - name: Rect
//	      named: ["w: f64", "h: f64"]
//	    - name: Empty
type EnumSpec struct {
	Name     string        `yaml:"name"`
	Pattern  string        `yaml:"pattern"`
	Generics []string      `yaml:"generics,omitempty"`
	Variants []VariantSpec `yaml:"variants"`
	Derive   []DeriveSpec  `yaml:"derive,omitempty"`
}

// VariantSpec is a unit variant when it has neither Fields nor Named.
type VariantSpec struct {
	Name string `yaml:"name"`

	// Fields are the types of a tuple variant.
	Fields []string `yaml:"fields,omitempty"`

	// Named are the "name: type" fields of a struct variant.
	Named []string `yaml:"named,omitempty"`

	// Expr is the variant's expression for derivations.
	Expr string `yaml:"expr,omitempty"`
}

// DeriveSpec requests an expression derivation (ToString, Display,
// Into, Deref, StaticStr).
type DeriveSpec struct {
	Trait  string `yaml:"trait"`
	Target string `yaml:"target,omitempty"`
}

// TraitSpec declares a trait either as Rust source or structurally.
type TraitSpec struct {
	// Source is a complete 'trait ... { ... }' definition. Mutually
	// exclusive with the structured fields.
	Source string `yaml:"source,omitempty"`

	Name string `yaml:"name,omitempty"`

	// Params are type parameters such as "Rhs = Self".
	Params []string `yaml:"params,omitempty"`

	// Assoc lists associated type names.
	Assoc []string `yaml:"assoc,omitempty"`

	Methods []MethodSpec `yaml:"methods,omitempty"`
}

type MethodSpec struct {
	Name string `yaml:"name"`

	// Receiver is "self", "&self", "&mut self" or "none". Defaults to "&self".
	Receiver string `yaml:"receiver,omitempty"`

	// Params are "name: type" pairs.
	Params []string `yaml:"params,omitempty"`

	Return string `yaml:"return,omitempty"`
}

// OracleSpec configures capability answers beyond the standard library.
type OracleSpec struct {
	// Facts maps a type to the bounds it satisfies.
	Facts map[string][]string `yaml:"facts,omitempty"`

	// Defaults maps a type to its default constructor expression.
	Defaults map[string]string `yaml:"defaults,omitempty"`

	// Rules is a Datalog file deriving implements/2 and default_ctor/2.
	Rules string `yaml:"rules,omitempty"`

	// Cache is a SQLite file memoizing oracle answers.
	Cache string `yaml:"cache,omitempty"`
}

// SourcesSpec points at sum types declared in source code.
type SourcesSpec struct {
	// Go are package patterns ("./...") loaded relative to the project.
	Go []string `yaml:"go,omitempty"`

	Proto []ProtoSpec `yaml:"proto,omitempty"`

	// Rust are Rust source files.
	Rust []string `yaml:"rust,omitempty"`
}

type ProtoSpec struct {
	File        string   `yaml:"file"`
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// Oneofs maps fully qualified oneof names to their checks.
	Oneofs map[string]OneofSpec `yaml:"oneofs"`
}

type OneofSpec struct {
	Pattern string       `yaml:"pattern"`
	Derive  []DeriveSpec `yaml:"derive,omitempty"`
}

type OutputSpec struct {
	// Dialect is "rust" or "go". Defaults to "rust".
	Dialect string `yaml:"dialect,omitempty"`

	// File is where 'sumshape gen' writes by default; stdout when empty.
	File string `yaml:"file,omitempty"`

	// Package and PackagePath name the generated Go package.
	Package     string `yaml:"package,omitempty"`
	PackagePath string `yaml:"package_path,omitempty"`
}

// LintEnabled reports the effective lint setting.
func (c *Config) LintEnabled() bool {
	return c.Lint == nil || *c.Lint
}

// LoadConfig reads and parses a sumshape.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses sumshape.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for sumshape.yaml starting from dir and walking up
// to parent directories. Returns an empty path and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range config.ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if len(c.Enums) == 0 && len(c.Sources.Go) == 0 && len(c.Sources.Proto) == 0 && len(c.Sources.Rust) == 0 {
		return fmt.Errorf("%s: no enums or sources defined", path)
	}

	seen := make(map[string]int)
	for i, e := range c.Enums {
		if e.Name == "" {
			return fmt.Errorf("%s: enums[%d]: name is required", path, i)
		}
		if prev, ok := seen[e.Name]; ok {
			return fmt.Errorf("%s: enums[%d] (%s): duplicate of enums[%d]", path, i, e.Name, prev)
		}
		seen[e.Name] = i
		if strings.TrimSpace(e.Pattern) == "" {
			return fmt.Errorf("%s: enums[%d] (%s): pattern is required", path, i, e.Name)
		}
		for j, v := range e.Variants {
			if v.Name == "" {
				return fmt.Errorf("%s: enums[%d].variants[%d] (%s): name is required", path, i, j, e.Name)
			}
			if len(v.Fields) > 0 && len(v.Named) > 0 {
				return fmt.Errorf("%s: enums[%d].variants[%d] (%s::%s): fields and named are mutually exclusive",
					path, i, j, e.Name, v.Name)
			}
			for k, f := range v.Named {
				if name, typ, ok := strings.Cut(f, ":"); !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(typ) == "" {
					return fmt.Errorf("%s: enums[%d].variants[%d].named[%d] (%s::%s): expected \"name: type\", got %q",
						path, i, j, k, e.Name, v.Name, f)
				}
			}
		}
		if err := validateDerive(e.Derive, fmt.Sprintf("%s: enums[%d]", path, i)); err != nil {
			return err
		}
	}

	for i, t := range c.Traits {
		if t.Source != "" {
			if t.Name != "" || len(t.Params) > 0 || len(t.Assoc) > 0 || len(t.Methods) > 0 {
				return fmt.Errorf("%s: traits[%d]: source and structured fields are mutually exclusive", path, i)
			}
			continue
		}
		if t.Name == "" {
			return fmt.Errorf("%s: traits[%d]: one of name or source is required", path, i)
		}
		for j, m := range t.Methods {
			if m.Name == "" {
				return fmt.Errorf("%s: traits[%d].methods[%d] (%s): name is required", path, i, j, t.Name)
			}
			switch m.Receiver {
			case "", "self", "&self", "&mut self", "none":
			default:
				return fmt.Errorf("%s: traits[%d].methods[%d] (%s::%s): unknown receiver %q",
					path, i, j, t.Name, m.Name, m.Receiver)
			}
			for k, p := range m.Params {
				if _, _, ok := strings.Cut(p, ":"); !ok {
					return fmt.Errorf("%s: traits[%d].methods[%d].params[%d] (%s::%s): expected \"name: type\", got %q",
						path, i, j, k, t.Name, m.Name, p)
				}
			}
		}
	}

	for i, p := range c.Sources.Proto {
		if p.File == "" {
			return fmt.Errorf("%s: sources.proto[%d]: file is required", path, i)
		}
		if len(p.Oneofs) == 0 {
			return fmt.Errorf("%s: sources.proto[%d] (%s): oneofs is required", path, i, p.File)
		}
		for name, o := range p.Oneofs {
			if strings.TrimSpace(o.Pattern) == "" {
				return fmt.Errorf("%s: sources.proto[%d].oneofs[%s]: pattern is required", path, i, name)
			}
			if err := validateDerive(o.Derive, fmt.Sprintf("%s: sources.proto[%d].oneofs[%s]", path, i, name)); err != nil {
				return err
			}
		}
	}

	switch c.Output.Dialect {
	case "", config.DialectRust:
	case config.DialectGo:
		if c.Output.Package == "" {
			return fmt.Errorf("%s: output: package is required for the %s dialect", path, config.DialectGo)
		}
	default:
		return fmt.Errorf("%s: output: unknown dialect %q", path, c.Output.Dialect)
	}

	return nil
}

func validateDerive(ds []DeriveSpec, where string) error {
	for k, d := range ds {
		if d.Trait == "" {
			return fmt.Errorf("%s.derive[%d]: trait is required", where, k)
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Output.Dialect == "" {
		c.Output.Dialect = config.DialectRust
	}
	for i := range c.Traits {
		for j := range c.Traits[i].Methods {
			if c.Traits[i].Methods[j].Receiver == "" {
				c.Traits[i].Methods[j].Receiver = "&self"
			}
		}
	}
	for i := range c.Sources.Proto {
		if len(c.Sources.Proto[i].ImportPaths) == 0 {
			c.Sources.Proto[i].ImportPaths = []string{"."}
		}
	}
}
