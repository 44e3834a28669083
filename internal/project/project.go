package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/gosrc"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/pipeline"
	"github.com/funvibe/sumshape/internal/protosrc"
	"github.com/funvibe/sumshape/internal/rustsrc"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/traits/stdlib"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Project is a loaded configuration with every sum type it covers and the
// registry, oracle and defaults table they are checked against.
type Project struct {
	Path   string
	Dir    string
	Config *Config

	Registry    *traits.Registry
	Oracle      oracle.Oracle
	Defaults    *defaults.Table
	Definitions []*subject.Definition

	// Inputs are the files a change to which invalidates the project.
	Inputs []string

	logger *zap.Logger
	cache  *oracle.Cache
}

// Open loads the project file at path and everything it points at.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Project, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Path:   path,
		Dir:    filepath.Dir(path),
		Config: cfg,
		Inputs: []string{path},
		logger: logger.Named("project"),
	}
	fingerprint := []string{string(data)}

	registry := stdlib.Registry()
	oracles := []oracle.Oracle{oracle.Std()}

	if len(cfg.Oracle.Facts) > 0 || len(cfg.Oracle.Defaults) > 0 {
		facts := oracle.NewFacts()
		if err := facts.Load(oracle.FactsFile{Facts: cfg.Oracle.Facts, Defaults: cfg.Oracle.Defaults}); err != nil {
			return nil, fmt.Errorf("%s: oracle: %w", path, err)
		}
		oracles = append(oracles, facts)
	}
	if cfg.Oracle.Rules != "" {
		rulesPath := p.resolve(cfg.Oracle.Rules)
		src, err := os.ReadFile(rulesPath)
		if err != nil {
			return nil, fmt.Errorf("reading rules %s: %w", rulesPath, err)
		}
		rules, err := oracle.LoadRules(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rulesPath, err)
		}
		oracles = append(oracles, rules)
		fingerprint = append(fingerprint, string(src))
		p.Inputs = append(p.Inputs, rulesPath)
	}

	if len(cfg.Sources.Go) > 0 {
		ins := gosrc.NewInspector(p.Dir, logger)
		if err := ins.Load(ctx, cfg.Sources.Go...); err != nil {
			return nil, err
		}
		defs, err := ins.SumTypes()
		if err != nil {
			return nil, err
		}
		p.Definitions = append(p.Definitions, defs...)
		registry = registry.With(ins.Blueprints()...)
		oracles = append(oracles, ins.Oracle())
		p.Inputs = append(p.Inputs, ins.Files()...)
	}

	for _, file := range cfg.Sources.Rust {
		rustPath := p.resolve(file)
		f, err := rustsrc.ParseFile(ctx, rustPath, logger)
		if err != nil {
			return nil, err
		}
		p.Definitions = append(p.Definitions, f.Definitions...)
		registry = registry.With(f.Traits...)
		oracles = append(oracles, f.Facts)
		fingerprint = append(fingerprint, f.Facts.String())
		p.Inputs = append(p.Inputs, rustPath)
	}

	for _, ps := range cfg.Sources.Proto {
		loader := &protosrc.Loader{Logger: logger}
		for _, ip := range ps.ImportPaths {
			loader.ImportPaths = append(loader.ImportPaths, p.resolve(ip))
		}
		oneofs := make(map[string]protosrc.Oneof, len(ps.Oneofs))
		for name, o := range ps.Oneofs {
			oneofs[name] = protosrc.Oneof{Pattern: o.Pattern, Derives: deriveSpecs(o.Derive)}
		}
		defs, err := loader.Load([]string{ps.File}, oneofs)
		if err != nil {
			return nil, fmt.Errorf("%s: sources.proto %s: %w", path, ps.File, err)
		}
		p.Definitions = append(p.Definitions, defs...)
		p.Inputs = append(p.Inputs, p.resolve(filepath.Join(ps.ImportPaths[0], ps.File)))
	}

	bps, err := cfg.blueprints()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Registry = registry.With(bps...)

	for _, es := range cfg.Enums {
		def, err := es.definition(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		p.Definitions = append(p.Definitions, def)
	}

	p.Oracle = oracle.Chain(oracles...)
	if cfg.Oracle.Cache != "" {
		cache, err := oracle.OpenCache(p.resolve(cfg.Oracle.Cache), p.Oracle, strings.Join(fingerprint, "\x00"), logger)
		if err != nil {
			return nil, err
		}
		p.cache = cache
		p.Oracle = cache
	}

	p.Defaults = defaults.Standard()
	if cfg.Output.Dialect == config.DialectGo {
		p.Defaults = defaults.Go()
	}

	p.logger.Debug("project opened",
		zap.String("path", path),
		zap.Int("enums", len(p.Definitions)),
		zap.Int("inputs", len(p.Inputs)),
		zap.String("dialect", cfg.Output.Dialect))
	return p, nil
}

// Close releases the oracle cache, if any.
func (p *Project) Close() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Close()
}

// Engine returns an engine wired to the project's registry, oracle and
// defaults.
func (p *Project) Engine() *pipeline.Engine {
	return pipeline.NewEngine(
		pipeline.WithRegistry(p.Registry),
		pipeline.WithOracle(p.Oracle),
		pipeline.WithDefaults(p.Defaults),
		pipeline.WithLogger(p.logger),
		pipeline.WithLint(p.Config.LintEnabled()),
	)
}

func (p *Project) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(p.Dir, file)
}

func (c *Config) blueprints() ([]*traits.Blueprint, error) {
	bps := make([]*traits.Blueprint, 0, len(c.Traits))
	for i, t := range c.Traits {
		bp, err := parser.ParseTrait(t.rustSource())
		if err != nil {
			return nil, fmt.Errorf("traits[%d]: %w", i, err)
		}
		bps = append(bps, bp)
	}
	return bps, nil
}

// rustSource spells a structured trait as a trait definition.
func (t TraitSpec) rustSource() string {
	if t.Source != "" {
		return t.Source
	}
	var b strings.Builder
	b.WriteString("trait " + t.Name)
	if len(t.Params) > 0 {
		b.WriteString("<" + strings.Join(t.Params, ", ") + ">")
	}
	b.WriteString(" {\n")
	for _, a := range t.Assoc {
		b.WriteString("    type " + a + ";\n")
	}
	for _, m := range t.Methods {
		var params []string
		if m.Receiver != "none" {
			params = append(params, m.Receiver)
		}
		params = append(params, m.Params...)
		fmt.Fprintf(&b, "    fn %s(%s)", m.Name, strings.Join(params, ", "))
		if m.Return != "" {
			b.WriteString(" -> " + m.Return)
		}
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

func (e EnumSpec) definition(path string) (*subject.Definition, error) {
	enum := &subject.Enum{Name: e.Name, Generics: e.Generics}
	for _, vs := range e.Variants {
		v, err := vs.variant()
		if err != nil {
			return nil, fmt.Errorf("enum %s: variant %s: %w", e.Name, vs.Name, err)
		}
		enum.Variants = append(enum.Variants, v)
	}
	return &subject.Definition{
		Enum:    enum,
		Pattern: e.Pattern,
		Derives: deriveSpecs(e.Derive),
		Origin:  "config",
		File:    path,
		Emit:    true,
	}, nil
}

func (vs VariantSpec) variant() (subject.Variant, error) {
	var v subject.Variant
	switch {
	case len(vs.Named) > 0:
		fields := make([]subject.Field, len(vs.Named))
		for i, f := range vs.Named {
			name, typ, _ := strings.Cut(f, ":")
			t, err := parser.ParseType(strings.TrimSpace(typ))
			if err != nil {
				return subject.Variant{}, fmt.Errorf("field %s: %w", strings.TrimSpace(name), err)
			}
			fields[i] = subject.Field{Name: strings.TrimSpace(name), Type: t}
		}
		v = subject.Struct(vs.Name, fields...)
	case len(vs.Fields) > 0:
		types := make([]typesystem.Type, len(vs.Fields))
		for i, f := range vs.Fields {
			t, err := parser.ParseType(f)
			if err != nil {
				return subject.Variant{}, fmt.Errorf("field %d: %w", i, err)
			}
			types[i] = t
		}
		v = subject.Tuple(vs.Name, types...)
	default:
		v = subject.Unit(vs.Name)
	}
	if vs.Expr != "" {
		v = v.WithDiscriminant(vs.Expr)
	}
	return v, nil
}

func deriveSpecs(ds []DeriveSpec) []subject.DeriveSpec {
	if len(ds) == 0 {
		return nil
	}
	out := make([]subject.DeriveSpec, len(ds))
	for i, d := range ds {
		out[i] = subject.DeriveSpec{Trait: d.Trait, Target: d.Target}
	}
	return out
}
