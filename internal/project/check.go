package project

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/sumshape/internal/config"
	"github.com/funvibe/sumshape/internal/derive"
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/pipeline"
	"github.com/funvibe/sumshape/internal/render"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Report is the outcome for one definition.
type Report struct {
	Definition  *subject.Definition
	Result      *pipeline.Result
	Derivations []*derive.Derivation
	// Err holds derivation errors; engine findings are in Result.
	Err error
}

// Failed reports whether the definition produced any error.
func (r *Report) Failed() bool {
	return r.Err != nil || r.Result.Diagnostics.HasErrors()
}

// Check runs every definition through the engine. Definitions are
// independent and checked concurrently; reports keep definition order.
func (p *Project) Check(ctx context.Context) ([]*Report, error) {
	eng := p.Engine()
	reports := make([]*Report, len(p.Definitions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, def := range p.Definitions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = check(eng, def)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	p.logger.Info("check finished",
		zap.Int("enums", len(reports)),
		zap.Int("failed", failed))
	return reports, nil
}

func check(eng *pipeline.Engine, def *subject.Definition) *Report {
	r := &Report{Definition: def}
	enum := def.Enum

	var errs []error
	for _, ds := range def.Derives {
		d, err := derivation(def.Enum, ds)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", def.Position(), err))
			continue
		}
		r.Derivations = append(r.Derivations, d)
		// The fallback variant is not part of the checked enum.
		enum = d.Enum
	}
	r.Err = errors.Join(errs...)

	if _, ok := enum.Variant(config.DefaultVariantName); ok && len(def.Derives) == 0 {
		enum = stripDefault(enum)
	}

	r.Result = eng.RunPattern(enum, def.Pattern)
	attribute(r.Result.Diagnostics, def)
	return r
}

func derivation(e *subject.Enum, ds subject.DeriveSpec) (*derive.Derivation, error) {
	kind, err := derive.ParseKind(ds.Trait)
	if err != nil {
		return nil, err
	}
	var target typesystem.Type
	if ds.Target != "" {
		target, err = parser.ParseType(ds.Target)
		if err != nil {
			return nil, fmt.Errorf("derive %s: target: %w", ds.Trait, err)
		}
	}
	return derive.Derive(e, kind, target)
}

func stripDefault(e *subject.Enum) *subject.Enum {
	out := &subject.Enum{Name: e.Name, Module: e.Module, Generics: e.Generics}
	for _, v := range e.Variants {
		if v.Name() != config.DefaultVariantName {
			out.Variants = append(out.Variants, v)
		}
	}
	return out
}

// attribute points unattributed findings at the definition's position.
// Pattern text positions mean nothing outside the pattern, so they are
// replaced.
func attribute(s *diagnostics.Set, def *subject.Definition) {
	for _, d := range s.Items() {
		if d.File != "" {
			continue
		}
		d.File, d.Line, d.Column = def.File, def.Line, 0
	}
}

// Diagnostics merges the engine findings of every report.
func Diagnostics(reports []*Report) *diagnostics.Set {
	all := diagnostics.NewSet()
	for _, r := range reports {
		all.Merge(r.Result.Diagnostics)
	}
	return all
}

// Generate renders the impls and derivations of every report in the
// configured dialect. It refuses to render when any report failed.
func (p *Project) Generate(reports []*Report) (string, error) {
	var failed []error
	items := make([]render.Item, 0, len(reports))
	for _, r := range reports {
		if r.Err != nil {
			failed = append(failed, r.Err)
		}
		if err := r.Result.Err(); err != nil {
			failed = append(failed, err)
		}
		if len(failed) > 0 {
			continue
		}
		items = append(items, render.Item{
			Enum:            r.Result.Enum,
			EmitEnum:        r.Definition.Emit,
			Assertions:      r.Result.Assertions,
			Impls:           r.Result.Impls,
			Derivations:     r.Derivations,
			PointerVariants: r.Definition.PointerVariants,
		})
	}
	if len(failed) > 0 {
		return "", fmt.Errorf("refusing to generate:\n%w", errors.Join(failed...))
	}

	out := p.Config.Output
	switch out.Dialect {
	case config.DialectGo:
		return render.Go(out.Package, out.PackagePath, items)
	default:
		return render.Rust(items)
	}
}
