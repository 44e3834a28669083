package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/traits/stdlib"
	"github.com/funvibe/sumshape/internal/verify"
)

// Result is the outcome of checking one sum type. Impls is empty whenever
// Diagnostics holds an error.
type Result struct {
	Enum        *subject.Enum
	Impls       []*dispatch.Impl
	Assertions  []verify.Assertion
	Diagnostics *diagnostics.Set
}

// Err returns the diagnostics as an error when any of them is an error.
func (r *Result) Err() error {
	return r.Diagnostics.Err()
}

// Engine holds the read-only collaborators shared by every run. It is safe
// for concurrent use as long as its oracle is.
type Engine struct {
	registry *traits.Registry
	oracle   oracle.Oracle
	table    *defaults.Table
	logger   *zap.Logger
	lint     bool
}

type Option func(*Engine)

func WithRegistry(r *traits.Registry) Option { return func(e *Engine) { e.registry = r } }
func WithOracle(o oracle.Oracle) Option      { return func(e *Engine) { e.oracle = o } }
func WithDefaults(t *defaults.Table) Option  { return func(e *Engine) { e.table = t } }
func WithLogger(l *zap.Logger) Option        { return func(e *Engine) { e.logger = l } }

// WithLint toggles S004/S009 lint diagnostics. On by default.
func WithLint(on bool) Option { return func(e *Engine) { e.lint = on } }

// NewEngine defaults to the standard registry, the standard oracle and the
// standard defaults table.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: stdlib.Registry(),
		oracle:   oracle.Std(),
		table:    defaults.Standard(),
		logger:   zap.NewNop(),
		lint:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run checks e against set.
func (e *Engine) Run(enum *subject.Enum, set *shape.PatternSet) *Result {
	return e.run(&PipelineContext{Enum: enum, Pattern: set})
}

// RunPattern parses src and checks enum against it.
func (e *Engine) RunPattern(enum *subject.Enum, src string) *Result {
	return e.run(&PipelineContext{Enum: enum, Source: src})
}

func (e *Engine) run(ctx *PipelineContext) *Result {
	ctx.Registry = e.registry
	ctx.Oracle = e.oracle
	ctx.Defaults = e.table
	ctx.Logger = e.logger
	ctx.Diagnostics = diagnostics.NewSet()

	p := New(
		ParseProcessor{},
		ValidateProcessor{},
		PrepareProcessor{},
		MatchProcessor{Lint: e.lint},
		VerifyProcessor{},
		SynthesizeProcessor{},
	)
	ctx = p.Run(ctx)

	diags := ctx.Diagnostics
	if !e.lint {
		diags = dropLint(diags)
	}
	diags.SetEnum(ctx.enumName())

	e.logger.Debug("enum checked",
		zap.String("enum", ctx.enumName()),
		zap.Int("impls", len(ctx.Impls)),
		zap.Int("diagnostics", diags.Len()),
		zap.Bool("failed", diags.HasErrors()))

	return &Result{
		Enum:        ctx.Enum,
		Impls:       ctx.Impls,
		Assertions:  ctx.Assertions,
		Diagnostics: diags,
	}
}

func dropLint(s *diagnostics.Set) *diagnostics.Set {
	out := diagnostics.NewSet()
	for _, d := range s.Items() {
		if d.Code != diagnostics.ErrS004 && d.Code != diagnostics.ErrS009 {
			out.Add(d)
		}
	}
	return out
}
