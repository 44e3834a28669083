package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/matcher"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/verify"
)

// ParseProcessor parses ctx.Source when no pattern was supplied.
type ParseProcessor struct{}

func (ParseProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Pattern != nil {
		return ctx
	}
	set, diags := parser.ParsePattern(ctx.Source)
	ctx.Diagnostics.Merge(diags)
	ctx.Pattern = set
	if set == nil && !ctx.Halted() {
		ctx.Diagnostics.Add(diagnostics.New(diagnostics.ErrS010, "empty pattern"))
	}
	return ctx
}

// ValidateProcessor checks the pattern and the enum before anything is
// matched.
type ValidateProcessor struct{}

func (ValidateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Diagnostics.Merge(shape.Validate(ctx.Pattern))
	if ctx.Enum == nil || len(ctx.Enum.Variants) == 0 {
		ctx.Diagnostics.Add(diagnostics.NewEmptySubject(ctx.enumName()))
		return ctx
	}
	if err := ctx.Enum.Check(); err != nil {
		ctx.Diagnostics.Add(diagnostics.New(diagnostics.ErrS010, err.Error()))
	}
	return ctx
}

// PrepareProcessor resolves dispatch bounds against the trait registry.
type PrepareProcessor struct{}

func (PrepareProcessor) Process(ctx *PipelineContext) *PipelineContext {
	targets, diags := dispatch.Prepare(ctx.Pattern, ctx.Registry)
	ctx.Diagnostics.Merge(diags)
	ctx.Targets = targets
	return ctx
}

// MatchProcessor assigns every variant to a fragment.
type MatchProcessor struct {
	// Lint enables S009 overlap warnings.
	Lint bool
}

func (p MatchProcessor) Process(ctx *PipelineContext) *PipelineContext {
	ctx.Matches = matcher.MatchAll(ctx.Enum, ctx.Pattern, ctx.Oracle)
	for _, r := range ctx.Matches {
		if !r.Matched() {
			ctx.Diagnostics.Add(r.Mismatch(ctx.Enum.Name))
			continue
		}
		ctx.log().Debug("variant matched",
			zap.String("enum", ctx.Enum.Name),
			zap.String("variant", r.Variant.Name()),
			zap.Int("fragment", r.Fragment),
			zap.Strings("bound", r.Subst.Keys()))
		if p.Lint {
			ctx.Diagnostics.Add(matcher.Overlaps(ctx.Enum.Name, r, ctx.Pattern, ctx.Oracle))
		}
	}
	return ctx
}

// VerifyProcessor checks the where clause for every matched variant.
type VerifyProcessor struct{}

func (VerifyProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, r := range ctx.Matches {
		if !r.Matched() {
			continue
		}
		for _, d := range verify.Verify(r.Variant, r.Subst, ctx.Pattern, ctx.Oracle) {
			d.Enum = ctx.Enum.Name
			ctx.Diagnostics.Add(d)
		}
		ctx.Assertions = append(ctx.Assertions, verify.Assertions(r.Variant, r.Subst, ctx.Pattern)...)
	}
	return ctx
}

// SynthesizeProcessor builds an impl per dispatch target. It only runs on a
// clean slate: any earlier error means no impls.
type SynthesizeProcessor struct{}

func (SynthesizeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Diagnostics.HasErrors() {
		return ctx
	}
	for _, target := range ctx.Targets {
		impl, err := dispatch.Synthesize(ctx.Enum, target, ctx.Matches, ctx.Defaults, ctx.Oracle)
		if err != nil {
			if set, ok := err.(*diagnostics.Set); ok {
				ctx.Diagnostics.Merge(set)
			} else {
				ctx.Diagnostics.Add(diagnostics.New(diagnostics.ErrS006, err.Error()))
			}
			continue
		}
		ctx.log().Debug("impl synthesized",
			zap.String("enum", ctx.Enum.Name),
			zap.String("bound", impl.Bound.String()),
			zap.Stringer("id", impl.ID))
		ctx.Impls = append(ctx.Impls, impl)
	}
	if ctx.Diagnostics.HasErrors() {
		ctx.Impls = nil
	}
	return ctx
}
