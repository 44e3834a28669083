package pipeline

import (
	"go.uber.org/zap"

	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/matcher"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/verify"
)

// Processor is one stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the inputs of one run and what each stage
// produced.
type PipelineContext struct {
	// Inputs
	Enum     *subject.Enum
	Source   string // pattern text; parsed when Pattern is nil
	Pattern  *shape.PatternSet
	Registry *traits.Registry
	Oracle   oracle.Oracle
	Defaults *defaults.Table
	Logger   *zap.Logger

	// Outputs
	Targets     []dispatch.Target
	Matches     []matcher.Result
	Assertions  []verify.Assertion
	Impls       []*dispatch.Impl
	Diagnostics *diagnostics.Set
}

// Halted reports whether a fatal diagnostic has been raised.
func (ctx *PipelineContext) Halted() bool {
	return ctx.Diagnostics.Fatal() != nil
}

func (ctx *PipelineContext) enumName() string {
	if ctx.Enum == nil {
		return ""
	}
	return ctx.Enum.Name
}

func (ctx *PipelineContext) log() *zap.Logger {
	if ctx.Logger == nil {
		return zap.NewNop()
	}
	return ctx.Logger
}
