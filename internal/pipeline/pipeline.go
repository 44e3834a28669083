// Package pipeline runs the checking stages for one sum type: parse,
// validate, prepare dispatch targets, match, verify and synthesize.
package pipeline

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Non-fatal diagnostics accumulate across stages
// so structural and predicate errors are reported together; a fatal one
// stops the run at the stage that raised it.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		if ctx.Halted() {
			break
		}
	}
	return ctx
}
