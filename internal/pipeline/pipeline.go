package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/locshare/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the lookup as
// left by the previous steps.
type Step interface {
	// Do executes the step. A returned error aborts the lookup.
	Do(ctx context.Context, lookup *model.Lookup) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
//
// Cancellation is checked before each step; steps handle their own
// timeouts. The first error stops the run, is recorded on the lookup and
// returned. FinishedAt is set in every case.
func (p *Pipeline) Execute(ctx context.Context, lookup *model.Lookup) error {
	defer func() {
		lookup.FinishedAt = time.Now()
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"lookup_id", lookup.ID,
				"reason", ctx.Err(),
			)
			lookup.Fail(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"lookup_id", lookup.ID,
		)

		lookup.PerformedSteps = append(lookup.PerformedSteps, step.Name())

		if err := step.Do(ctx, lookup); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"lookup_id", lookup.ID,
				"error", err,
			)
			lookup.Fail(err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"lookup_id", lookup.ID,
		)
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
