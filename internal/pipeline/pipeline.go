package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/phishscan/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the session
// advanced by the previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state (engine, classifier, presenter)
// 2. It provides a Name() method for logging and for the performed steps list
// 3. Tests can replace a single stage with a stub
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the session to advance.
	// Returns an error if the step fails critically; non-critical errors
	// (for example an unreachable classifier) are recorded in the session,
	// which is settled, and nil is returned.
	Do(ctx context.Context, session *model.Session) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
// A Pipeline holds no per-session state, so one instance can run many
// sessions concurrently.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
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

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails critically. The default is to stop, because a
// critical failure means the session is not in the state later steps expect.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
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

// Execute runs the pipeline steps on a session until the session reaches a
// terminal state or the steps run out.
//
// Design decision: We check context.Done() before each step rather than
// during, because steps handle their own timeouts (the classifier call is
// bounded by its client). A cancelled session is settled so it never stays
// half-way through the state machine.
//
// Returns the first critical error if continueOnError is false. The error is
// also recorded in the session, which is settled.
func (p *Pipeline) Execute(ctx context.Context, session *model.Session) error {
	for _, step := range p.steps {
		if session.State().IsTerminal() {
			break
		}

		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"session", session.ID(),
				"reason", ctx.Err(),
			)
			session.RecordError(ctx.Err())
			session.Settle()
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"session", session.ID(),
			"tab", session.TabID(),
		)

		if err := step.Do(ctx, session); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"session", session.ID(),
				"error", err,
			)

			session.RecordError(err)

			if !p.continueOnError {
				session.Settle()
				return err
			}
		}

		session.RecordStep(step.Name())
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
