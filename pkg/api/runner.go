package api

import "context"

// Runner drives a Model by reacting to messages. A Runner is not safe for
// concurrent use; create one per execution session.
type Runner interface {
	// ID uniquely identifies the runner, for logs and step history.
	ID() string

	// Model returns the model the runner executes.
	Model() *Model

	// As sets the actor that triggers subsequent steps.
	As(actor *Actor) Runner

	// Actor returns the current actor.
	Actor() *Actor

	// Run resets the position, clears a previous Stop and runs every
	// autonomous step reachable without a message.
	Run(ctx context.Context) error

	// ReactTo delivers the messages one after another. It returns the last
	// value published while handling them, or nil.
	ReactTo(ctx context.Context, messages ...any) (any, error)

	// Stop halts the current call at its next checkpoint. A stopped runner
	// ignores messages until Run is called again.
	Stop()

	// IsStopped reports whether Stop was called since the last Run.
	IsStopped() bool

	// ContinuesAfter moves the position to the named step, as if it had
	// just run.
	ContinuesAfter(stepName string) error

	// ContinuesAt moves the position so that the named step is next in
	// sequence. Flows positioned instead of it still take precedence.
	ContinuesAt(stepName string) error

	// ContinuesWithoutAlternativeAt is ContinuesAt, but the named step runs
	// next even if a flow positioned instead of it is enabled.
	ContinuesWithoutAlternativeAt(stepName string) error

	// HandleWith replaces the step handler. Nil restores the default, which
	// runs every step.
	HandleWith(h StepHandler) Runner

	// HandleUnhandledWith replaces the handler for messages no step accepts.
	HandleUnhandledWith(h UnhandledHandler) Runner

	// PublishWith replaces the handler that sees each published value.
	PublishWith(h PublishHandler) Runner

	// LatestStep returns the step the runner is positioned at, or nil.
	LatestStep() *Step

	// Position returns the name of the latest step, if any.
	Position() (string, bool)
}

// StepHandler intercepts every step about to run. It runs the step by
// calling Run; if it never does, the step is skipped and the runner stays
// where it was.
type StepHandler func(ctx context.Context, step *StepToRun) error

// UnhandledHandler receives messages that no step accepted.
type UnhandledHandler func(ctx context.Context, msg any)

// PublishHandler observes every value published by a reaction, before the
// runner delivers it.
type PublishHandler func(ctx context.Context, p Publication)

// Publication is a value produced by a reaction.
type Publication struct {
	Value any
	From  *Step
	To    *Actor
}

// StepToRun describes the step the runner selected.
type StepToRun struct {
	Step       *Step
	Message    any
	HasMessage bool

	run    func() error
	ran    bool
	result any
}

// NewStepToRun prepares step for execution. run executes the step and
// returns its published result.
func NewStepToRun(step *Step, msg any, run func() (any, error)) *StepToRun {
	s := &StepToRun{
		Step:       step,
		Message:    msg,
		HasMessage: msg != nil,
	}
	s.run = func() error {
		res, err := run()
		s.result = res
		return err
	}
	return s
}

func (s *StepToRun) StepName() string   { return s.Step.Name() }
func (s *StepToRun) Guard() Condition   { return s.Step.Guard() }
func (s *StepToRun) Reaction() Reaction { return s.Step.Reaction() }

// Run executes the step. Calling it more than once has no further effect.
func (s *StepToRun) Run() error {
	if s.ran {
		return nil
	}
	s.ran = true
	return s.run()
}

// Ran reports whether Run was called.
func (s *StepToRun) Ran() bool { return s.ran }

// Result returns the value the reaction produced, nil if none.
func (s *StepToRun) Result() any { return s.result }

type runnerKey struct{}

// WithRunner returns a context carrying r. The runner attaches itself to
// the context of every reaction it executes.
func WithRunner(ctx context.Context, r Runner) context.Context {
	return context.WithValue(ctx, runnerKey{}, r)
}

// RunnerFromContext returns the runner executing the current reaction.
func RunnerFromContext(ctx context.Context) (Runner, bool) {
	r, ok := ctx.Value(runnerKey{}).(Runner)
	return r, ok
}
