package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/reqflow/pkg/api"
)

// runnerImpl is a synchronous, in-process runner. It owns the execution
// position of one session and is not safe for concurrent use.
type runnerImpl struct {
	id    string
	model *api.Model
	steps []*api.Step
	actor *api.Actor

	// latest is the step the runner is positioned at, nil before any step ran.
	latest *api.Step
	// next is a step made reachable by ContinuesAt, until the next step runs.
	next *api.Step
	// withoutAlternative suppresses flows positioned instead of next.
	withoutAlternative bool

	stopped   bool
	executing *api.Step

	stepHandler      api.StepHandler
	unhandledHandler api.UnhandledHandler
	publishHandler   api.PublishHandler

	observer         api.Observer
	redispatchErrors bool
	maxCascadeSteps  int
}

// Config describes how to construct a runner.
type Config struct {
	Observer api.Observer

	// RedispatchErrors delivers a failed reaction's error as a message when
	// some step accepts it, instead of returning it to the caller.
	RedispatchErrors bool

	// MaxCascadeSteps bounds the autonomous steps one cascade may run without
	// a message being handled in between. Zero means no bound, which leaves
	// cycles of two or more steps to guards or the context.
	MaxCascadeSteps int
}

// NewRunner returns a runner for model with no observer.
func NewRunner(model *api.Model) api.Runner {
	return NewRunnerWithConfig(model, Config{})
}

// NewRunnerWithConfig returns a runner for model using the given configuration.
func NewRunnerWithConfig(model *api.Model, cfg Config) api.Runner {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	return &runnerImpl{
		id:               uuid.NewString(),
		model:            model,
		steps:            model.Steps(),
		actor:            model.UserActor(),
		observer:         obs,
		redispatchErrors: cfg.RedispatchErrors,
		maxCascadeSteps:  cfg.MaxCascadeSteps,
	}
}

func (r *runnerImpl) ID() string        { return r.id }
func (r *runnerImpl) Model() *api.Model { return r.model }
func (r *runnerImpl) Actor() *api.Actor { return r.actor }
func (r *runnerImpl) IsStopped() bool   { return r.stopped }
func (r *runnerImpl) Stop()             { r.stopped = true }

func (r *runnerImpl) As(actor *api.Actor) api.Runner {
	if actor == nil {
		actor = r.model.UserActor()
	}
	r.actor = actor
	return r
}

func (r *runnerImpl) HandleWith(h api.StepHandler) api.Runner {
	r.stepHandler = h
	return r
}

func (r *runnerImpl) HandleUnhandledWith(h api.UnhandledHandler) api.Runner {
	r.unhandledHandler = h
	return r
}

func (r *runnerImpl) PublishWith(h api.PublishHandler) api.Runner {
	r.publishHandler = h
	return r
}

func (r *runnerImpl) LatestStep() *api.Step {
	return r.latest
}

func (r *runnerImpl) Position() (string, bool) {
	if r.latest == nil {
		return "", false
	}
	return r.latest.Name(), true
}

func (r *runnerImpl) Run(ctx context.Context) error {
	r.latest = nil
	r.next = nil
	r.withoutAlternative = false
	r.stopped = false
	r.observer.OnRunStart(ctx, r.id)

	_, err := r.cascade(ctx)
	if err != nil {
		return err
	}
	if r.stopped {
		r.observer.OnStopped(ctx, r.id)
	}
	return nil
}

func (r *runnerImpl) ReactTo(ctx context.Context, messages ...any) (any, error) {
	if r.stopped {
		return nil, nil
	}

	var result any
	for _, msg := range messages {
		res, err := r.deliver(ctx, msg)
		if err != nil {
			return nil, err
		}
		if r.stopped {
			r.observer.OnStopped(ctx, r.id)
			return nil, nil
		}
		if res != nil {
			result = res
		}
	}
	return result, nil
}

// deliver handles one external message: the step it selects, every value
// published along the way, then the autonomous cascade.
func (r *runnerImpl) deliver(ctx context.Context, msg any) (any, error) {
	result, handled, err := r.drain(ctx, msg)
	if err != nil || r.stopped || !handled {
		return nil, err
	}

	res, err := r.cascade(ctx)
	if err != nil {
		return nil, err
	}
	if res != nil {
		result = res
	}
	return result, nil
}

// drain delivers msg and every value published in reaction to it, in FIFO
// order. handled reports whether msg itself was accepted by a step.
func (r *runnerImpl) drain(ctx context.Context, msg any) (result any, handled bool, err error) {
	queue := []any{msg}
	for i := 0; len(queue) > 0; i++ {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if r.stopped {
			return nil, false, nil
		}

		m := queue[0]
		queue = queue[1:]

		step := r.selectStep(m)
		if step == nil {
			r.unhandled(ctx, m)
			continue
		}
		if i == 0 {
			handled = true
		}

		published, _, err := r.execute(ctx, step, m)
		if err != nil {
			if r.canRedispatch(err) {
				queue = append(queue, err)
				continue
			}
			return nil, false, err
		}
		if published != nil {
			result = published
			queue = append(queue, published)
		}
	}
	return result, handled, nil
}

// cascade runs autonomous steps until none is reachable.
func (r *runnerImpl) cascade(ctx context.Context) (any, error) {
	var (
		result any
		last   *api.Step
		run    int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.stopped {
			return nil, nil
		}

		step := r.selectStep(nil)
		if step == nil {
			return result, nil
		}
		if step == last {
			return nil, fmt.Errorf("%w: %s", api.ErrLivelock, step)
		}
		if r.maxCascadeSteps > 0 && run >= r.maxCascadeSteps {
			return nil, fmt.Errorf("%w: %s after %d autonomous steps", api.ErrLivelock, step, run)
		}
		last = step
		run++

		published, ran, err := r.execute(ctx, step, nil)
		redeliver := published
		if err != nil {
			if !r.canRedispatch(err) {
				return nil, err
			}
			redeliver = err
		} else if published != nil {
			result = published
		}
		if !ran {
			// The step handler declined; nothing moved.
			return result, nil
		}
		if redeliver == nil {
			continue
		}

		res, handled, err := r.drain(ctx, redeliver)
		if err != nil {
			return nil, err
		}
		if handled {
			last = nil
			run = 0
		}
		if res != nil {
			result = res
		}
	}
}

// execute runs step through the step handler and returns what it published.
func (r *runnerImpl) execute(ctx context.Context, step *api.Step, msg any) (published any, ran bool, err error) {
	rctx := api.WithRunner(ctx, r)
	ev := api.StepEvent{
		RunnerID: r.id,
		Step:     step,
		Actor:    r.actor,
		Message:  msg,
	}

	toRun := api.NewStepToRun(step, msg, func() (any, error) {
		// Position first, so the reaction may reposition the runner.
		r.latest = step
		r.next = nil
		r.withoutAlternative = false

		prev := r.executing
		r.executing = step
		defer func() { r.executing = prev }()

		r.observer.OnStepStart(rctx, ev)
		start := time.Now()
		res, err := step.Reaction()(rctx, msg)
		r.observer.OnStepCompleted(rctx, ev, err, time.Since(start))
		return res, err
	})

	handler := r.stepHandler
	if handler == nil {
		handler = runStep
	}
	if err := handler(rctx, toRun); err != nil {
		return nil, toRun.Ran(), err
	}
	if !toRun.Ran() || r.stopped {
		return nil, toRun.Ran(), nil
	}

	res := toRun.Result()
	if res != nil {
		p := api.Publication{Value: res, From: step, To: step.PublishTo()}
		r.observer.OnPublished(rctx, r.id, p)
		if r.publishHandler != nil {
			r.publishHandler(rctx, p)
		}
	}
	return res, true, nil
}

func runStep(ctx context.Context, step *api.StepToRun) error {
	return step.Run()
}

func (r *runnerImpl) unhandled(ctx context.Context, msg any) {
	r.observer.OnUnhandled(ctx, r.id, msg)
	if r.unhandledHandler != nil {
		r.unhandledHandler(ctx, msg)
	}
}

func (r *runnerImpl) canRedispatch(err error) bool {
	if !r.redispatchErrors || r.stopped {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return r.selectStep(err) != nil
}

func (r *runnerImpl) ContinuesAfter(stepName string) error {
	step, err := r.lookup(stepName)
	if err != nil {
		return err
	}
	r.latest = step
	r.next = nil
	r.withoutAlternative = false
	return nil
}

func (r *runnerImpl) ContinuesAt(stepName string) error {
	return r.continueAt(stepName, false)
}

func (r *runnerImpl) ContinuesWithoutAlternativeAt(stepName string) error {
	return r.continueAt(stepName, true)
}

func (r *runnerImpl) continueAt(stepName string, withoutAlternative bool) error {
	step, err := r.lookup(stepName)
	if err != nil {
		return err
	}
	r.latest = step.Previous()
	r.next = step
	r.withoutAlternative = withoutAlternative
	return nil
}

// lookup finds a step in the current use case: the one of the executing
// step, else of the latest step. A runner that has not run any step yet
// searches all use cases in registration order.
func (r *runnerImpl) lookup(stepName string) (*api.Step, error) {
	current := r.executing
	if current == nil {
		current = r.latest
	}
	if current != nil {
		return current.UseCase().Step(stepName)
	}
	for _, uc := range r.model.UseCases() {
		if uc.HasStep(stepName) {
			return uc.Step(stepName)
		}
	}
	return nil, fmt.Errorf("%w: step %q", api.ErrNoSuchElementInModel, stepName)
}
