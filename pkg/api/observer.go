package api

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// StepEvent describes a step execution reported to an Observer.
type StepEvent struct {
	RunnerID string
	Step     *Step
	Actor    *Actor
	Message  any
}

// Observer receives callbacks from a runner for logging and metrics.
//
// Implementations should be fast; they run synchronously inside ReactTo.
type Observer interface {
	// OnRunStart is called each time Run resets the runner.
	OnRunStart(ctx context.Context, runnerID string)

	// OnStepStart is called right before a step's reaction is invoked.
	OnStepStart(ctx context.Context, ev StepEvent)

	// OnStepCompleted is called after a reaction returns, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, ev StepEvent, err error, duration time.Duration)

	// OnUnhandled is called for messages no step accepted.
	OnUnhandled(ctx context.Context, runnerID string, msg any)

	// OnPublished is called for every published value.
	OnPublished(ctx context.Context, runnerID string, p Publication)

	// OnStopped is called when a call ends early because of Stop.
	OnStopped(ctx context.Context, runnerID string)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, runnerID string)                               {}
func (NoopObserver) OnStepStart(ctx context.Context, ev StepEvent)                                 {}
func (NoopObserver) OnStepCompleted(ctx context.Context, ev StepEvent, err error, d time.Duration) {}
func (NoopObserver) OnUnhandled(ctx context.Context, runnerID string, msg any)                     {}
func (NoopObserver) OnPublished(ctx context.Context, runnerID string, p Publication)               {}
func (NoopObserver) OnStopped(ctx context.Context, runnerID string)                                {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, runnerID string) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, runnerID)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, ev StepEvent) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, ev)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, ev StepEvent, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, ev, err, d)
	}
}

func (c *CompositeObserver) OnUnhandled(ctx context.Context, runnerID string, msg any) {
	for _, o := range c.observers {
		o.OnUnhandled(ctx, runnerID, msg)
	}
}

func (c *CompositeObserver) OnPublished(ctx context.Context, runnerID string, p Publication) {
	for _, o := range c.observers {
		o.OnPublished(ctx, runnerID, p)
	}
}

func (c *CompositeObserver) OnStopped(ctx context.Context, runnerID string) {
	for _, o := range c.observers {
		o.OnStopped(ctx, runnerID)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs runner and step events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, runnerID string) {
	o.Logger.InfoContext(ctx, "runner_started",
		slog.String("runner_id", runnerID),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, ev StepEvent) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("runner_id", ev.RunnerID),
		slog.String("use_case", ev.Step.UseCase().Name()),
		slog.String("step", ev.Step.Name()),
		slog.String("actor", ev.Actor.Name()),
		slog.String("message_type", MessageTypeOf(ev.Message).String()),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, ev StepEvent, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("runner_id", ev.RunnerID),
		slog.String("use_case", ev.Step.UseCase().Name()),
		slog.String("step", ev.Step.Name()),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnUnhandled(ctx context.Context, runnerID string, msg any) {
	o.Logger.InfoContext(ctx, "message_unhandled",
		slog.String("runner_id", runnerID),
		slog.String("message_type", MessageTypeOf(msg).String()),
	)
}

func (o *LoggingObserver) OnPublished(ctx context.Context, runnerID string, p Publication) {
	o.Logger.DebugContext(ctx, "value_published",
		slog.String("runner_id", runnerID),
		slog.String("step", p.From.Name()),
		slog.String("to", p.To.Name()),
		slog.String("value_type", MessageTypeOf(p.Value).String()),
	)
}

func (o *LoggingObserver) OnStopped(ctx context.Context, runnerID string) {
	o.Logger.InfoContext(ctx, "runner_stopped",
		slog.String("runner_id", runnerID),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	runs              atomic.Int64
	stepsCompleted    atomic.Int64
	stepsFailed       atomic.Int64
	unhandled         atomic.Int64
	published         atomic.Int64
	stops             atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Runs           int64
	StepsCompleted int64
	StepsFailed    int64
	Unhandled      int64
	Published      int64
	Stops          int64

	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, runnerID string) {
	m.runs.Add(1)
}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, ev StepEvent, err error, d time.Duration) {
	// Only successful steps count towards the average duration.
	if err != nil {
		m.stepsFailed.Add(1)
		return
	}
	m.stepsCompleted.Add(1)
	m.totalStepDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnUnhandled(ctx context.Context, runnerID string, msg any) {
	m.unhandled.Add(1)
}

func (m *BasicMetrics) OnPublished(ctx context.Context, runnerID string, p Publication) {
	m.published.Add(1)
}

func (m *BasicMetrics) OnStopped(ctx context.Context, runnerID string) {
	m.stops.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		Runs:            m.runs.Load(),
		StepsCompleted:  steps,
		StepsFailed:     m.stepsFailed.Load(),
		Unhandled:       m.unhandled.Load(),
		Published:       m.published.Load(),
		Stops:           m.stops.Load(),
		AvgStepDuration: avg,
	}
}

// Recorder remembers the steps a runner started and the messages they
// handled, in order.
type Recorder struct {
	NoopObserver

	mu       sync.Mutex
	steps    []string
	messages []any
}

func (r *Recorder) OnStepStart(ctx context.Context, ev StepEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, ev.Step.Name())
	if ev.Message != nil {
		r.messages = append(r.messages, ev.Message)
	}
}

// StepNames returns the names of the recorded steps.
func (r *Recorder) StepNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}

// Messages returns the recorded messages, skipping autonomous steps.
func (r *Recorder) Messages() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.messages...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = nil
	r.messages = nil
}
