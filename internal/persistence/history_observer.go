package persistence

import (
	"context"
	"log/slog"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// HistoryObserver appends one record per completed step to a HistoryStore.
// Store failures are logged and never fail the step.
type HistoryObserver struct {
	api.NoopObserver

	store  HistoryStore
	logger *slog.Logger
}

var _ api.Observer = (*HistoryObserver)(nil)

// NewHistoryObserver returns an observer writing to store. If logger is
// nil, slog.Default() is used.
func NewHistoryObserver(store HistoryStore, logger *slog.Logger) *HistoryObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryObserver{store: store, logger: logger}
}

func (o *HistoryObserver) OnStepCompleted(ctx context.Context, ev api.StepEvent, err error, d time.Duration) {
	rec := RecordOf(ev, err)
	if appendErr := o.store.AppendRecord(ctx, rec); appendErr != nil {
		o.logger.WarnContext(ctx, "step_history_append_failed",
			slog.String("runner_id", ev.RunnerID),
			slog.String("step", ev.Step.String()),
			slog.Any("error", appendErr),
		)
	}
}

// RecordOf builds the history record of a step execution.
func RecordOf(ev api.StepEvent, err error) api.StepRecord {
	rec := api.StepRecord{
		RunnerID:    ev.RunnerID,
		At:          time.Now(),
		UseCase:     ev.Step.UseCase().Name(),
		Step:        ev.Step.Name(),
		Actor:       ev.Actor.Name(),
		MessageType: api.MessageTypeOf(ev.Message).String(),
		Message:     ev.Message,
	}
	if f := ev.Step.Flow(); f != nil {
		rec.Flow = f.Name()
	}
	if err != nil {
		rec.Err = err.Error()
	}
	return rec
}
