package persistence

import (
	"context"

	"github.com/petrijr/reqflow/pkg/api"
)

// HistoryFilter selects step records. Empty fields mean "no filter" for
// that field.
type HistoryFilter struct {
	RunnerID string
	UseCase  string
	Step     string
}

// Matches reports whether rec passes the filter.
func (f HistoryFilter) Matches(rec api.StepRecord) bool {
	if f.RunnerID != "" && rec.RunnerID != f.RunnerID {
		return false
	}
	if f.UseCase != "" && rec.UseCase != f.UseCase {
		return false
	}
	if f.Step != "" && rec.Step != f.Step {
		return false
	}
	return true
}

// HistoryStore is an append-only store of executed steps.
type HistoryStore interface {
	// AppendRecord stores rec. A zero Seq is replaced by the next sequence
	// number of the record's runner, a zero At by the current time.
	AppendRecord(ctx context.Context, rec api.StepRecord) error

	// ListRecords returns the matching records in the order they were
	// appended.
	ListRecords(ctx context.Context, filter HistoryFilter) ([]api.StepRecord, error)
}

// NoopHistoryStore discards all records.
type NoopHistoryStore struct{}

func (NoopHistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error { return nil }
func (NoopHistoryStore) ListRecords(ctx context.Context, filter HistoryFilter) ([]api.StepRecord, error) {
	return nil, nil
}
