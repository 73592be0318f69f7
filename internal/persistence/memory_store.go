package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// InMemoryHistoryStore is a goroutine-safe HistoryStore backed by a slice.
// Messages are kept as-is, without encoding.
type InMemoryHistoryStore struct {
	mu      sync.RWMutex
	records []api.StepRecord
	seqs    map[string]int64
}

// NewInMemoryHistoryStore creates a new InMemoryHistoryStore.
func NewInMemoryHistoryStore() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{
		seqs: make(map[string]int64),
	}
}

// Ensure InMemoryHistoryStore implements HistoryStore.
var _ HistoryStore = (*InMemoryHistoryStore)(nil)

func (s *InMemoryHistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Seq == 0 {
		rec.Seq = s.seqs[rec.RunnerID] + 1
	}
	if rec.Seq > s.seqs[rec.RunnerID] {
		s.seqs[rec.RunnerID] = rec.Seq
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *InMemoryHistoryStore) ListRecords(ctx context.Context, filter HistoryFilter) ([]api.StepRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []api.StepRecord
	for _, rec := range s.records {
		if filter.Matches(rec) {
			result = append(result, rec)
		}
	}
	return result, nil
}
