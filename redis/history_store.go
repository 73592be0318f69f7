package redis

import (
	"bytes"
	"context"
	"encoding/gob"
	"time"

	"github.com/redis/go-redis/v9"

	corep "github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// HistoryStore is a step history backed by Redis.
// It uses a simple key structure:
//
//	<prefix>hist               => LIST of gob-encoded records, in append order
//	<prefix>seq:<runnerID>     => last sequence number of a runner
//
// Messages are gob-encoded; register concrete message types with
// gob.Register. A message that cannot be encoded is stored as nil.
type HistoryStore struct {
	client *redis.Client
	prefix string
}

var _ corep.HistoryStore = (*HistoryStore)(nil)

type historyPayload struct {
	RunnerID    string
	Seq         int64
	At          int64
	UseCase     string
	Flow        string
	Step        string
	Actor       string
	MessageType string
	Message     []byte
	Err         string
}

// raiseSeq moves the counter forward to an explicit sequence number.
var raiseSeq = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur < tonumber(ARGV[1]) then
	redis.call('SET', KEYS[1], ARGV[1])
end
return 0
`)

// NewHistoryStore creates a HistoryStore.
// prefix is optional but recommended (e.g. "reqflow:").
func NewHistoryStore(client *redis.Client, prefix string) *HistoryStore {
	if prefix == "" {
		prefix = "reqflow:"
	}
	return &HistoryStore{
		client: client,
		prefix: prefix,
	}
}

func (s *HistoryStore) keyHistory() string {
	return s.prefix + "hist"
}

func (s *HistoryStore) keySeq(runnerID string) string {
	return s.prefix + "seq:" + runnerID
}

func (s *HistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error {
	if rec.Seq == 0 {
		seq, err := s.client.Incr(ctx, s.keySeq(rec.RunnerID)).Result()
		if err != nil {
			return err
		}
		rec.Seq = seq
	} else if err := raiseSeq.Run(ctx, s.client, []string{s.keySeq(rec.RunnerID)}, rec.Seq).Err(); err != nil {
		return err
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	data, err := encodePayload(rec)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.keyHistory(), data).Err()
}

func (s *HistoryStore) ListRecords(ctx context.Context, filter corep.HistoryFilter) ([]api.StepRecord, error) {
	items, err := s.client.LRange(ctx, s.keyHistory(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var out []api.StepRecord
	for _, item := range items {
		rec, err := decodePayload([]byte(item))
		if err != nil {
			return nil, err
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func encodePayload(rec api.StepRecord) ([]byte, error) {
	// Unencodable messages are stored as nil.
	msg, _ := corep.EncodeMessage(rec.Message)

	payload := historyPayload{
		RunnerID:    rec.RunnerID,
		Seq:         rec.Seq,
		At:          rec.At.UnixNano(),
		UseCase:     rec.UseCase,
		Flow:        rec.Flow,
		Step:        rec.Step,
		Actor:       rec.Actor,
		MessageType: rec.MessageType,
		Message:     msg,
		Err:         rec.Err,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodePayload(data []byte) (api.StepRecord, error) {
	var payload historyPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return api.StepRecord{}, err
	}
	rec := api.StepRecord{
		RunnerID:    payload.RunnerID,
		Seq:         payload.Seq,
		At:          time.Unix(0, payload.At),
		UseCase:     payload.UseCase,
		Flow:        payload.Flow,
		Step:        payload.Step,
		Actor:       payload.Actor,
		MessageType: payload.MessageType,
		Err:         payload.Err,
	}
	if msg, err := corep.DecodeMessage(payload.Message); err == nil {
		rec.Message = msg
	}
	return rec, nil
}
