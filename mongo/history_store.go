package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	corep "github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// HistoryStore is a step history backed by MongoDB. Records live in one
// collection; sequence numbers are kept in a second collection named
// "<collName>_counters".
type HistoryStore struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// Ensure it implements the history contract.
var _ corep.HistoryStore = (*HistoryStore)(nil)

// orderKey is the counter that orders records across runners.
const orderKey = "order"

type historyDoc struct {
	Order       int64  `bson:"order"`
	RunnerID    string `bson:"runner_id"`
	Seq         int64  `bson:"seq"`
	At          int64  `bson:"at"`
	UseCase     string `bson:"use_case"`
	Flow        string `bson:"flow,omitempty"`
	Step        string `bson:"step"`
	Actor       string `bson:"actor,omitempty"`
	MessageType string `bson:"message_type,omitempty"`
	Message     []byte `bson:"message,omitempty"`
	Error       string `bson:"error,omitempty"`
}

type counterDoc struct {
	Value int64 `bson:"value"`
}

// NewHistoryStore creates a Mongo-backed history store and its indexes.
// dbName defaults to "reqflow" if empty, collName defaults to "step_history".
func NewHistoryStore(ctx context.Context, client *mongo.Client, dbName, collName string) (*HistoryStore, error) {
	if dbName == "" {
		dbName = "reqflow"
	}
	if collName == "" {
		collName = "step_history"
	}

	db := client.Database(dbName)
	s := &HistoryStore{
		coll:     db.Collection(collName),
		counters: db.Collection(collName + "_counters"),
	}

	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runner_id", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "use_case", Value: 1}, {Key: "step", Value: 1}},
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error {
	if rec.Seq == 0 {
		seq, err := s.next(ctx, "runner:"+rec.RunnerID)
		if err != nil {
			return err
		}
		rec.Seq = seq
	} else {
		_, err := s.counters.UpdateByID(ctx, "runner:"+rec.RunnerID,
			bson.M{"$max": bson.M{"value": rec.Seq}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	order, err := s.next(ctx, orderKey)
	if err != nil {
		return err
	}

	// Unencodable messages are stored without payload.
	msg, _ := corep.EncodeMessage(rec.Message)

	_, err = s.coll.InsertOne(ctx, historyDoc{
		Order:       order,
		RunnerID:    rec.RunnerID,
		Seq:         rec.Seq,
		At:          rec.At.UnixNano(),
		UseCase:     rec.UseCase,
		Flow:        rec.Flow,
		Step:        rec.Step,
		Actor:       rec.Actor,
		MessageType: rec.MessageType,
		Message:     msg,
		Error:       rec.Err,
	})
	return err
}

func (s *HistoryStore) ListRecords(ctx context.Context, filter corep.HistoryFilter) ([]api.StepRecord, error) {
	bfilter := bson.M{}
	if filter.RunnerID != "" {
		bfilter["runner_id"] = filter.RunnerID
	}
	if filter.UseCase != "" {
		bfilter["use_case"] = filter.UseCase
	}
	if filter.Step != "" {
		bfilter["step"] = filter.Step
	}

	cur, err := s.coll.Find(ctx, bfilter, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []api.StepRecord
	for cur.Next(ctx) {
		var doc historyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		rec := api.StepRecord{
			RunnerID:    doc.RunnerID,
			Seq:         doc.Seq,
			At:          time.Unix(0, doc.At),
			UseCase:     doc.UseCase,
			Flow:        doc.Flow,
			Step:        doc.Step,
			Actor:       doc.Actor,
			MessageType: doc.MessageType,
			Err:         doc.Error,
		}
		if msg, err := corep.DecodeMessage(doc.Message); err == nil {
			rec.Message = msg
		}
		results = append(results, rec)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// next increments the named counter and returns its new value.
func (s *HistoryStore) next(ctx context.Context, key string) (int64, error) {
	var c counterDoc
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	return c.Value, err
}
