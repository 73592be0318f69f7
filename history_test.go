package reqflow

import (
	"context"
	"database/sql"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func init() {
	gob.Register(EntersText{})
}

func historyModel() *Model {
	return NewModel().
		UseCase("Get greeted").
		BasicFlow().
		Step("S1").User(IgnoresIt[EntersText]()).
		Step("S2").System(func(context.Context) error { return nil }).
		MustBuild()
}

func TestHistory_SQLite(t *testing.T) {
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteHistory(db)
	require.NoError(t, err)

	metrics := &BasicMetrics{}
	r := NewRunnerWithObserver(historyModel(), NewCompositeObserver(NewHistoryObserver(store), metrics))

	require.NoError(t, r.Run(ctx))
	_, err = r.ReactTo(ctx, EntersText{Text: "Joe"})
	require.NoError(t, err)

	recs, err := store.ListRecords(ctx, HistoryFilter{RunnerID: r.ID()})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "S1", recs[0].Step)
	assert.Equal(t, BasicFlowName, recs[0].Flow)
	assert.Equal(t, EntersText{Text: "Joe"}, recs[0].Message)
	assert.Equal(t, "S2", recs[1].Step)
	assert.Nil(t, recs[1].Message)

	assert.Equal(t, int64(2), metrics.Snapshot().StepsCompleted)
}

func TestHistory_InMemorySeparatesRunners(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryHistory()
	model := historyModel()

	a := NewRunnerWithObserver(model, NewHistoryObserver(store))
	b := NewRunnerWithObserver(model, NewHistoryObserver(store))

	_, err := a.ReactTo(ctx, EntersText{Text: "a"})
	require.NoError(t, err)
	_, err = b.ReactTo(ctx, EntersText{Text: "b"})
	require.NoError(t, err)

	all, err := store.ListRecords(ctx, HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	recs, err := store.ListRecords(ctx, HistoryFilter{RunnerID: b.ID(), Step: "S1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, EntersText{Text: "b"}, recs[0].Message)
	assert.Equal(t, int64(1), recs[0].Seq)
}
