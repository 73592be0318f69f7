package reqflow

import (
	"database/sql"

	"github.com/petrijr/reqflow/internal/engine"
	"github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Model                = api.Model
	UseCase              = api.UseCase
	Flow                 = api.Flow
	FlowPosition         = api.FlowPosition
	Step                 = api.Step
	Actor                = api.Actor
	Condition            = api.Condition
	Reaction             = api.Reaction
	MessageType          = api.MessageType
	Runner               = api.Runner
	StepToRun            = api.StepToRun
	Publication          = api.Publication
	StepHandler          = api.StepHandler
	UnhandledHandler     = api.UnhandledHandler
	PublishHandler       = api.PublishHandler
	Observer             = api.Observer
	StepEvent            = api.StepEvent
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver
	Recorder             = api.Recorder
	Outline              = api.Outline
	StepRecord           = api.StepRecord
)

// History types.

type (
	HistoryStore         = persistence.HistoryStore
	HistoryFilter        = persistence.HistoryFilter
	InMemoryHistoryStore = persistence.InMemoryHistoryStore
	SQLiteHistoryStore   = persistence.SQLiteHistoryStore
	HistoryObserver      = persistence.HistoryObserver
)

// RunnerConfig configures a runner created with NewRunnerWithConfig.
type RunnerConfig = engine.Config

// Re-export constructors and helpers.

var (
	NewActor             = api.NewActor
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	Anytime              = api.Anytime
	After                = api.After
	InsteadOf            = api.InsteadOf
	RunnerFromContext    = api.RunnerFromContext
)

// Re-export errors, for use with errors.Is.

var (
	ErrNoSuchElementInModel  = api.ErrNoSuchElementInModel
	ErrElementAlreadyInModel = api.ErrElementAlreadyInModel
	ErrInvalidModel          = api.ErrInvalidModel
	ErrLivelock              = api.ErrLivelock
	ErrNoRunnerInContext     = api.ErrNoRunnerInContext
	ErrUnexpectedMessage     = api.ErrUnexpectedMessage
)

// TypeOf returns the MessageType for T.
func TypeOf[T any]() MessageType {
	return api.TypeOf[T]()
}

// Runner constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewRunner returns a runner for model. Each runner keeps its own position;
// any number of runners may share a model.
func NewRunner(model *Model) Runner {
	return engine.NewRunner(model)
}

// NewRunnerWithObserver returns a runner reporting to obs.
func NewRunnerWithObserver(model *Model, obs Observer) Runner {
	return engine.NewRunnerWithConfig(model, engine.Config{Observer: obs})
}

// NewRunnerWithConfig returns a runner using cfg.
func NewRunnerWithConfig(model *Model, cfg RunnerConfig) Runner {
	return engine.NewRunnerWithConfig(model, cfg)
}

// History constructors

// NewInMemoryHistory returns a step history kept in memory.
func NewInMemoryHistory() *InMemoryHistoryStore {
	return persistence.NewInMemoryHistoryStore()
}

// NewSQLiteHistory returns a step history stored in a SQLite database. The
// caller imports the driver, e.g. _ "modernc.org/sqlite".
func NewSQLiteHistory(db *sql.DB) (*SQLiteHistoryStore, error) {
	return persistence.NewSQLiteHistoryStore(db)
}

// NewHistoryObserver returns an Observer that appends every completed step
// to store. Combine it with other observers using NewCompositeObserver.
func NewHistoryObserver(store HistoryStore) *HistoryObserver {
	return persistence.NewHistoryObserver(store, nil)
}
