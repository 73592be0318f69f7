package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	corep "github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

// HistoryStore is a step history backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
//
// Messages are gob-encoded; a message that cannot be encoded is stored as
// NULL.
type HistoryStore struct {
	db *sql.DB
}

// Ensure HistoryStore implements the history contract.
var _ corep.HistoryStore = (*HistoryStore)(nil)

// NewHistoryStore initializes the required schema in the given database
// and returns a new HistoryStore.
func NewHistoryStore(db *sql.DB) (*HistoryStore, error) {
	s := &HistoryStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *HistoryStore) initSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS step_history (
			id BIGSERIAL PRIMARY KEY,
			runner_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			at BIGINT NOT NULL,
			use_case TEXT NOT NULL,
			flow TEXT NOT NULL DEFAULT '',
			step TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			message_type TEXT NOT NULL DEFAULT '',
			message BYTEA,
			error TEXT NOT NULL DEFAULT '',
			UNIQUE (runner_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_step_history_use_case ON step_history(use_case, step);
	`)
	return err
}

func (p *HistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	payload, _ := corep.EncodeMessage(rec.Message)

	if rec.Seq != 0 {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO step_history (runner_id, seq, at, use_case, flow, step, actor, message_type, message, error)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.RunnerID, rec.Seq, at.UnixNano(), rec.UseCase, rec.Flow, rec.Step,
			rec.Actor, rec.MessageType, payload, rec.Err,
		)
		return err
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO step_history (runner_id, seq, at, use_case, flow, step, actor, message_type, message, error)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9
		FROM step_history
		WHERE runner_id = $1`,
		rec.RunnerID, at.UnixNano(), rec.UseCase, rec.Flow, rec.Step,
		rec.Actor, rec.MessageType, payload, rec.Err,
	)
	return err
}

func (p *HistoryStore) ListRecords(ctx context.Context, filter corep.HistoryFilter) ([]api.StepRecord, error) {
	query := `
		SELECT runner_id, seq, at, use_case, flow, step, actor, message_type, message, error
		FROM step_history`
	var args []any
	var clauses []string

	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("runner_id", filter.RunnerID)
	add("use_case", filter.UseCase)
	add("step", filter.Step)

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.StepRecord
	for rows.Next() {
		var (
			rec     api.StepRecord
			atN     int64
			payload []byte
		)
		if err := rows.Scan(
			&rec.RunnerID,
			&rec.Seq,
			&atN,
			&rec.UseCase,
			&rec.Flow,
			&rec.Step,
			&rec.Actor,
			&rec.MessageType,
			&payload,
			&rec.Err,
		); err != nil {
			return nil, err
		}
		rec.At = time.Unix(0, atN)
		if msg, err := corep.DecodeMessage(payload); err == nil {
			rec.Message = msg
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
