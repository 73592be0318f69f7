package persistence

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// SQLiteHistoryStore is a HistoryStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
//
// Messages are gob-encoded. A message that cannot be encoded, or decoded
// when listing, is stored or returned as nil; its type name is kept.
type SQLiteHistoryStore struct {
	db *sql.DB
}

// Ensure SQLiteHistoryStore implements HistoryStore.
var _ HistoryStore = (*SQLiteHistoryStore)(nil)

// NewSQLiteHistoryStore initializes the required schema in the given
// database and returns a new SQLiteHistoryStore.
func NewSQLiteHistoryStore(db *sql.DB) (*SQLiteHistoryStore, error) {
	s := &SQLiteHistoryStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteHistoryStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS step_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			runner_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			at INTEGER NOT NULL,
			use_case TEXT NOT NULL,
			flow TEXT NOT NULL DEFAULT '',
			step TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			message_type TEXT NOT NULL DEFAULT '',
			message BLOB,
			error TEXT NOT NULL DEFAULT '',
			UNIQUE (runner_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_step_history_use_case ON step_history(use_case, step);
	`)
	return err
}

func (s *SQLiteHistoryStore) AppendRecord(ctx context.Context, rec api.StepRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	// Unencodable messages are stored as NULL.
	payload, _ := EncodeMessage(rec.Message)

	if rec.Seq != 0 {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO step_history (runner_id, seq, at, use_case, flow, step, actor, message_type, message, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunnerID,
			rec.Seq,
			at.UnixNano(),
			rec.UseCase,
			rec.Flow,
			rec.Step,
			rec.Actor,
			rec.MessageType,
			payload,
			rec.Err,
		)
		return err
	}

	// A single statement keeps the sequence assignment atomic.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO step_history (runner_id, seq, at, use_case, flow, step, actor, message_type, message, error)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?
		FROM step_history
		WHERE runner_id = ?`,
		rec.RunnerID,
		at.UnixNano(),
		rec.UseCase,
		rec.Flow,
		rec.Step,
		rec.Actor,
		rec.MessageType,
		payload,
		rec.Err,
		rec.RunnerID,
	)
	return err
}

func (s *SQLiteHistoryStore) ListRecords(ctx context.Context, filter HistoryFilter) ([]api.StepRecord, error) {
	query := `
		SELECT runner_id, seq, at, use_case, flow, step, actor, message_type, message, error
		FROM step_history`
	var args []any
	var clauses []string

	if filter.RunnerID != "" {
		clauses = append(clauses, "runner_id = ?")
		args = append(args, filter.RunnerID)
	}
	if filter.UseCase != "" {
		clauses = append(clauses, "use_case = ?")
		args = append(args, filter.UseCase)
	}
	if filter.Step != "" {
		clauses = append(clauses, "step = ?")
		args = append(args, filter.Step)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
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
		if msg, err := DecodeMessage(payload); err == nil {
			rec.Message = msg
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
