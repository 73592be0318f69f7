package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/petrijr/reqflow"
)

var dbPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reqflow-history",
		Short: "Inspect reqflow step history",
		Long: `reqflow-history reads the step_history table written by a SQLite
history store and prints what each runner did.

Example:
  reqflow-history --db app.db runners
  reqflow-history --db app.db list --runner 3f6c... --format yaml
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "reqflow.db", "Path to the SQLite database")

	root.AddCommand(newListCmd())
	root.AddCommand(newRunnersCmd())
	return root
}

// openHistory opens the database at path. The schema is created if missing,
// so an empty database simply has no records.
func openHistory(path string) (*sql.DB, *reqflow.SQLiteHistoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	store, err := reqflow.NewSQLiteHistory(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("open history in %s: %w", path, err)
	}
	return db, store, nil
}
