// Command reqflow-history inspects the step history a runner wrote to a
// SQLite database through reqflow.NewHistoryObserver.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
