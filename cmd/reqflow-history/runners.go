package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petrijr/reqflow"
)

type runnerSummary struct {
	id       string
	steps    int
	failed   int
	lastStep string
}

func newRunnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runners",
		Short: "Summarize the runners found in the history",
		Args:  cobra.NoArgs,
		RunE:  runRunners,
	}
}

func runRunners(cmd *cobra.Command, _ []string) error {
	db, store, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := store.ListRecords(cmd.Context(), reqflow.HistoryFilter{})
	if err != nil {
		return err
	}

	var order []string
	byID := make(map[string]*runnerSummary)
	for _, rec := range recs {
		s, ok := byID[rec.RunnerID]
		if !ok {
			s = &runnerSummary{id: rec.RunnerID}
			byID[rec.RunnerID] = s
			order = append(order, rec.RunnerID)
		}
		s.steps++
		if rec.Err != "" {
			s.failed++
		}
		s.lastStep = rec.UseCase + "/" + rec.Step
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUNNER\tSTEPS\tFAILED\tLATEST")
	for _, id := range order {
		s := byID[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.id, s.steps, s.failed, s.lastStep)
	}
	return tw.Flush()
}
