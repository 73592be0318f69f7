package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/reqflow"
)

type listOptions struct {
	runnerID string
	useCase  string
	step     string
	format   string
}

// recordView is the printable form of a step record. Messages are shown by
// type only, since their concrete types are unknown to this command.
type recordView struct {
	Runner      string    `yaml:"runner"`
	Seq         int64     `yaml:"seq"`
	At          time.Time `yaml:"at"`
	UseCase     string    `yaml:"use_case"`
	Flow        string    `yaml:"flow,omitempty"`
	Step        string    `yaml:"step"`
	Actor       string    `yaml:"actor,omitempty"`
	MessageType string    `yaml:"message_type,omitempty"`
	Error       string    `yaml:"error,omitempty"`
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded steps in the order they ran",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.runnerID, "runner", "", "Only steps of this runner ID")
	cmd.Flags().StringVar(&opts.useCase, "use-case", "", "Only steps of this use case")
	cmd.Flags().StringVar(&opts.step, "step", "", "Only steps with this name")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or yaml")
	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	if opts.format != "text" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	db, store, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	recs, err := store.ListRecords(cmd.Context(), reqflow.HistoryFilter{
		RunnerID: opts.runnerID,
		UseCase:  opts.useCase,
		Step:     opts.step,
	})
	if err != nil {
		return err
	}

	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, recordView{
			Runner:      rec.RunnerID,
			Seq:         rec.Seq,
			At:          rec.At.UTC(),
			UseCase:     rec.UseCase,
			Flow:        rec.Flow,
			Step:        rec.Step,
			Actor:       rec.Actor,
			MessageType: rec.MessageType,
			Error:       rec.Err,
		})
	}

	if opts.format == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(views)
	}
	return printRecords(cmd.OutOrStdout(), views)
}

func printRecords(w io.Writer, views []recordView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUNNER\tSEQ\tUSE CASE\tFLOW\tSTEP\tACTOR\tMESSAGE\tERROR")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Runner, v.Seq, v.UseCase, v.Flow, v.Step, v.Actor, v.MessageType, v.Error)
	}
	return tw.Flush()
}
