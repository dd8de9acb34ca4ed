package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/ALEYI17/InfraSight_bench/internal/report"
	"github.com/ALEYI17/InfraSight_bench/internal/store"
	"github.com/spf13/cobra"
)

var errNoHistory = errors.New("history.path is not configured")

func openHistory(a *app) (*store.History, error) {
	if a.cfg.History.Path == "" {
		return nil, errNoHistory
	}
	return store.Open(a.cfg.History.Path)
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previously recorded runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openHistory(a)
			if err != nil {
				return err
			}
			defer h.Close()

			reps, err := h.List(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tSTARTED\tTASK\tLABEL\tOUTCOME\tRUNTIME")
			for _, r := range reps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d ms\n",
					r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.TaskType, r.Label, r.Outcome, r.RuntimeMs)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0 for all)")

	var format string
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a recorded report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openHistory(a)
			if err != nil {
				return err
			}
			defer h.Close()

			rep, err := h.Get(args[0])
			if err != nil {
				return err
			}
			if format == "summary" {
				fmt.Fprintln(cmd.OutOrStdout(), report.Summary(rep))
				return nil
			}
			data, err := report.Encode(rep, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "json", "json, yaml or summary")

	cmd.AddCommand(list, show)
	return cmd
}
