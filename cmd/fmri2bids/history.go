// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fmri2bids/internal/journal"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded pipeline runs",
	Long: `History lists runs recorded in the journal, newest first. Given a run id it
prints that run in full.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Bool("yaml", false, "print runs as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	j, err := journal.Open(loadConfig(root).Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	var runs []types.RunRecord
	if len(args) == 1 {
		rec, err := j.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return journal.WriteYAML(os.Stdout, []types.RunRecord{rec})
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if runs, err = j.List(cmd.Context(), limit); err != nil {
		return err
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return journal.WriteYAML(os.Stdout, runs)
	}

	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tPARTICIPANT\tSTATUS\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Params.ParticipantID, r.Status, duration(r))
	}
	return tw.Flush()
}

func duration(r types.RunRecord) string {
	if r.FinishedAt.IsZero() {
		return "-"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
