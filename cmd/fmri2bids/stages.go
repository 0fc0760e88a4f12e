// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fmri2bids/internal/analysis"
	"github.com/pdiddy/fmri2bids/internal/convert"
)

var inputUsage = map[string]string{
	analysis.InputBIDSDir:     "BIDS dataset directory (default <root>/results)",
	analysis.InputOutputDir:   "output directory (default <root>/derivatives/<stage>)",
	analysis.InputStatsDir:    "statistics directory",
	analysis.InputEventsFiles: "events TSV files (repeatable)",
}

func init() {
	for _, s := range analysis.Stages() {
		rootCmd.AddCommand(stageCommand(s))
	}
}

// stageCommand builds the subcommand for an analysis stage, with one flag per
// stage input.
func stageCommand(s analysis.Stage) *cobra.Command {
	cmd := &cobra.Command{
		Use:   s.Name,
		Short: s.Summary + " (not yet implemented)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := rootDir()
			if err != nil {
				return err
			}
			in, err := stageInputs(cmd, s, root)
			if err != nil {
				return err
			}
			return s.Run(cmd.Context(), in)
		},
	}
	for _, name := range s.Inputs {
		if name == analysis.InputEventsFiles {
			cmd.Flags().StringSlice(name, nil, inputUsage[name])
			continue
		}
		cmd.Flags().String(name, "", inputUsage[name])
	}
	return cmd
}

func stageInputs(cmd *cobra.Command, s analysis.Stage, root string) (analysis.Inputs, error) {
	var in analysis.Inputs
	for _, name := range s.Inputs {
		switch name {
		case analysis.InputBIDSDir:
			in.BIDSDir, _ = cmd.Flags().GetString(name)
			if in.BIDSDir == "" {
				in.BIDSDir = convert.OutputDir(root)
			}
		case analysis.InputOutputDir:
			in.OutputDir, _ = cmd.Flags().GetString(name)
			if in.OutputDir == "" {
				in.OutputDir = filepath.Join(root, "derivatives", s.Name)
			}
		case analysis.InputStatsDir:
			in.StatsDir, _ = cmd.Flags().GetString(name)
		case analysis.InputEventsFiles:
			files, err := cmd.Flags().GetStringSlice(name)
			if err != nil {
				return in, err
			}
			in.EventsFiles = files
		}
	}
	return in, nil
}
