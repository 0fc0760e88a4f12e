// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fmri2bids/internal/acquire"
	"github.com/pdiddy/fmri2bids/internal/inspect"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List DICOM series and the dcm2bids rule each one matches",
	Long: `Inspect reads the DICOM headers (pixel data skipped) under the acquired
dataset, groups files by SeriesInstanceUID, and shows for each series the
dcm2bids description it matches. Files that are not DICOM are counted as
skipped.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("dir", "", "DICOM directory (default <root>/sourcedata/dcm_qa_nih/In)")
	inspectCmd.Flags().String("config-file", "", "dcm2bids config to match against (default: the built-in config)")
	inspectCmd.Flags().Int("workers", 0, "parallel header reads (default: CPU count)")
	inspectCmd.Flags().Bool("json", false, "print the report as JSON")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = acquire.PathsFor(root).SubsDir
	}

	data := acquire.ConfigJSON()
	if path, _ := cmd.Flags().GetString("config-file"); path != "" {
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	cfg, err := types.ParseBIDSConfig(data)
	if err != nil {
		return err
	}

	workers, _ := cmd.Flags().GetInt("workers")
	report, err := inspect.Inventory(cmd.Context(), dir, cfg, inspect.Options{Concurrency: workers})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return inspect.WriteJSON(os.Stdout, report)
	}
	return inspect.WriteTable(os.Stdout, report)
}
