// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fmri2bids/internal/acquire"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Download the sample DICOM dataset and write the dcm2bids config",
	Long: `Acquire downloads the dcm_qa_nih archive into <root>/tmp, extracts it to
<root>/sourcedata/dcm_qa_nih, and writes <root>/sourcedata/dcm2bids_config.json.
An existing dataset directory is kept and the download skipped. The config
file is rewritten on every run.`,
	RunE: runAcquire,
}

func init() {
	acquireCmd.Flags().String("url", "", "dataset archive URL (default: the dcm_qa_nih GitHub archive)")
	acquireCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 10m, 0 keeps the configured value)")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, _ []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	cfg := loadConfig(root).Acquisition
	cfg.DatasetURL = stringSetting(cmd, "url", "dataset_url")
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}

	res, err := acquire.Acquire(cmd.Context(), newHTTPClient(cfg.HTTPConfig), cfg, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("subs_dir: %s\nconfig: %s\n", res.SubsDir, res.ConfigFilePath)
	return nil
}
