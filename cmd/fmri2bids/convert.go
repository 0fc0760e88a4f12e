// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fmri2bids/internal/acquire"
	"github.com/pdiddy/fmri2bids/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Run dcm2bids on a DICOM directory",
	Long: `Convert runs dcm2bids over a DICOM directory and writes the BIDS dataset to
<root>/results. The input directory and config file default to the locations
acquire creates under the root. Supports the native dcm2bids binary and the
unfmontreal/dcm2bids container image (docker or podman).`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("input", "", "DICOM input directory (default <root>/sourcedata/dcm_qa_nih/In)")
	convertCmd.Flags().String("participant", "", "participant label (default 01)")
	convertCmd.Flags().String("config-file", "", "dcm2bids config (default <root>/sourcedata/dcm2bids_config.json)")
	convertCmd.Flags().String("backend", "", "converter backend: native or container (default native)")
	convertCmd.Flags().Bool("dry-run", false, "print the dcm2bids command without running it")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) error {
	root, err := rootDir()
	if err != nil {
		return err
	}
	cfg := loadConfig(root).Conversion
	applyConversionFlags(cmd, &cfg)

	paths := acquire.PathsFor(root)
	in := convert.Input{
		InputDir:      paths.SubsDir,
		ParticipantID: stringSetting(cmd, "participant", "participant"),
		ConfigFile:    paths.ConfigFile,
		RootDir:       root,
	}
	if v, _ := cmd.Flags().GetString("input"); v != "" {
		in.InputDir = v
	}
	if v, _ := cmd.Flags().GetString("config-file"); v != "" {
		in.ConfigFile = v
	}

	runner, err := newRunner(cfg, root)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()
	_, err = convert.Convert(ctx, runner, in, os.Stdout)
	return err
}
