// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/fmri2bids/internal/journal"
	"github.com/pdiddy/fmri2bids/internal/logger"
	"github.com/pdiddy/fmri2bids/internal/pipeline"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire the sample dataset and convert it to BIDS",
	Long: `Run executes the full pipeline under the root directory:

  1. download_data  download and extract dcm_qa_nih into sourcedata/ (skipped
                    when already present) and write dcm2bids_config.json
  2. dcm2bids       run dcm2bids -d <subs_dir> -p <participant> -c <config> -o <root>/results

The run is recorded in the journal unless --no-journal is given.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("participant", "", "participant label passed to dcm2bids (default 01)")
	runCmd.Flags().String("backend", "", "converter backend: native or container (default native)")
	runCmd.Flags().Bool("dry-run", false, "print the dcm2bids command without running it")
	runCmd.Flags().Bool("no-journal", false, "do not record the run in the journal")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	root, err := rootDir()
	if err != nil {
		return err
	}
	cfg := loadConfig(root)
	applyConversionFlags(cmd, &cfg.Conversion)

	params := types.Params{
		ParticipantID: stringSetting(cmd, "participant", "participant"),
		RootDir:       root,
	}
	if err := pipeline.ValidateParams(params); err != nil {
		return err
	}

	runner, err := newRunner(cfg.Conversion, root)
	if err != nil {
		return err
	}

	deps := pipeline.Deps{
		Client:         newHTTPClient(cfg.Acquisition.HTTPConfig),
		Runner:         runner,
		Acquisition:    cfg.Acquisition,
		ConvertTimeout: cfg.Conversion.Timeout,
		Out:            os.Stdout,
	}

	if noJournal, _ := cmd.Flags().GetBool("no-journal"); !noJournal {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return err
		}
		defer j.Close()
		deps.Journal = j
	}

	out, err := pipeline.Run(ctx, deps, params)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Debug("run outputs", zap.Any("outputs", out))
	fmt.Printf("subs_dir: %s\nconfig: %s\ncmd: %s\n", out.SubsDir, out.ConfigFile, out.Cmd)
	return nil
}
