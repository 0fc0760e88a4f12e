// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/fmri2bids/internal/acquire"
	"github.com/pdiddy/fmri2bids/internal/container"
	"github.com/pdiddy/fmri2bids/internal/convert"
	"github.com/pdiddy/fmri2bids/internal/journal"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

const (
	defaultParticipant = "01"
	defaultHTTPTimeout = 10 * time.Minute
	defaultMaxRetries  = 5
)

func setDefaults() {
	viper.SetDefault("participant", defaultParticipant)
	viper.SetDefault("dataset_url", acquire.DefaultDatasetURL)
	viper.SetDefault("http.timeout", defaultHTTPTimeout)
	viper.SetDefault("http.max_retries", defaultMaxRetries)
	viper.SetDefault("convert.backend", string(types.BackendNative))
	viper.SetDefault("convert.binary", convert.DefaultBinary)
	viper.SetDefault("convert.image", convert.DefaultImage)
	viper.SetDefault("convert.timeout", time.Duration(0))
	viper.SetDefault("log.level", "info")
}

// bindFlag binds a flag to a viper key; the flag is known to exist.
func bindFlag(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// rootDir returns the configured root as an absolute path, defaulting to the
// working directory.
func rootDir() (string, error) {
	root := viper.GetString("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	return abs, nil
}

// loadConfig assembles the pipeline configuration for root from viper.
func loadConfig(root string) types.PipelineConfig {
	jpath := viper.GetString("journal.path")
	if jpath == "" {
		jpath = journal.PathFor(root)
	}
	return types.PipelineConfig{
		Acquisition: types.AcquisitionConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    viper.GetDuration("http.timeout"),
				UserAgent:  "fmri2bids/" + version,
				MaxRetries: viper.GetInt("http.max_retries"),
			},
			RootDir:    root,
			DatasetURL: viper.GetString("dataset_url"),
		},
		Conversion: types.ConversionConfig{
			Backend: types.ConversionBackend(viper.GetString("convert.backend")),
			Binary:  viper.GetString("convert.binary"),
			Image:   viper.GetString("convert.image"),
			Timeout: viper.GetDuration("convert.timeout"),
			DryRun:  viper.GetBool("convert.dry_run"),
		},
		Journal: types.JournalConfig{Path: jpath},
	}
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// newRunner selects the converter runner for cfg.
func newRunner(cfg types.ConversionConfig, root string) (convert.Runner, error) {
	if cfg.DryRun {
		return convert.DryRunner{Binary: cfg.Binary}, nil
	}
	switch cfg.Backend {
	case types.BackendNative, "":
		return convert.NewNativeRunner(cfg.Binary)
	case types.BackendContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		return convert.NewContainerRunner(rt, cfg.Image, root)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q (want native or container)", cfg.Backend)
	}
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// stringSetting returns the named flag when set on the command line, and the
// viper key otherwise.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return viper.GetString(key)
}

// applyConversionFlags overrides cfg with --backend and --dry-run when given.
func applyConversionFlags(cmd *cobra.Command, cfg *types.ConversionConfig) {
	cfg.Backend = types.ConversionBackend(stringSetting(cmd, "backend", "convert.backend"))
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
}
