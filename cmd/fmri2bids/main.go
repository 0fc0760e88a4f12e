// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fmri2bids CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/fmri2bids/internal/logger"
	"github.com/pdiddy/fmri2bids/internal/telemetry"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the fmri2bids CLI.
var rootCmd = &cobra.Command{
	Use:   "fmri2bids",
	Short: "Download sample DICOM data and convert it to BIDS",
	Long: `fmri2bids fetches the dcm_qa_nih sample DICOM dataset, writes a dcm2bids
configuration, and runs dcm2bids to produce a BIDS dataset under <root>/results.

The run command executes both steps. acquire and convert run them one at a
time; inspect lists the DICOM series and the rule each one matches. Analysis
stages (deface, mriqc, fmriprep, first-level, plot) are declared but not yet
implemented.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./fmri2bids.yaml or ~/.config/fmri2bids/fmri2bids.yaml)")
	pf.String("root", "", "working root directory (default: current directory)")
	pf.String("log-level", "info", "log level: debug, info, warn, or error")
	pf.Bool("telemetry", false, "print trace spans and metrics to stderr")

	bindFlag("root", pf.Lookup("root"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("telemetry.enabled", pf.Lookup("telemetry"))

	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("fmri2bids")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "fmri2bids"))
		}
	}

	viper.SetEnvPrefix("FMRI2BIDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setup installs the logger and telemetry providers on the command context.
func setup(cmd *cobra.Command, _ []string) error {
	level, err := logger.ParseLogLevel(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	log := logger.NewLogger(level, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	tcfg := telemetry.Config{Enabled: viper.GetBool("telemetry.enabled"), Writer: os.Stderr}
	if err := telemetry.Init(ctx, tcfg, "fmri2bids", version); err != nil {
		return err
	}

	log.Debug("starting", zap.String("command", cmd.CommandPath()), zap.String("version", version))
	cmd.SetContext(logger.WithLogger(ctx, log))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	telemetry.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
