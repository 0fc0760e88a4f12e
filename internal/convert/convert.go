// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the dcm2bids converter over acquired DICOM data.
//
// The converter takes four mandatory arguments in fixed order:
//
//	dcm2bids -d <input_dir> -p <participant_id> -c <config_file> -o <output_dir>
//
// Runners decide how the process is launched (native binary, container, or
// not at all for dry runs).
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/fmri2bids/internal/logger"
)

// resultsDir is the subdirectory under the root that receives BIDS output.
const resultsDir = "results"

// ErrMissingArgument reports an empty mandatory converter argument.
var ErrMissingArgument = errors.New("missing mandatory argument")

// Input holds the conversion step's inputs. InputDir and ConfigFile come from
// the acquisition step; ParticipantID and RootDir are pipeline parameters.
type Input struct {
	InputDir      string
	ParticipantID string
	ConfigFile    string
	RootDir       string
}

// Result describes a converter run.
type Result struct {
	// CommandLine is the resolved command, set once the invocation is valid.
	CommandLine string
	// ExitCode is the converter's exit status (0 unless it failed).
	ExitCode int
	Duration time.Duration
}

// ExitError reports a converter process that exited with a non-zero status.
type ExitError struct {
	CommandLine string
	Code        int
	Err         error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("converter exited with status %d: %s", e.Code, e.CommandLine)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner launches the converter for an invocation.
type Runner interface {
	// Name identifies the runner in logs ("native", "docker", ...).
	Name() string

	// CommandLine renders the command the runner would execute.
	CommandLine(inv Invocation) string

	// Run executes the converter, streaming its output to stdout and stderr.
	Run(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error
}

// OutputDir returns the BIDS output directory for root.
func OutputDir(root string) string {
	return filepath.Join(root, resultsDir)
}

// Convert creates the output directory, builds the invocation, and runs it.
// Missing inputs fail with ErrMissingArgument before anything is created or
// launched. A non-zero converter exit is returned as *ExitError; the command
// line is reported in the Result either way.
func Convert(ctx context.Context, r Runner, in Input, w io.Writer) (Result, error) {
	var res Result
	if err := in.validate(); err != nil {
		return res, err
	}

	outDir := OutputDir(in.RootDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	inv := Invocation{
		InputDir:      in.InputDir,
		ParticipantID: in.ParticipantID,
		ConfigFile:    in.ConfigFile,
		OutputDir:     outDir,
	}
	if err := inv.Validate(); err != nil {
		return res, err
	}

	res.CommandLine = r.CommandLine(inv)
	fmt.Fprintf(w, "running: %s\n", res.CommandLine)
	log := logger.FromContext(ctx).With(zap.String("runner", r.Name()), zap.String("participant", in.ParticipantID))
	log.Debug("converter starting", zap.Strings("args", inv.Args()))

	start := time.Now()
	err := r.Run(ctx, inv, w, w)
	res.Duration = time.Since(start)
	if err == nil {
		log.Info("converter finished", zap.Duration("duration", res.Duration))
		return res, nil
	}

	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) && coded.ExitCode() > 0 {
		res.ExitCode = coded.ExitCode()
		log.Warn("converter failed", zap.Int("exit_code", res.ExitCode))
		return res, &ExitError{CommandLine: res.CommandLine, Code: res.ExitCode, Err: err}
	}
	return res, fmt.Errorf("running converter via %s: %w", r.Name(), err)
}

func (in Input) validate() error {
	for _, f := range []struct{ name, value string }{
		{"input_dir", in.InputDir},
		{"participant_id", in.ParticipantID},
		{"config_file", in.ConfigFile},
		{"root_dir", in.RootDir},
	} {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, f.name)
		}
	}
	return nil
}
