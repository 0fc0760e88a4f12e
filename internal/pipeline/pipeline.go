// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the fmri2bids workflow: acquire the sample dataset
// and conversion config, then convert it to BIDS. The conversion step takes
// the acquisition result directly; there is no graph or lazy wiring.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/fmri2bids/internal/acquire"
	"github.com/pdiddy/fmri2bids/internal/convert"
	"github.com/pdiddy/fmri2bids/internal/logger"
	"github.com/pdiddy/fmri2bids/internal/telemetry"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

// Step names, as they appear in spans, logs, and errors.
const (
	StepDownload = "download_data"
	StepConvert  = "dcm2bids"
)

// finishTimeout bounds recording the final run status.
const finishTimeout = 10 * time.Second

// ErrInvalidParams reports missing pipeline parameters.
var ErrInvalidParams = errors.New("invalid pipeline parameters")

// Recorder persists pipeline runs. *journal.Journal implements it.
type Recorder interface {
	Begin(ctx context.Context, p types.Params) (*types.RunRecord, error)
	Finish(ctx context.Context, rec *types.RunRecord) error
}

// Deps are the collaborators and settings a run needs.
type Deps struct {
	Client *http.Client
	Runner convert.Runner

	// Acquisition carries HTTP settings and the dataset URL; its RootDir is
	// replaced by the run's root.
	Acquisition types.AcquisitionConfig

	// ConvertTimeout bounds the converter process. Zero waits indefinitely.
	ConvertTimeout time.Duration

	// Journal records the run when non-nil.
	Journal Recorder

	// Out receives progress lines and converter output.
	Out io.Writer
}

// ValidateParams checks that both pipeline parameters are set.
func ValidateParams(p types.Params) error {
	if p.RootDir == "" {
		return fmt.Errorf("%w: root directory is required", ErrInvalidParams)
	}
	if p.ParticipantID == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalidParams)
	}
	return nil
}

// Run executes the download and conversion steps in order and returns the
// pipeline outputs. Outputs gathered before a failure are returned with the
// error.
func Run(ctx context.Context, d Deps, p types.Params) (out types.Outputs, err error) {
	if err := ValidateParams(p); err != nil {
		return out, err
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Client == nil {
		d.Client = http.DefaultClient
	}
	if d.Runner == nil {
		return out, errors.New("pipeline: no converter runner configured")
	}

	log := logger.FromContext(ctx).With(zap.String("participant", p.ParticipantID))
	ctx = logger.WithLogger(ctx, log)

	ctx, span := telemetry.StartSpan(ctx, "fmri2bids.run",
		attribute.String("participant_id", p.ParticipantID),
		attribute.String("root_dir", p.RootDir),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if d.Journal != nil {
		rec, jerr := d.Journal.Begin(ctx, p)
		if jerr != nil {
			return out, fmt.Errorf("recording run start: %w", jerr)
		}
		defer func() {
			rec.Outputs = out
			rec.Status = types.RunSucceeded
			if err != nil {
				rec.Status = types.RunFailed
				rec.Error = err.Error()
			}
			// The run context may already be canceled; the record must still close.
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
			defer cancel()
			if ferr := d.Journal.Finish(fctx, rec); ferr != nil {
				log.Warn("recording run finish failed", zap.Error(ferr))
			}
		}()
	}

	acq, err := downloadStep(ctx, d, p)
	if err != nil {
		return out, err
	}
	out.SubsDir = acq.SubsDir
	out.ConfigFile = acq.ConfigFilePath

	res, err := convertStep(ctx, d, p, acq)
	out.Cmd = res.CommandLine
	if err != nil {
		return out, err
	}

	log.Info("pipeline finished", zap.String("cmd", out.Cmd))
	return out, nil
}

func downloadStep(ctx context.Context, d Deps, p types.Params) (res types.AcquisitionResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "fmri2bids."+StepDownload)
	defer func() {
		span.SetAttributes(attribute.Bool("downloaded", res.Downloaded))
		telemetry.EndSpan(span, err)
	}()

	cfg := d.Acquisition
	cfg.RootDir = p.RootDir
	res, err = acquire.Acquire(ctx, d.Client, cfg, d.Out)
	if err != nil {
		return res, fmt.Errorf("%s: %w", StepDownload, err)
	}
	return res, nil
}

func convertStep(ctx context.Context, d Deps, p types.Params, acq types.AcquisitionResult) (res convert.Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "fmri2bids."+StepConvert,
		attribute.String("runner", d.Runner.Name()),
	)
	defer func() {
		span.SetAttributes(attribute.Int("exit_code", res.ExitCode))
		telemetry.EndSpan(span, err)
	}()

	if d.ConvertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.ConvertTimeout)
		defer cancel()
	}

	res, err = convert.Convert(ctx, d.Runner, convert.Input{
		InputDir:      acq.SubsDir,
		ParticipantID: p.ParticipantID,
		ConfigFile:    acq.ConfigFilePath,
		RootDir:       p.RootDir,
	}, d.Out)
	if err != nil {
		return res, fmt.Errorf("%s: %w", StepConvert, err)
	}
	return res, nil
}
