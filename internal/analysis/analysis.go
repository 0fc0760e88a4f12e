// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis declares the stages that follow BIDS conversion:
// defacing, quality control, preprocessing, first-level statistics, and
// plotting. Each stage validates its inputs and then reports
// ErrNotImplemented.
package analysis

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by every stage once its inputs are valid.
var ErrNotImplemented = errors.New("not yet implemented")

// ErrMissingInput reports an empty required stage input.
var ErrMissingInput = errors.New("missing stage input")

// Inputs carries every stage input. Each stage reads only the fields it
// lists in Stage.Inputs.
type Inputs struct {
	BIDSDir     string
	OutputDir   string
	StatsDir    string
	EventsFiles []string
}

// Input names, matching the CLI flag names.
const (
	InputBIDSDir     = "bids-dir"
	InputOutputDir   = "output-dir"
	InputStatsDir    = "stats-dir"
	InputEventsFiles = "events"
)

// Stage is one post-conversion processing step.
type Stage struct {
	Name    string
	Summary string
	// Inputs names the required fields of Inputs.
	Inputs []string
	run    func(ctx context.Context, in Inputs) error
}

// Run checks the stage's required inputs and executes it.
func (s Stage) Run(ctx context.Context, in Inputs) error {
	for _, name := range s.Inputs {
		if !in.has(name) {
			return fmt.Errorf("%s: %w: %s", s.Name, ErrMissingInput, name)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.run(ctx, in); err != nil {
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

func (in Inputs) has(name string) bool {
	switch name {
	case InputBIDSDir:
		return in.BIDSDir != ""
	case InputOutputDir:
		return in.OutputDir != ""
	case InputStatsDir:
		return in.StatsDir != ""
	case InputEventsFiles:
		return len(in.EventsFiles) > 0
	}
	return false
}

var stages = []Stage{
	{
		Name:    "deface",
		Summary: "Anonymize and deface anatomical images",
		Inputs:  []string{InputBIDSDir},
		run:     deface,
	},
	{
		Name:    "mriqc",
		Summary: "Run quality control on the BIDS dataset",
		Inputs:  []string{InputBIDSDir, InputOutputDir},
		run:     qualityControl,
	},
	{
		Name:    "fmriprep",
		Summary: "Preprocess functional images",
		Inputs:  []string{InputBIDSDir, InputOutputDir},
		run:     preprocess,
	},
	{
		Name:    "first-level",
		Summary: "Fit first-level statistical models",
		Inputs:  []string{InputBIDSDir, InputOutputDir, InputEventsFiles},
		run:     firstLevel,
	},
	{
		Name:    "plot",
		Summary: "Plot statistical results",
		Inputs:  []string{InputStatsDir},
		run:     plot,
	},
}

// Stages returns the stages in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// Lookup returns the stage with the given name.
func Lookup(name string) (Stage, bool) {
	for _, s := range stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

func deface(context.Context, Inputs) error         { return ErrNotImplemented }
func qualityControl(context.Context, Inputs) error { return ErrNotImplemented }
func preprocess(context.Context, Inputs) error     { return ErrNotImplemented }
func firstLevel(context.Context, Inputs) error     { return ErrNotImplemented }
func plot(context.Context, Inputs) error           { return ErrNotImplemented }
