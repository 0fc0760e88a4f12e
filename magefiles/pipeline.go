// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that drive the built CLI against FMRI2BIDS_ROOT.
type Pipeline mg.Namespace

func runCLI(args ...string) error {
	mg.Deps(Build)
	return sh.RunWithV(map[string]string{"FMRI2BIDS_ROOT": projectRoot()}, binPath(), args...)
}

// Run acquires the sample dataset and converts it to BIDS.
func Run() error {
	return runCLI("run")
}

// Acquire downloads the dcm_qa_nih dataset and writes the dcm2bids config.
func (Pipeline) Acquire() error {
	return runCLI("acquire")
}

// Convert runs dcm2bids over the acquired dataset.
func (Pipeline) Convert() error {
	return runCLI("convert")
}

// DryRun prints the dcm2bids command the pipeline would run.
func (Pipeline) DryRun() error {
	return runCLI("run", "--dry-run", "--no-journal")
}

// Inspect lists the acquired DICOM series and their matching rules.
func (Pipeline) Inspect() error {
	return runCLI("inspect")
}

// History lists recorded pipeline runs.
func (Pipeline) History() error {
	return runCLI("history")
}
