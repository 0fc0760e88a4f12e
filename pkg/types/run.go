// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Params are the caller-supplied pipeline parameters.
type Params struct {
	// ParticipantID labels the subject being converted (e.g. "01"). No format
	// validation beyond non-empty.
	ParticipantID string `json:"participant_id" yaml:"participant_id"`

	// RootDir is the working root all other paths derive from.
	RootDir string `json:"root_dir" yaml:"root_dir"`
}

// AcquisitionResult is what the acquisition step hands to the conversion step.
type AcquisitionResult struct {
	// SubsDir is <root>/sourcedata/dcm_qa_nih/In.
	SubsDir string `json:"subs_dir" yaml:"subs_dir"`

	// ConfigFilePath is <root>/sourcedata/dcm2bids_config.json.
	ConfigFilePath string `json:"config_file_path" yaml:"config_file_path"`

	// Downloaded reports whether the archive was fetched on this run.
	Downloaded bool `json:"downloaded" yaml:"downloaded"`
}

// Outputs are the observable outputs of a full pipeline run.
type Outputs struct {
	SubsDir    string `json:"subs_dir" yaml:"subs_dir"`
	ConfigFile string `json:"config" yaml:"config"`
	Cmd        string `json:"cmd" yaml:"cmd"`
}

// RunStatus is the state of a journaled pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one row of the run journal.
type RunRecord struct {
	ID         string    `json:"id" yaml:"id"`
	Params     Params    `json:"params" yaml:"params"`
	Outputs    Outputs   `json:"outputs" yaml:"outputs"`
	Status     RunStatus `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
