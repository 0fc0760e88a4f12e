// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero disables the timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "fmri2bids/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds the retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AcquisitionConfig holds settings for the acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// RootDir is the project root; sourcedata/ and tmp/ are created below it.
	RootDir string `json:"root_dir" yaml:"root_dir"`

	// DatasetURL is the zip archive holding the sample DICOM data.
	DatasetURL string `json:"dataset_url" yaml:"dataset_url"`
}

// ConversionBackend identifies how the dcm2bids converter is launched.
type ConversionBackend string

const (
	BackendNative    ConversionBackend = "native"
	BackendContainer ConversionBackend = "container"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects how dcm2bids is launched: native or container.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// Binary is the dcm2bids executable name or path for the native backend.
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image"`

	// Timeout bounds a single converter run. Zero waits indefinitely.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// DryRun builds the command line without launching the converter.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// JournalConfig holds settings for the run journal.
type JournalConfig struct {
	// Path is the SQLite database file. Empty disables the journal.
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Conversion  ConversionConfig  `json:"conversion" yaml:"conversion"`
	Journal     JournalConfig     `json:"journal" yaml:"journal"`
}
