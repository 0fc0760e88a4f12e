// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// BIDSConfig is the dcm2bids configuration document: an ordered list of rules
// mapping DICOM series to BIDS labels.
type BIDSConfig struct {
	Descriptions []Description `json:"descriptions" yaml:"descriptions"`
}

// Description is a single dcm2bids rule. Criteria values are fnmatch-style
// patterns matched against the sidecar field of the same name.
type Description struct {
	DataType       string            `json:"dataType" yaml:"dataType"`
	ModalityLabel  string            `json:"modalityLabel" yaml:"modalityLabel"`
	CustomLabels   string            `json:"customLabels,omitempty" yaml:"customLabels,omitempty"`
	Criteria       map[string]string `json:"criteria" yaml:"criteria"`
	SidecarChanges map[string]string `json:"sidecarChanges,omitempty" yaml:"sidecarChanges,omitempty"`

	// IntendedFor is the index of the description a field map applies to.
	IntendedFor *int `json:"intendedFor,omitempty" yaml:"intendedFor,omitempty"`
}

// Label returns the BIDS suffix the rule produces, e.g. "func/task-rest_bold".
func (d Description) Label() string {
	if d.CustomLabels == "" {
		return d.DataType + "/" + d.ModalityLabel
	}
	return d.DataType + "/" + d.CustomLabels + "_" + d.ModalityLabel
}

// ParseBIDSConfig decodes a dcm2bids configuration document.
func ParseBIDSConfig(data []byte) (*BIDSConfig, error) {
	var cfg BIDSConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing dcm2bids config: %w", err)
	}
	return &cfg, nil
}
