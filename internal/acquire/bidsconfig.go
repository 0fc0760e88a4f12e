// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"fmt"
	"os"
)

// conversionConfig maps the dcm_qa_nih series onto BIDS labels: one resting
// state BOLD run and the two opposite phase-encoding field maps.
const conversionConfig = `{
  "descriptions": [
    {
      "dataType": "func",
      "modalityLabel": "bold",
      "customLabels": "task-rest",
      "criteria": {
        "SeriesDescription": "Axial EPI-FMRI (Interleaved I to S)*"
      },
      "sidecarChanges": {
        "TaskName": "rest"
      }
    },
    {
      "dataType": "fmap",
      "modalityLabel": "epi",
      "customLabels": "dir-AP",
      "criteria": {
        "SeriesDescription": "EPI PE=AP*"
      },
      "intendedFor": 0
    },
    {
      "dataType": "fmap",
      "modalityLabel": "epi",
      "customLabels": "dir-PA",
      "criteria": {
        "SeriesDescription": "EPI PE=PA*"
      },
      "intendedFor": 0
    }
  ]
}
`

// ConfigJSON returns the dcm2bids configuration document written by Acquire.
func ConfigJSON() []byte {
	return []byte(conversionConfig)
}

// WriteConfig writes the conversion configuration to path, replacing any
// existing file.
func WriteConfig(path string) error {
	if err := os.WriteFile(path, ConfigJSON(), 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
