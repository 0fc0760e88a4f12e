// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inspect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/fmri2bids/internal/acquire"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

// fakeHeaders makes readHeader interpret file contents as
// "uid|number|description"; any other content is not DICOM.
func fakeHeaders(t *testing.T) {
	t.Helper()
	orig := readHeader
	readHeader = func(path string) (Header, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return Header{}, err
		}
		parts := strings.Split(strings.TrimSpace(string(data)), "|")
		if len(parts) != 3 {
			return Header{}, errors.New("not a DICOM file")
		}
		return Header{
			SeriesInstanceUID: parts[0],
			Fields: map[string]string{
				"SeriesNumber":      parts[1],
				"SeriesDescription": parts[2],
			},
		}, nil
	}
	t.Cleanup(func() { readHeader = orig })
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func sampleConfig(t *testing.T) *types.BIDSConfig {
	t.Helper()
	cfg, err := types.ParseBIDSConfig(acquire.ConfigJSON())
	require.NoError(t, err)
	return cfg
}

func TestMatchCriteria(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		criteria map[string]string
		want     bool
	}{
		{"prefix glob", map[string]string{"SeriesDescription": "EPI PE=AP"}, map[string]string{"SeriesDescription": "EPI PE=AP*"}, true},
		{"parentheses are literal", map[string]string{"SeriesDescription": "Axial EPI-FMRI (Interleaved I to S)"}, map[string]string{"SeriesDescription": "Axial EPI-FMRI (Interleaved I to S)*"}, true},
		{"mismatch", map[string]string{"SeriesDescription": "EPI PE=PA"}, map[string]string{"SeriesDescription": "EPI PE=AP*"}, false},
		{"question mark", map[string]string{"SeriesDescription": "run1"}, map[string]string{"SeriesDescription": "run?"}, true},
		{"absent field", map[string]string{}, map[string]string{"SeriesDescription": "*"}, false},
		{"all criteria required", map[string]string{"SeriesDescription": "T1w", "Modality": "CT"}, map[string]string{"SeriesDescription": "T1*", "Modality": "MR"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCriteria(tt.fields, tt.criteria))
		})
	}
}

func TestInventory_GroupsAndMatches(t *testing.T) {
	fakeHeaders(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Axial/0001.dcm": "1.2.3|4|Axial EPI-FMRI (Interleaved I to S)",
		"Axial/0002.dcm": "1.2.3|4|Axial EPI-FMRI (Interleaved I to S)",
		"Axial/0003.dcm": "1.2.3|4|Axial EPI-FMRI (Interleaved I to S)",
		"AP/0001.dcm":    "1.2.5|6|EPI PE=AP",
		"PA/0001.dcm":    "1.2.6|7|EPI PE=PA",
		"T1/0001.dcm":    "1.2.2|2|T1 MPRAGE",
		"README.md":      "# not dicom",
	})

	r, err := Inventory(context.Background(), dir, sampleConfig(t), Options{Concurrency: 2})
	require.NoError(t, err)

	assert.Equal(t, 7, r.Files)
	assert.Equal(t, 1, r.Skipped)
	require.Len(t, r.Series, 4)

	assert.Equal(t, []string{"2", "4", "6", "7"},
		[]string{r.Series[0].Number, r.Series[1].Number, r.Series[2].Number, r.Series[3].Number})

	t1 := r.Series[0]
	assert.Empty(t, t1.Matches)
	assert.Empty(t, t1.Label)

	bold := r.Series[1]
	assert.Equal(t, 3, bold.Files)
	assert.Equal(t, []int{0}, bold.Matches)
	assert.Equal(t, "func/task-rest_bold", bold.Label)

	assert.Equal(t, "fmap/dir-AP_epi", r.Series[2].Label)
	assert.Equal(t, "fmap/dir-PA_epi", r.Series[3].Label)
}

func TestInventory_NilConfig(t *testing.T) {
	fakeHeaders(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.dcm": "9.9|1|Anything"})

	r, err := Inventory(context.Background(), dir, nil, Options{})
	require.NoError(t, err)
	require.Len(t, r.Series, 1)
	assert.Empty(t, r.Series[0].Matches)
}

func TestInventory_MissingDir(t *testing.T) {
	_, err := Inventory(context.Background(), filepath.Join(t.TempDir(), "absent"), nil, Options{})
	require.Error(t, err)
}

func TestInventory_Canceled(t *testing.T) {
	fakeHeaders(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.dcm": "1|1|x", "b.dcm": "1|1|x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Inventory(ctx, dir, nil, Options{Concurrency: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInventory_BoundedConcurrency(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{}
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files[n+".dcm"] = "1|1|x"
	}
	writeFiles(t, dir, files)

	var mu sync.Mutex
	active, peak := 0, 0
	orig := readHeader
	readHeader = func(path string) (Header, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			active--
			mu.Unlock()
		}()
		return Header{SeriesInstanceUID: "1", Fields: map[string]string{}}, nil
	}
	t.Cleanup(func() { readHeader = orig })

	r, err := Inventory(context.Background(), dir, nil, Options{Concurrency: 3})
	require.NoError(t, err)
	assert.Equal(t, 8, r.Series[0].Files)
	assert.LessOrEqual(t, peak, 3)
}

func TestParseHeader_NotDICOM(t *testing.T) {
	p := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("plain text, no preamble"), 0o644))
	_, err := parseHeader(p)
	assert.Error(t, err)
}

func TestWriteTable(t *testing.T) {
	r := &Report{
		Files:   4,
		Skipped: 1,
		Series: []Series{
			{Number: "4", Description: "Axial EPI", Files: 2, Matches: []int{0, 2}, Label: "func/task-rest_bold"},
			{Number: "2", Description: "T1", Files: 1, Matches: []int{}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "SERIES")
	assert.Contains(t, out, "func/task-rest_bold (+1 more)")
	assert.Contains(t, out, "2 series, 4 files, 1 skipped")
}

func TestWriteJSON(t *testing.T) {
	r := &Report{Dir: "/d", Files: 1, Series: []Series{{UID: "1.2", Number: "1", Files: 1, Matches: []int{}}}}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *r, got)
}
