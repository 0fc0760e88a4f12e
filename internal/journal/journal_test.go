// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fmri2bids/pkg/types"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(types.JournalConfig{Path: PathFor(t.TempDir())})
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

// tick returns a clock that advances one second per call.
func tick(start time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return start.Add(time.Duration(n) * time.Second)
	}
}

func TestPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("/proj", ".fmri2bids", "journal.db"), PathFor("/proj"))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(types.JournalConfig{})
	require.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	path := PathFor(t.TempDir())
	j, err := Open(types.JournalConfig{Path: path})
	require.NoError(t, err)
	_, err = j.Begin(context.Background(), types.Params{ParticipantID: "01", RootDir: "/r"})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(types.JournalConfig{Path: path})
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestBeginFinishGet(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j.now = tick(start)

	params := types.Params{ParticipantID: "01", RootDir: "/data/proj"}
	rec, err := j.Begin(ctx, params)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, types.RunRunning, rec.Status)

	got, err := j.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())

	rec.Status = types.RunSucceeded
	rec.Outputs = types.Outputs{
		SubsDir:    "/data/proj/sourcedata/dcm_qa_nih/In",
		ConfigFile: "/data/proj/sourcedata/dcm2bids_config.json",
		Cmd:        "dcm2bids -d /data/proj/sourcedata/dcm_qa_nih/In -p 01",
	}
	require.NoError(t, j.Finish(ctx, rec))

	got, err = j.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, params, got.Params)
	assert.Equal(t, rec.Outputs, got.Outputs)
	assert.Equal(t, types.RunSucceeded, got.Status)
	assert.Equal(t, start.Add(time.Second), got.StartedAt)
	assert.Equal(t, start.Add(2*time.Second), got.FinishedAt)
}

func TestFinish_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	rec, err := j.Begin(ctx, types.Params{ParticipantID: "02", RootDir: "/r"})
	require.NoError(t, err)
	rec.Status = types.RunFailed
	rec.Error = "dcm2bids: converter exited with status 1"
	require.NoError(t, j.Finish(ctx, rec))

	got, err := j.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, types.RunFailed, got.Status)
	assert.Equal(t, rec.Error, got.Error)
}

func TestFinish_UnknownRun(t *testing.T) {
	j := openTestJournal(t)
	err := j.Finish(context.Background(), &types.RunRecord{ID: "missing", Status: types.RunFailed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_NotFound(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	j.now = tick(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	var ids []string
	for _, p := range []string{"01", "02", "03"} {
		rec, err := j.Begin(ctx, types.Params{ParticipantID: p, RootDir: "/r"})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	all, err := j.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := j.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "03", two[0].Params.ParticipantID)
}

func TestList_Empty(t *testing.T) {
	runs, err := openTestJournal(t).List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestWriteYAML(t *testing.T) {
	runs := []types.RunRecord{{
		ID:     "abc",
		Params: types.Params{ParticipantID: "01", RootDir: "/r"},
		Status: types.RunSucceeded,
		Outputs: types.Outputs{
			SubsDir:    "/r/sourcedata/dcm_qa_nih/In",
			ConfigFile: "/r/sourcedata/dcm2bids_config.json",
			Cmd:        "dcm2bids",
		},
		StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, runs))
	assert.Contains(t, buf.String(), "participant_id:")
	assert.Contains(t, buf.String(), "config: /r/sourcedata/dcm2bids_config.json")

	var decoded []types.RunRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, runs[0].Outputs, decoded[0].Outputs)
}
