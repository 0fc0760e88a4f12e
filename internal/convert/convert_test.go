// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner implements Runner for testing and records invocations.
type fakeRunner struct {
	err   error
	out   string
	calls []Invocation
}

func (f *fakeRunner) Name() string { return "fake" }

func (f *fakeRunner) CommandLine(inv Invocation) string {
	return CommandLine("dcm2bids", inv.Args()...)
}

func (f *fakeRunner) Run(_ context.Context, inv Invocation, stdout, _ io.Writer) error {
	f.calls = append(f.calls, inv)
	if f.out != "" {
		io.WriteString(stdout, f.out)
	}
	return f.err
}

// exitStatus mimics *exec.ExitError's ExitCode method.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitStatus) ExitCode() int { return int(e) }

func validInput(root string) Input {
	return Input{
		InputDir:      filepath.Join(root, "sourcedata", "dcm_qa_nih", "In"),
		ParticipantID: "01",
		ConfigFile:    filepath.Join(root, "sourcedata", "dcm2bids_config.json"),
		RootDir:       root,
	}
}

func TestInvocation_Args(t *testing.T) {
	inv := Invocation{InputDir: "/in", ParticipantID: "01", ConfigFile: "/cfg.json", OutputDir: "/out"}
	assert.Equal(t, []string{"-d", "/in", "-p", "01", "-c", "/cfg.json", "-o", "/out"}, inv.Args())
}

func TestInvocation_Validate(t *testing.T) {
	full := Invocation{InputDir: "/in", ParticipantID: "01", ConfigFile: "/cfg.json", OutputDir: "/out"}
	require.NoError(t, full.Validate())

	tests := []struct {
		field string
		clear func(*Invocation)
	}{
		{"input_dir", func(i *Invocation) { i.InputDir = "" }},
		{"participant_id", func(i *Invocation) { i.ParticipantID = "" }},
		{"config_file", func(i *Invocation) { i.ConfigFile = "" }},
		{"output_dir", func(i *Invocation) { i.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			inv := full
			tt.clear(&inv)
			err := inv.Validate()
			require.ErrorIs(t, err, ErrMissingArgument)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConvert_MissingInputNeverLaunches(t *testing.T) {
	tests := []struct {
		field string
		clear func(*Input)
	}{
		{"input_dir", func(in *Input) { in.InputDir = "" }},
		{"participant_id", func(in *Input) { in.ParticipantID = "" }},
		{"config_file", func(in *Input) { in.ConfigFile = "" }},
		{"root_dir", func(in *Input) { in.RootDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			root := t.TempDir()
			in := validInput(root)
			tt.clear(&in)
			r := &fakeRunner{}

			res, err := Convert(context.Background(), r, in, &bytes.Buffer{})
			require.ErrorIs(t, err, ErrMissingArgument)
			assert.Contains(t, err.Error(), tt.field)
			assert.Empty(t, r.calls, "runner must not be called")
			assert.Empty(t, res.CommandLine)
		})
	}
}

func TestConvert_CreatesOutputDir(t *testing.T) {
	root := t.TempDir()
	r := &fakeRunner{}

	_, err := Convert(context.Background(), r, validInput(root), &bytes.Buffer{})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "results"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// A second run against the existing directory is fine.
	_, err = Convert(context.Background(), r, validInput(root), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Len(t, r.calls, 2)
}

func TestConvert_CommandLine(t *testing.T) {
	root := t.TempDir()
	r := &fakeRunner{out: "converter says hi\n"}
	var out bytes.Buffer

	res, err := Convert(context.Background(), r, validInput(root), &out)
	require.NoError(t, err)

	want := "dcm2bids" +
		" -d " + filepath.Join(root, "sourcedata", "dcm_qa_nih", "In") +
		" -p 01" +
		" -c " + filepath.Join(root, "sourcedata", "dcm2bids_config.json") +
		" -o " + filepath.Join(root, "results")
	assert.Equal(t, want, res.CommandLine)
	assert.Equal(t, 0, res.ExitCode)

	require.Len(t, r.calls, 1)
	assert.Equal(t, filepath.Join(root, "results"), r.calls[0].OutputDir)
	assert.Contains(t, out.String(), "running: "+want)
	assert.Contains(t, out.String(), "converter says hi")
}

func TestConvert_NonZeroExitIsSurfaced(t *testing.T) {
	root := t.TempDir()
	r := &fakeRunner{err: exitStatus(2)}

	res, err := Convert(context.Background(), r, validInput(root), &bytes.Buffer{})
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Equal(t, res.CommandLine, exitErr.CommandLine)
	assert.Equal(t, 2, res.ExitCode)
	assert.NotEmpty(t, res.CommandLine)
}

func TestConvert_LaunchFailureIsNotExitError(t *testing.T) {
	root := t.TempDir()
	r := &fakeRunner{err: errors.New("fork failed")}

	_, err := Convert(context.Background(), r, validInput(root), &bytes.Buffer{})
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.Contains(t, err.Error(), "fork failed")
}

func TestConvert_RealProcessExitCode(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}
	r, err := NewNativeRunner("false")
	require.NoError(t, err)

	_, err = Convert(context.Background(), r, validInput(t.TempDir()), &bytes.Buffer{})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.True(t, strings.HasPrefix(exitErr.CommandLine, "false -d "))
}

func TestCommandLine_Quoting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain", []string{"-p", "01"}, "dcm2bids -p 01"},
		{"space", []string{"-d", "/my data/In"}, "dcm2bids -d '/my data/In'"},
		{"single quote", []string{"-p", "o'neil"}, `dcm2bids -p 'o'"'"'neil'`},
		{"empty", []string{"-p", ""}, "dcm2bids -p ''"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandLine("dcm2bids", tt.args...))
		})
	}
}

func TestDryRunner(t *testing.T) {
	root := t.TempDir()
	res, err := Convert(context.Background(), DryRunner{}, validInput(root), &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.CommandLine, "dcm2bids -d "))
	assert.DirExists(t, filepath.Join(root, "results"))
}
