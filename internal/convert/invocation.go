// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"regexp"
	"strings"
)

// Invocation is the fully resolved argument set for one dcm2bids run.
// All four fields are mandatory.
type Invocation struct {
	InputDir      string
	ParticipantID string
	ConfigFile    string
	OutputDir     string
}

// fields lists the invocation in argument order with its flag and name.
func (inv Invocation) fields() [4]struct{ flag, name, value string } {
	return [4]struct{ flag, name, value string }{
		{"-d", "input_dir", inv.InputDir},
		{"-p", "participant_id", inv.ParticipantID},
		{"-c", "config_file", inv.ConfigFile},
		{"-o", "output_dir", inv.OutputDir},
	}
}

// Validate returns ErrMissingArgument naming the first empty field.
func (inv Invocation) Validate() error {
	for _, f := range inv.fields() {
		if f.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingArgument, f.name)
		}
	}
	return nil
}

// Args returns the flagged arguments in fixed order: -d, -p, -c, -o.
func (inv Invocation) Args() []string {
	args := make([]string, 0, 8)
	for _, f := range inv.fields() {
		args = append(args, f.flag, f.value)
	}
	return args
}

// CommandLine renders executable and args as a POSIX shell command.
func CommandLine(executable string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(executable))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

var safeShellWord = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if safeShellWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
