// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package proc runs external commands bound to a context. On cancellation the
// whole process group is killed, so helpers the command spawned (dcm2bids
// starts dcm2niix) stop with it.
package proc

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// WaitDelay bounds how long Run waits for output pipes to close after the
// process group has been killed.
var WaitDelay = 2 * time.Second

// Run starts name with args in its own process group and waits for it. When
// ctx ends first, the group is killed and the returned error wraps ctx.Err().
func Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = WaitDelay
	setProcessGroup(cmd)

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return err
}
