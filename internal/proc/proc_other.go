// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package proc

import "os/exec"

// Process groups are not available; cancellation kills the direct child only.
func setProcessGroup(*exec.Cmd) {}
