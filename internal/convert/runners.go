// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/fmri2bids/internal/container"
	"github.com/pdiddy/fmri2bids/internal/proc"
)

const (
	// DefaultBinary is the converter executable looked up on PATH.
	DefaultBinary = "dcm2bids"
	// DefaultImage is the converter image used by the container backend.
	DefaultImage = "unfmontreal/dcm2bids:latest"

	containerRoot = "/data"
)

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	return proc.Run(ctx, name, args, stdout, stderr)
}

// NativeRunner runs a dcm2bids binary installed on the host.
type NativeRunner struct {
	binary string
	path   string
	exec   executor
}

// NewNativeRunner resolves binary (DefaultBinary when empty) on PATH.
func NewNativeRunner(binary string) (*NativeRunner, error) {
	return newNativeRunner(binary, osExecutor{})
}

func newNativeRunner(binary string, e executor) (*NativeRunner, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	p, err := e.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("converter %s not found on PATH: %w", binary, err)
	}
	return &NativeRunner{binary: binary, path: p, exec: e}, nil
}

func (n *NativeRunner) Name() string { return "native" }

func (n *NativeRunner) CommandLine(inv Invocation) string {
	return CommandLine(n.binary, inv.Args()...)
}

func (n *NativeRunner) Run(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error {
	return n.exec.Run(ctx, n.path, inv.Args(), stdout, stderr)
}

// ContainerRunner runs the converter image through docker or podman. The
// project root is mounted at /data and every invocation path must live
// under it.
type ContainerRunner struct {
	runtime container.Runtime
	image   string
	root    string
	user    string
}

// NewContainerRunner verifies image is available in rt and returns a runner
// mounting root. Output files are owned by the calling user where the
// platform reports one.
func NewContainerRunner(rt container.Runtime, image, root string) (*ContainerRunner, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("converter image not available in %s: %w", rt.Name(), err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}
	r := &ContainerRunner{runtime: rt, image: image, root: abs}
	if uid, gid := os.Getuid(), os.Getgid(); uid >= 0 {
		r.user = fmt.Sprintf("%d:%d", uid, gid)
	}
	return r, nil
}

func (c *ContainerRunner) Name() string { return c.runtime.Name() }

// CommandLine renders the container command. Paths outside the root are
// shown unmapped; Run rejects them.
func (c *ContainerRunner) CommandLine(inv Invocation) string {
	mapped, err := c.mapInvocation(inv)
	if err != nil {
		mapped = inv
	}
	argv := c.runtime.Command(c.spec(mapped, "", nil, nil))
	return CommandLine(argv[0], argv[1:]...)
}

func (c *ContainerRunner) Run(ctx context.Context, inv Invocation, stdout, stderr io.Writer) error {
	mapped, err := c.mapInvocation(inv)
	if err != nil {
		return err
	}
	name := "fmri2bids-" + uuid.NewString()[:8]
	return c.runtime.Run(ctx, c.spec(mapped, name, stdout, stderr))
}

func (c *ContainerRunner) spec(inv Invocation, name string, stdout, stderr io.Writer) container.RunSpec {
	return container.RunSpec{
		Image:  c.image,
		Name:   name,
		Mounts: []container.Mount{{Host: c.root, Container: containerRoot}},
		User:   c.user,
		Args:   inv.Args(),
		Stdout: stdout,
		Stderr: stderr,
	}
}

// mapInvocation rewrites host paths to their location inside the container.
func (c *ContainerRunner) mapInvocation(inv Invocation) (Invocation, error) {
	var err error
	out := inv
	for _, p := range []*string{&out.InputDir, &out.ConfigFile, &out.OutputDir} {
		if *p, err = c.containerPath(*p); err != nil {
			return inv, err
		}
	}
	return out, nil
}

func (c *ContainerRunner) containerPath(hostPath string) (string, error) {
	abs, err := filepath.Abs(hostPath)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", hostPath, err)
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the mounted root %s", hostPath, c.root)
	}
	return path.Join(containerRoot, filepath.ToSlash(rel)), nil
}

// DryRunner renders the native command line and launches nothing.
type DryRunner struct {
	Binary string
}

func (d DryRunner) Name() string { return "dry-run" }

func (d DryRunner) CommandLine(inv Invocation) string {
	b := d.Binary
	if b == "" {
		b = DefaultBinary
	}
	return CommandLine(b, inv.Args()...)
}

func (d DryRunner) Run(context.Context, Invocation, io.Writer, io.Writer) error {
	return nil
}
