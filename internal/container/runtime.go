// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution
// for the containerized converter backend.
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/pdiddy/fmri2bids/internal/proc"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Mount binds a host directory into the container.
type Mount struct {
	Host      string
	Container string
}

// flag renders the --mount value. Fields containing a comma or quote are
// CSV-quoted, as both runtimes parse the value as one CSV record.
func (m Mount) flag() string {
	return "type=bind," + csvField("source="+m.Host) + "," + csvField("target="+m.Container)
}

func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// RunSpec describes one container run.
type RunSpec struct {
	Image string
	// Name is passed as --name when set. Run removes a named container
	// whose run was canceled.
	Name   string
	Mounts []Mount
	// User is passed as --user when set (e.g. "1000:1000").
	User string
	// Args are appended after the image, i.e. the entrypoint arguments.
	Args []string

	Stdout io.Writer
	Stderr io.Writer
}

// Runtime provides container operations: checking availability, verifying
// images, and running containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Command returns the full argv Run would execute for spec.
	Command(spec RunSpec) []string

	// Run executes a container for spec and waits for it to exit.
	Run(ctx context.Context, spec RunSpec) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	return proc.Run(ctx, name, args, stdout, stderr)
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image-existence subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Command(spec RunSpec) []string {
	argv := []string{r.bin, "run", "--rm"}
	if spec.Name != "" {
		argv = append(argv, "--name", spec.Name)
	}
	if spec.User != "" {
		argv = append(argv, "--user", spec.User)
	}
	for _, m := range spec.Mounts {
		argv = append(argv, "--mount", m.flag())
	}
	argv = append(argv, spec.Image)
	return append(argv, spec.Args...)
}

func (r *runtime) Run(ctx context.Context, spec RunSpec) error {
	argv := r.Command(spec)
	if err := r.exec.Run(ctx, argv[0], argv[1:], spec.Stdout, spec.Stderr); err != nil {
		// Killing the client does not stop the container itself.
		if ctx.Err() != nil && spec.Name != "" {
			_ = r.exec.RunSilent(r.bin, "rm", "--force", spec.Name)
		}
		return fmt.Errorf("running %s container %s: %w", r.bin, spec.Image, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
