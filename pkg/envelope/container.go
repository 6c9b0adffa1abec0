package envelope

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ContainerLayer isolates the test body inside a container with a
// read-only root filesystem, tmpfs writable paths, a dropped capability
// set, and the configured resource caps (spec.md §4.6). No Docker engine
// SDK appears anywhere in the retrieval pack, so the layer drives the
// `docker` CLI via os/exec, the same integration style codenerd and
// kubernaut use for external tool invocation.
type ContainerLayer struct {
	image            string
	resourceLimits   *ResourceLimitLayer
	readinessTimeout time.Duration

	containerID string
	exec        func(ctx context.Context, args ...string) (string, error)
}

// NewContainerLayer constructs the layer. resourceLimits may be nil if
// enable_resource_limits is false.
func NewContainerLayer(image string, resourceLimits *ResourceLimitLayer, readinessTimeout time.Duration) *ContainerLayer {
	if readinessTimeout <= 0 {
		readinessTimeout = 30 * time.Second
	}
	return &ContainerLayer{
		image: image, resourceLimits: resourceLimits, readinessTimeout: readinessTimeout,
		exec: runDocker,
	}
}

func (c *ContainerLayer) Name() string { return "container" }

// Acquire runs the container detached with the spec's hardening flags, then
// polls readiness via an in-container `echo` exec probe.
func (c *ContainerLayer) Acquire(ctx context.Context) error {
	args := []string{
		"run", "-d",
		"--read-only",
		"--tmpfs", "/tmp",
		"--cap-drop", "ALL",
		"--cap-add", "NET_BIND_SERVICE",
		"--security-opt", "no-new-privileges",
		"-e", "DETERMINISTIC_MODE=true",
		"-e", "CI=true",
	}
	if c.resourceLimits != nil {
		args = append(args, c.resourceLimits.DockerArgs()...)
	}
	args = append(args, c.image, "sleep", "infinity")

	id, err := c.exec(ctx, args...)
	if err != nil {
		return fmt.Errorf("container create: %w", err)
	}
	c.containerID = strings.TrimSpace(id)

	if err := c.waitReady(ctx); err != nil {
		_, _ = c.exec(context.Background(), "rm", "-f", c.containerID)
		return err
	}
	return nil
}

func (c *ContainerLayer) waitReady(ctx context.Context) error {
	deadline := time.Now().Add(c.readinessTimeout)
	for time.Now().Before(deadline) {
		if _, err := c.exec(ctx, "exec", c.containerID, "echo", "ready"); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("container readiness: %w", ctx.Err())
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("container readiness: timed out after %s", c.readinessTimeout)
}

// Release stops and removes the container.
func (c *ContainerLayer) Release(ctx context.Context) error {
	if c.containerID == "" {
		return nil
	}
	_, err := c.exec(ctx, "rm", "-f", c.containerID)
	c.containerID = ""
	if err != nil {
		return fmt.Errorf("container cleanup: %w", err)
	}
	return nil
}

// ContainerID returns the running container's id, empty before Acquire.
func (c *ContainerLayer) ContainerID() string { return c.containerID }

// Exec runs a command inside the container and returns combined output.
func (c *ContainerLayer) Exec(ctx context.Context, cmd ...string) (string, error) {
	args := append([]string{"exec", c.containerID}, cmd...)
	return c.exec(ctx, args...)
}

func runDocker(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("docker %s: %w: %s", strings.Join(args, " "), err, out.String())
	}
	return out.String(), nil
}
