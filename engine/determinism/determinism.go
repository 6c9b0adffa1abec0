// Package determinism drives the layered execution envelope a caller's test
// body runs inside, walking the idle -> apply_envelope -> container_created
// -> ready -> executing -> completed|failed -> cleanup -> idle state
// machine and guaranteeing reverse-order cleanup on every exit path
// (spec.md §4.6).
package determinism

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/repropipe/fabric/pkg/envelope"
)

// exitMarker is appended to every executed command so the wrapping shell's
// exit status survives the docker exec round trip.
const exitMarker = "__DETERMINISM_EXIT__"

// Message is the Determinism Controller's subscribed payload:
// determinism.control.
type Message struct {
	TestID  string         `json:"test_id"`
	Config  envelope.Config `json:"test_config"`
	Command []string        `json:"command"`
}

// Result is the outcome of one envelope-wrapped execution.
type Result struct {
	TestID     string        `json:"test_id"`
	State      envelope.State `json:"state"`
	ExitCode   int           `json:"exit_code"`
	Output     string        `json:"output"`
	DurationMS int64         `json:"duration_ms"`
}

// Deps holds the Determinism Controller's external collaborators.
type Deps struct {
	Stats           envelope.StatsSink
	SamplerInterval time.Duration
	Logger          *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run applies the configured envelope layers, executes msg.Command inside
// the resulting container, and tears the envelope down unconditionally
// before returning.
func Run(ctx context.Context, deps *Deps, msg Message) (Result, error) {
	start := time.Now()
	log := deps.logger().With("test_id", msg.TestID)
	result := Result{TestID: msg.TestID}

	resourceLimits := (*envelope.ResourceLimitLayer)(nil)
	if msg.Config.EnableResourceLimits {
		resourceLimits = envelope.NewResourceLimitLayer(msg.Config.CPUQuotaFraction, msg.Config.MemoryCapMB, msg.Config.DiskQuotaMB)
	}
	container := envelope.NewContainerLayer(msg.Config.Image, resourceLimits, msg.Config.ReadinessTimeout)
	stack := envelope.NewStack(msg.Config, container)

	transition(log, envelope.StateApplyEnvelope)
	if err := stack.Apply(ctx); err != nil {
		transition(log, envelope.StateFailed)
		stack.Teardown(context.Background())
		transition(log, envelope.StateCleanup)
		transition(log, envelope.StateIdle)
		result.State = envelope.StateFailed
		result.DurationMS = time.Since(start).Milliseconds()
		return result, fmt.Errorf("determinism: apply envelope: %w", err)
	}
	transition(log, envelope.StateContainerCreated)
	transition(log, envelope.StateReady)

	var sampler *envelope.Sampler
	if deps.Stats != nil {
		sampler = envelope.NewSampler(msg.TestID, NewDockerStatsSource(container.ContainerID()), deps.Stats, deps.SamplerInterval, deps.logger())
		sampler.Start(ctx)
	}

	transition(log, envelope.StateExecuting)
	output, exitCode, execErr := execWithExitCode(ctx, container, msg.Command)
	result.Output = output
	result.ExitCode = exitCode

	if sampler != nil {
		sampler.Stop()
	}
	if execErr != nil || exitCode != 0 {
		transition(log, envelope.StateFailed)
	} else {
		transition(log, envelope.StateCompleted)
	}
	transition(log, envelope.StateCleanup)
	for _, teardownErr := range stack.Teardown(context.Background()) {
		log.Warn("determinism: cleanup error", "error", teardownErr)
	}
	transition(log, envelope.StateIdle)

	result.DurationMS = time.Since(start).Milliseconds()
	if execErr != nil {
		result.State = envelope.StateFailed
		return result, fmt.Errorf("determinism: exec: %w", execErr)
	}
	if exitCode != 0 {
		result.State = envelope.StateFailed
		return result, nil
	}
	result.State = envelope.StateCompleted
	return result, nil
}

func transition(log *slog.Logger, state envelope.State) {
	log.Info("determinism: state transition", "state", state)
}

// execWithExitCode runs cmd inside container via a shell wrapper that
// echoes the command's exit status after it runs, so the status survives
// the docker exec round trip even though container.Exec itself only
// reports docker-level failures.
func execWithExitCode(ctx context.Context, container *envelope.ContainerLayer, cmd []string) (string, int, error) {
	wrapped := strings.Join(cmd, " ") + "; echo " + exitMarker + ":$?"
	out, err := container.Exec(ctx, "sh", "-c", wrapped)
	if err != nil {
		return out, -1, err
	}
	return parseExitCode(out)
}

func parseExitCode(out string) (string, int, error) {
	idx := strings.LastIndex(out, exitMarker+":")
	if idx == -1 {
		return out, -1, fmt.Errorf("determinism: exit marker not found in output")
	}
	rest := strings.TrimSpace(out[idx+len(exitMarker)+1:])
	code, err := strconv.Atoi(strings.Fields(rest)[0])
	if err != nil {
		return out, -1, fmt.Errorf("determinism: parse exit code: %w", err)
	}
	return out[:idx], code, nil
}

// Handler adapts Run to workerrt.Handler[Message], discarding the Result
// (callers that need it, such as Validate, call Run directly in-process).
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		_, err := Run(ctx, deps, msg)
		return err
	}
}
