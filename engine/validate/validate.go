// Package validate runs a Repro's Steps under the determinism envelope N
// times, derives stability metrics over the completed Runs, and triggers
// delta minimization when the result set looks flaky (spec.md §4.7).
package validate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/ddmin"
	"github.com/repropipe/fabric/pkg/envelope"
	"github.com/repropipe/fabric/pkg/fn"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/repo"
)

// Message is the Validate worker's subscribed payload: repro.validate.
type Message struct {
	ReproID     string          `json:"repro_id"`
	Runs        int             `json:"runs"`
	Determinism envelope.Config `json:"determinism"`
}

const (
	DefaultRuns                = 5
	DefaultMaxConcurrentRuns   = 3
	DefaultFlakyThreshold      = 0.3
	DefaultMinimizationTimeout = 300 * time.Second
)

// Outcome is one run's result, produced by Executor.
type Outcome struct {
	Passed     bool
	DurationMS int64
	ExitCode   int
	Logs       string
	Video      []byte
	Trace      []byte
}

// Executor runs a Repro's Steps once inside the determinism envelope.
// iteration is 1-based. A non-nil error means the run itself could not be
// attempted (e.g. the envelope refused to apply); Run converts that into a
// failed Outcome rather than aborting the whole validation cycle (spec.md
// §7: PolicyViolation "continue other runs").
type Executor interface {
	Execute(ctx context.Context, cfg envelope.Config, reproID string, iteration int, steps []domain.Step) (Outcome, error)
}

// StepLister reads a Repro's ordered Steps, satisfied by *relstore.StepRepo.
type StepLister interface {
	ListByRepro(ctx context.Context, reproID string) ([]domain.Step, error)
}

// RunWriter persists one immutable Run row, satisfied by *relstore.RunRepo.
type RunWriter interface {
	Create(ctx context.Context, run domain.Run) (domain.Run, error)
}

var _ ArtifactStore = (*objstore.Store)(nil)

// ArtifactStore uploads captured run artifacts to object storage, satisfied
// by *objstore.Store.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
}

// StabilityCache persists a StabilityRecord, satisfied by *cache.Cache.
type StabilityCache interface {
	PutStability(ctx context.Context, reproID string, record any) error
}

// Deps holds the Validate worker's external collaborators.
type Deps struct {
	Repros              repo.Repository[domain.Repro, string]
	Steps               StepLister
	Runs                RunWriter
	Stability           StabilityCache
	Objects             ArtifactStore
	Executor            Executor
	MaxConcurrentRuns   int
	FlakyThreshold      float64
	MinimizationTimeout time.Duration
	Logger              *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run executes msg.Runs iterations of the Repro's Steps, persists one Run
// row per iteration, computes and caches a StabilityRecord, marks the Repro
// validated, and triggers delta minimization when warranted.
func Run(ctx context.Context, deps *Deps, msg Message) (domain.StabilityRecord, error) {
	runs := msg.Runs
	if runs <= 0 {
		runs = DefaultRuns
	}
	workers := deps.MaxConcurrentRuns
	if workers <= 0 {
		workers = DefaultMaxConcurrentRuns
	}

	rep, err := deps.Repros.Get(ctx, msg.ReproID)
	if err != nil {
		return domain.StabilityRecord{}, fmt.Errorf("validate: get repro %s: %w", msg.ReproID, err)
	}
	steps, err := deps.Steps.ListByRepro(ctx, msg.ReproID)
	if err != nil {
		return domain.StabilityRecord{}, fmt.Errorf("validate: list steps for repro %s: %w", msg.ReproID, err)
	}

	iterations := make([]int, runs)
	for i := range iterations {
		iterations[i] = i + 1
	}
	results := fn.ParMapResult(iterations, workers, func(iteration int) fn.Result[Outcome] {
		out, err := deps.Executor.Execute(ctx, msg.Determinism, msg.ReproID, iteration, steps)
		if err != nil {
			deps.logger().Warn("validate: run failed to execute", "repro_id", msg.ReproID, "iteration", iteration, "error", err)
			out = Outcome{Passed: false, Logs: err.Error()}
		}
		return fn.Ok(out)
	})

	outcomes := make([]Outcome, len(results))
	passed := make([]bool, len(results))
	durations := make([]int64, len(results))
	for i, r := range results {
		o, _ := r.Unwrap()
		outcomes[i] = o
		passed[i] = o.Passed
		durations[i] = o.DurationMS

		run := domain.Run{
			ReproID: msg.ReproID, Iteration: i + 1, Passed: o.Passed,
			DurationMS: o.DurationMS, ExitCode: o.ExitCode, Logs: o.Logs,
			CreatedAt: time.Now(),
		}
		if deps.Objects != nil {
			if len(o.Video) > 0 {
				key := objstore.ValidationVideoKey(msg.ReproID, i+1)
				if err := deps.Objects.Put(ctx, key, bytes.NewReader(o.Video)); err != nil {
					deps.logger().Warn("validate: upload video failed", "repro_id", msg.ReproID, "iteration", i+1, "error", err)
				} else {
					run.VideoS3 = key
				}
			}
			if len(o.Trace) > 0 {
				key := objstore.ValidationTraceKey(msg.ReproID, i+1)
				if err := deps.Objects.Put(ctx, key, bytes.NewReader(o.Trace)); err != nil {
					deps.logger().Warn("validate: upload trace failed", "repro_id", msg.ReproID, "iteration", i+1, "error", err)
				} else {
					run.TraceS3 = key
				}
			}
		}
		if _, err := deps.Runs.Create(ctx, run); err != nil {
			deps.logger().Warn("validate: persist run failed", "repro_id", msg.ReproID, "iteration", i+1, "error", err)
		}
	}

	score := stabilityScore(passed)
	flaky := flakyScoreOf(passed)
	record := domain.StabilityRecord{
		ReproID:          msg.ReproID,
		StabilityScore:   score,
		FlakyScore:       flaky,
		ConsistencyScore: 1 - flaky,
		Classification:   domain.ClassifyStability(score),
		Performance:      performanceStatsOf(durations),
		RunCount:         len(outcomes),
	}

	if err := deps.Stability.PutStability(ctx, msg.ReproID, record); err != nil {
		deps.logger().Warn("validate: cache stability record failed", "repro_id", msg.ReproID, "error", err)
	}

	rep.Status = domain.ReproValidated
	rep.StabilityScore = score
	if _, err := deps.Repros.Update(ctx, rep); err != nil {
		return record, fmt.Errorf("validate: mark repro %s validated: %w", msg.ReproID, err)
	}

	threshold := deps.FlakyThreshold
	if threshold <= 0 {
		threshold = DefaultFlakyThreshold
	}
	anyFailed := score < 1.0
	if flaky > threshold && anyFailed && len(steps) >= 2 {
		minimized := deps.minimize(ctx, msg, steps)
		deps.logger().Info("validate: minimized failing steps", "repro_id", msg.ReproID,
			"original_steps", len(steps), "minimized_steps", len(minimized))
	}

	return record, nil
}

// minimize shrinks steps to a minimal failing subset via ddmin, rerunning
// the full determinism envelope per evaluation (spec.md §4.7).
func (d *Deps) minimize(ctx context.Context, msg Message, steps []domain.Step) []domain.Step {
	timeout := d.MinimizationTimeout
	if timeout <= 0 {
		timeout = DefaultMinimizationTimeout
	}
	test := func(ctx context.Context, candidate []domain.Step) ddmin.Outcome {
		iteration := int(time.Now().UnixNano() % 1_000_000)
		out, err := d.Executor.Execute(ctx, msg.Determinism, msg.ReproID, iteration, candidate)
		if err != nil || !out.Passed {
			return ddmin.Fail
		}
		return ddmin.Pass
	}
	return ddmin.Minimize(ctx, steps, test, timeout)
}

// Handler adapts Run to workerrt.Handler[Message].
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		_, err := Run(ctx, deps, msg)
		return err
	}
}
