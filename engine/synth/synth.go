package synth

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/har"
	"github.com/repropipe/fabric/pkg/repo"
)

// Message is the Synth worker's subscribed payload: report.synth.
type Message struct {
	ReportID string `json:"report_id"`
}

// DefaultEntry is the generated Playwright entry file name.
const DefaultEntry = "repro.spec.ts"

// ArtifactFetcher fetches a raw signal artifact's bytes by object key.
type ArtifactFetcher interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// StepWriter persists a Repro's ordered Steps atomically, satisfied by
// *relstore.StepRepo.
type StepWriter interface {
	ReplaceAll(ctx context.Context, reproID string, steps []domain.Step) error
}

// Deps holds the Synth worker's external collaborators.
type Deps struct {
	Repros  repo.Repository[domain.Repro, string]
	Steps   StepWriter
	Signals repo.Repository[domain.Signal, string]
	Objects ArtifactFetcher
	Logger  *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func fetchBytes(ctx context.Context, objects ArtifactFetcher, key string) ([]byte, error) {
	r, err := objects.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Run executes one Synth cycle: parse every HAR signal attached to the
// report, classify and merge their interactions, synthesize a Repro and its
// ordered Steps, and persist them (spec.md §4.5).
func Run(ctx context.Context, deps *Deps, msg Message) (domain.Repro, error) {
	sigRows, err := deps.Signals.List(ctx, repo.ListOpts{Filter: map[string]any{"report_id": msg.ReportID}, Limit: 10000})
	if err != nil {
		return domain.Repro{}, fmt.Errorf("synth: list signals for report %s: %w", msg.ReportID, err)
	}

	var interactions []Interaction
	for _, s := range sigRows {
		if s.Kind != domain.SignalHAR {
			continue
		}
		data, err := fetchBytes(ctx, deps.Objects, s.S3Key)
		if err != nil {
			deps.logger().Warn("synth: fetch failed", "signal_id", s.ID, "error", err)
			continue
		}
		log, err := har.Parse(data)
		if err != nil {
			deps.logger().Warn("synth: har parse failed", "signal_id", s.ID, "error", err)
			continue
		}
		interactions = append(interactions, ClassifyInteractions(log)...)
	}

	rep, err := existingOrNewRepro(ctx, deps, msg.ReportID)
	if err != nil {
		return domain.Repro{}, err
	}

	steps := BuildSteps(rep.ID, interactions)
	if err := deps.Steps.ReplaceAll(ctx, rep.ID, steps); err != nil {
		return domain.Repro{}, fmt.Errorf("synth: persist steps for repro %s: %w", rep.ID, err)
	}

	deps.logger().Info("synth: built repro", "repro_id", rep.ID, "report_id", msg.ReportID, "steps", len(steps))
	return rep, nil
}

// existingOrNewRepro returns the report's Repro, creating one if none
// exists yet (spec.md §4.5: "one Repro row per report").
func existingOrNewRepro(ctx context.Context, deps *Deps, reportID string) (domain.Repro, error) {
	existing, err := deps.Repros.List(ctx, repo.ListOpts{Filter: map[string]any{"report_id": reportID}, Limit: 1})
	if err != nil {
		return domain.Repro{}, fmt.Errorf("synth: list repros for report %s: %w", reportID, err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	rep := domain.Repro{
		ID:        uuid.NewString(),
		ReportID:  reportID,
		Framework: "playwright",
		Entry:     DefaultEntry,
		Status:    domain.ReproCreated,
	}
	created, err := deps.Repros.Create(ctx, rep)
	if err != nil {
		return domain.Repro{}, fmt.Errorf("synth: create repro for report %s: %w", reportID, err)
	}
	return created, nil
}

// Handler adapts Run to workerrt.Handler[Message].
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		_, err := Run(ctx, deps, msg)
		return err
	}
}
