// Package ingest implements the Ingest worker (spec.md §4.2): for a report,
// it fans its signals out through the opaque extractor dispatch table
// concurrently, truncates and namespaces each extracted text as a
// description frame, and appends the result to the report's description in
// one transactional update. Adapted from the project's earlier
// validate→parse→chunk→embed→store content pipeline, down to a single
// extract→frame→merge stage since this worker has no embedding step of its
// own (that belongs to the Signal worker).
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/engine/transform"
	"github.com/repropipe/fabric/pkg/fn"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/repo"
)

// MaxFrameChars is the per-signal truncation length (spec.md §4.2).
const MaxFrameChars = 2000

// Message is the Ingest worker's subscribed payload: report.ingest.
type Message struct {
	ReportID string `json:"report_id"`
}

// ArtifactFetcher fetches a raw signal artifact's bytes by object key. The
// Deps field holding one is typed as this narrow interface, not
// *objstore.Store directly, so handler logic can be tested without a real
// S3 endpoint.
type ArtifactFetcher interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Deps holds the Ingest worker's external collaborators.
type Deps struct {
	Reports            repo.Repository[domain.Report, string]
	Signals            repo.Repository[domain.Signal, string]
	Objects            ArtifactFetcher
	Dispatcher         *transform.Dispatcher
	MaxConcurrentTasks int
	Logger             *slog.Logger
}

var _ ArtifactFetcher = (*objstore.Store)(nil)

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// fetchSignal downloads the raw artifact bytes for one signal from object
// storage.
func fetchSignal(ctx context.Context, objects ArtifactFetcher, s domain.Signal) ([]byte, error) {
	r, err := objects.Get(ctx, s.S3Key)
	if err != nil {
		return nil, fmt.Errorf("ingest: fetch signal %s: %w", s.ID, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ExtractStage turns one Signal into a namespaced DescriptionFrame. A
// failing or missing extractor yields an empty-text frame rather than an
// error (spec.md §4.2: "does not fail the message").
func ExtractStage(deps *Deps) fn.Stage[domain.Signal, domain.DescriptionFrame] {
	return func(ctx context.Context, s domain.Signal) fn.Result[domain.DescriptionFrame] {
		data, err := fetchSignal(ctx, deps.Objects, s)
		if err != nil {
			deps.logger().Warn("ingest: signal fetch failed", "signal_id", s.ID, "error", err)
			return fn.Ok(domain.DescriptionFrame{SignalID: s.ID, Text: ""})
		}
		text := deps.Dispatcher.Extract(ctx, s.Kind, data)
		if len(text) > MaxFrameChars {
			text = text[:MaxFrameChars]
		}
		return fn.Ok(domain.DescriptionFrame{SignalID: s.ID, Text: text})
	}
}

// Run executes one Ingest cycle for msg.ReportID: fetch signals, extract
// concurrently (capped at MaxConcurrentTasks), merge frames into the
// report's description, persist.
func Run(ctx context.Context, deps *Deps, msg Message) error {
	signals, err := deps.Signals.List(ctx, repo.ListOpts{Filter: map[string]any{"report_id": msg.ReportID}, Limit: 10000})
	if err != nil {
		return fmt.Errorf("ingest: list signals for report %s: %w", msg.ReportID, err)
	}
	if len(signals) == 0 {
		return nil
	}

	workers := deps.MaxConcurrentTasks
	if workers <= 0 {
		workers = 4
	}
	batch := fn.BatchStage(workers, ExtractStage(deps))
	result := batch(ctx, signals)
	frames, err := result.Unwrap()
	if err != nil {
		return fmt.Errorf("ingest: extract signals for report %s: %w", msg.ReportID, err)
	}

	report, err := deps.Reports.Get(ctx, msg.ReportID)
	if err != nil {
		return fmt.Errorf("ingest: get report %s: %w", msg.ReportID, err)
	}
	report.Description = domain.MergeDescriptionFrames(report.Description, frames)
	if _, err := deps.Reports.Update(ctx, report); err != nil {
		return fmt.Errorf("ingest: update report %s: %w", msg.ReportID, err)
	}
	deps.logger().Info("ingest: processed report", "report_id", msg.ReportID, "signals", len(signals))
	return nil
}

// Handler adapts Run to workerrt.Handler[Message].
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		return Run(ctx, deps, msg)
	}
}
