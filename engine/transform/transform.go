// Package transform defines the opaque "bytes → text" extractor dispatch
// table and "texts → embeddings" embedder the Ingest and Signal workers
// depend on (spec.md §4.2, §4.3). Extractor/embedder implementations are
// swappable collaborators; the pipeline core treats them as black boxes
// whose internal nondeterminism is absorbed by the ingest-side idempotence
// rules (spec.md §9 open question (c)).
package transform

import (
	"context"
	"log/slog"

	"github.com/repropipe/fabric/engine/domain"
)

// Extractor turns one raw signal artifact into text. A missing or failing
// extractor must not fail the enclosing message (spec.md §4.2): callers
// treat a returned error as "produce empty string, log, continue".
type Extractor interface {
	Extract(ctx context.Context, kind domain.SignalKind, data []byte) (string, error)
}

// ExtractorFunc adapts a plain function to an Extractor.
type ExtractorFunc func(ctx context.Context, kind domain.SignalKind, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, kind domain.SignalKind, data []byte) (string, error) {
	return f(ctx, kind, data)
}

// Embedder turns a batch of texts into a same-length batch of dense
// embeddings, used for both signature clustering and document chunk search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Dispatcher routes a Signal to the Extractor registered for its kind. An
// unregistered kind is not an error: it simply yields no text, matching the
// spec's "opaque transform" contract.
type Dispatcher struct {
	byKind map[domain.SignalKind]Extractor
}

// NewDispatcher builds a Dispatcher from a kind→Extractor table.
func NewDispatcher(table map[domain.SignalKind]Extractor) *Dispatcher {
	return &Dispatcher{byKind: table}
}

// Extract runs the registered extractor for kind, or returns "" if none is
// registered or the extractor itself fails; a failure is logged as a
// warning through slog.Default.
func (d *Dispatcher) Extract(ctx context.Context, kind domain.SignalKind, data []byte) string {
	ex, ok := d.byKind[kind]
	if !ok {
		return ""
	}
	text, err := ex.Extract(ctx, kind, data)
	if err != nil {
		slog.Default().Warn("transform: extractor failed", "kind", kind, "error", err)
		return ""
	}
	return text
}
