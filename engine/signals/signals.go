package signals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/har"
	"github.com/repropipe/fabric/pkg/logparse"
	"github.com/repropipe/fabric/pkg/repo"
	"github.com/repropipe/fabric/pkg/vector"
)

// Message is the Signal worker's subscribed payload: report.signals.
type Message struct {
	ReportID string `json:"report_id"`
}

// EmbeddingDims is the shared vector space dimensionality (spec.md §4.3:
// "384-dim sentence embedding").
const EmbeddingDims = 384

// ArtifactFetcher fetches a raw signal artifact's bytes by object key.
type ArtifactFetcher interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Embedder turns texts into dense vectors, implemented by
// engine/transform.OllamaEmbedder by default.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Deps holds the Signal worker's external collaborators.
type Deps struct {
	Signals             repo.Repository[domain.Signal, string]
	Signatures          repo.Upserter[domain.Signature]
	Objects             ArtifactFetcher
	Vectors             *vector.Store
	Embedder            Embedder
	SimilarityThreshold float64
	MinSamplesCluster   int
	Logger              *slog.Logger
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

// Run executes one Signal cycle: parse every HAR/log signal attached to the
// report, extract candidate signatures from error-level log lines, cluster
// them, and persist the clustered representatives.
func Run(ctx context.Context, deps *Deps, msg Message) error {
	threshold := deps.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	minSamples := deps.MinSamplesCluster
	if minSamples <= 0 {
		minSamples = DefaultMinSamplesCluster
	}

	sigRows, err := deps.Signals.List(ctx, repo.ListOpts{Filter: map[string]any{"report_id": msg.ReportID}, Limit: 10000})
	if err != nil {
		return fmt.Errorf("signals: list signals for report %s: %w", msg.ReportID, err)
	}

	var candidates []domain.Signature
	for _, s := range sigRows {
		data, err := fetchBytes(ctx, deps.Objects, s.S3Key)
		if err != nil {
			deps.logger().Warn("signals: fetch failed", "signal_id", s.ID, "error", err)
			continue
		}
		switch s.Kind {
		case domain.SignalHAR:
			log, err := har.Parse(data)
			if err != nil {
				deps.logger().Warn("signals: har parse failed", "signal_id", s.ID, "error", err)
				continue
			}
			sum := har.Summarize(log)
			deps.logger().Info("signals: har summary", "signal_id", s.ID,
				"total_requests", sum.TotalRequests, "failed_requests", sum.FailedRequests,
				"total_size", sum.TotalSize, "load_time", sum.LoadTime)
		case domain.SignalLog:
			lines := logparse.ParseLines(string(data))
			candidates = append(candidates, ExtractSignatures(msg.ReportID, lines)...)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Message + " " + c.Details
	}
	embeddings, err := deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("signals: embed signatures for report %s: %w", msg.ReportID, err)
	}
	if len(embeddings) != len(candidates) {
		return fmt.Errorf("signals: embedder returned %d vectors for %d texts", len(embeddings), len(candidates))
	}

	groups := Cluster(embeddings, threshold, minSamples)
	representatives := make([]domain.Signature, 0, len(groups))
	repEmbeddings := make([][]float32, 0, len(groups))
	for _, group := range groups {
		rep, emb := representative(candidates, embeddings, group)
		representatives = append(representatives, rep)
		repEmbeddings = append(repEmbeddings, emb)
	}

	for i, rep := range representatives {
		if _, err := deps.Signatures.Upsert(ctx, rep); err != nil {
			return fmt.Errorf("signals: upsert signature %s: %w", rep.SignatureHash, err)
		}
		if deps.Vectors != nil {
			record := vector.Record{
				ID:        rep.SignatureHash,
				Embedding: repEmbeddings[i],
				Payload: map[string]any{
					"report_id":      rep.ReportID,
					"signature_hash": rep.SignatureHash,
					"error_type":     string(rep.ErrorType),
					"severity":       string(rep.Severity),
				},
			}
			if err := deps.Vectors.Upsert(ctx, []vector.Record{record}); err != nil {
				return fmt.Errorf("signals: vector upsert %s: %w", rep.SignatureHash, err)
			}
		}
	}
	deps.logger().Info("signals: processed report", "report_id", msg.ReportID,
		"candidates", len(candidates), "clusters", len(groups))
	return nil
}

// representative picks the cluster's shortest-message signature, unions its
// key_components across the cluster, and sets its frequency to |cluster|
// (spec.md §4.3).
func representative(candidates []domain.Signature, embeddings [][]float32, group []int) (domain.Signature, []float32) {
	best := group[0]
	for _, idx := range group[1:] {
		if len(candidates[idx].Message) < len(candidates[best].Message) {
			best = idx
		}
	}
	rep := candidates[best]

	seen := make(map[string]bool)
	var union []string
	for _, idx := range group {
		for _, kc := range candidates[idx].KeyComponents {
			if !seen[kc] {
				seen[kc] = true
				union = append(union, kc)
			}
		}
	}
	sort.Strings(union)
	rep.KeyComponents = union
	rep.Frequency = len(group)
	return rep, embeddings[best]
}

// Handler adapts Run to workerrt.Handler[Message].
func Handler(deps *Deps) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		return Run(ctx, deps, msg)
	}
}
