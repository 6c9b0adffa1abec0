package mapping

import (
	"context"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/vector"
)

// VectorSearcher is the narrow slice of *vector.Store's API SearchDocs
// needs, so the Map worker's query path can be tested without a live
// Qdrant instance.
type VectorSearcher interface {
	SearchFiltered(ctx context.Context, embedding []float32, topK int, filters map[string]string) ([]vector.SearchResult, error)
}

// SearchDocs embeds query and searches the doc_chunks vector index filtered
// to projectID, returning the top N results as DocResults with similarity
// taken directly from the store's score (spec.md §4.4: "ordering by cosine
// distance ascending, returned as similarity = 1 - distance").
func SearchDocs(ctx context.Context, store VectorSearcher, embedder Embedder, projectID, query string, topN int) ([]domain.DocResult, error) {
	vecs, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	hits, err := store.SearchFiltered(ctx, vecs[0], topN, map[string]string{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	out := make([]domain.DocResult, len(hits))
	for i, h := range hits {
		filePath, _ := h.Payload["file_path"].(string)
		text, _ := h.Payload["text"].(string)
		out[i] = domain.DocResult{
			ChunkID:    h.ID,
			FilePath:   filePath,
			Text:       text,
			Similarity: float64(h.Score),
		}
	}
	return out, nil
}

// Confidence computes the Map worker's confidence score (spec.md §4.4):
// 0.4 * max(framework_scores) + 0.6 * mean(top_N similarity), clamped to
// [0, 1].
func Confidence(frameworkScores map[string]float64, docResults []domain.DocResult) float64 {
	var meanSim float64
	if len(docResults) > 0 {
		var sum float64
		for _, d := range docResults {
			sum += d.Similarity
		}
		meanSim = sum / float64(len(docResults))
	}
	score := 0.4*MaxScore(frameworkScores) + 0.6*meanSim
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
