package mapping

import (
	"context"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/vector"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type fakeSearcher struct{ results []vector.SearchResult }

func (f *fakeSearcher) SearchFiltered(context.Context, []float32, int, map[string]string) ([]vector.SearchResult, error) {
	return f.results, nil
}

func TestSearchDocs_MapsPayloadFields(t *testing.T) {
	searcher := &fakeSearcher{results: []vector.SearchResult{
		{ID: "c1", Score: 0.9, Payload: map[string]any{"file_path": "a.go", "text": "hello"}},
	}}
	got, err := SearchDocs(context.Background(), searcher, fakeEmbedder{}, "p1", "query", 5)
	if err != nil {
		t.Fatalf("SearchDocs: %v", err)
	}
	if len(got) != 1 || got[0].FilePath != "a.go" || got[0].Similarity != 0.9 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestConfidence_ClampedAndWeighted(t *testing.T) {
	scores := map[string]float64{"react": 0.8}
	docs := []domain.DocResult{{Similarity: 1.0}, {Similarity: 0.5}}
	got := Confidence(scores, docs)
	want := 0.4*0.8 + 0.6*0.75
	if got < want-0.001 || got > want+0.001 {
		t.Fatalf("expected confidence %f, got %f", want, got)
	}
}

func TestConfidence_ClampsToOne(t *testing.T) {
	scores := map[string]float64{"x": 10}
	docs := []domain.DocResult{{Similarity: 10}}
	if got := Confidence(scores, docs); got != 1 {
		t.Fatalf("expected clamp to 1, got %f", got)
	}
}
