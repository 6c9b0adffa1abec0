package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/repropipe/fabric/pkg/resilience"
)

// OllamaEmbedder is the default Embedder, talking to a local Ollama server's
// REST embeddings endpoint. Adapted from the project's earlier ml-service
// embed client: same request shape, stripped of the gRPC service surface
// since no generated client exists for this module. Calls are guarded by a
// rate limiter and circuit breaker so a slow or wedged Ollama instance
// can't pile up goroutines across the signal and mapping workers that
// share it.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	limiter *resilience.Limiter
	breaker *resilience.Breaker
}

// NewOllamaEmbedder builds an embedder against an Ollama instance at baseURL
// using model for every request (e.g. "nomic-embed-text").
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: resilience.NewLimiter(resilience.LimiterOpts{Rate: 10, Burst: 20}),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerOpts),
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests one embedding per text, sequentially. Ollama's embeddings
// endpoint takes a single prompt per call; there is no batch form.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("transform: embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *OllamaEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.breaker.Call(ctx, func(ctx context.Context) error {
		return e.limiter.CallWait(ctx, func(ctx context.Context) error {
			v, err := e.doEmbed(ctx, text)
			if err != nil {
				return err
			}
			vec = v
			return nil
		})
	})
	return vec, err
}

func (e *OllamaEmbedder) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings: unexpected status %d", resp.StatusCode)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("ollama embeddings: decode response: %w", err)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
