package mapping

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
	"github.com/repropipe/fabric/pkg/vector"
)

// Message is the Map worker's subscribed payload: mapping.request.
type Message struct {
	MappingID string `json:"mapping_id"`
	ProjectID string `json:"project_id"`
	ReportID  string `json:"report_id"`
	Query     string `json:"query"`
	RepoPath  string `json:"repo_path"`
}

// Embedder turns texts into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// RepoScanner lists a repository's tracked files with their bodies loaded,
// e.g. via a git ls-files + read-file walk over RepoPath.
type RepoScanner interface {
	Scan(ctx context.Context, repoPath string) ([]TrackedFile, error)
}

// DocSearchTopN is the default number of document-search hits considered
// for confidence scoring (spec.md §4.4 leaves N to the implementation).
const DocSearchTopN = 5

var _ VectorIndex = (*vector.Store)(nil)

// VectorIndex is the combined search+upsert surface mapping needs from a
// vector store; satisfied by *vector.Store.
type VectorIndex interface {
	VectorSearcher
	Upsert(ctx context.Context, records []vector.Record) error
}

// Deps holds the Map worker's external collaborators.
type Deps struct {
	Mappings      repo.Repository[domain.Mapping, string]
	DocChunks     repo.Repository[domain.DocChunk, string]
	Vectors       VectorIndex
	Embedder      Embedder
	Scanner       RepoScanner
	FrameworkDict map[string][]FrameworkPattern
	ExtWhitelist  map[string]bool
	ChunkSize     int
	ChunkOverlap  int
	Logger        *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run executes one Map cycle: scan the repo, detect frameworks, guess
// module paths, search indexed documents, compute confidence, and persist
// the resulting Mapping.
func Run(ctx context.Context, deps *Deps, msg Message) (domain.Mapping, error) {
	files, err := deps.Scanner.Scan(ctx, msg.RepoPath)
	if err != nil {
		return domain.Mapping{}, fmt.Errorf("mapping: scan %s: %w", msg.RepoPath, err)
	}

	dict := deps.FrameworkDict
	if dict == nil {
		dict = DefaultFrameworkPatterns()
	}
	frameworkScores := DetectFrameworks(files, dict)
	moduleSuggestions := GuessModulePaths(msg.Query, files)

	var docResults []domain.DocResult
	if deps.Vectors != nil && deps.Embedder != nil {
		docResults, err = SearchDocs(ctx, deps.Vectors, deps.Embedder, msg.ProjectID, msg.Query, DocSearchTopN)
		if err != nil {
			deps.logger().Warn("mapping: document search failed", "mapping_id", msg.MappingID, "error", err)
		}
	}

	confidence := Confidence(frameworkScores, docResults)

	m := domain.Mapping{
		ID:                msg.MappingID,
		ProjectID:         msg.ProjectID,
		ReportID:          msg.ReportID,
		FrameworkScores:   frameworkScores,
		ModuleSuggestions: moduleSuggestions,
		DocResults:        docResults,
		ConfidenceScore:   confidence,
	}
	if _, err := deps.Mappings.Create(ctx, m); err != nil {
		return domain.Mapping{}, fmt.Errorf("mapping: persist mapping %s: %w", msg.MappingID, err)
	}
	return m, nil
}

// IndexProject chunks and embeds every whitelisted file in files, persisting
// each chunk to the relational store and the vector index (spec.md §4.4's
// "Indexing" collaborator-facing operation).
func IndexProject(ctx context.Context, deps *Deps, projectID string, files []TrackedFile) error {
	whitelist := deps.ExtWhitelist
	if whitelist == nil {
		whitelist = DefaultExtensionWhitelist
	}
	chunkSize, overlap := deps.ChunkSize, deps.ChunkOverlap
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}

	chunks := ChunkProject(files, whitelist, chunkSize, overlap)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := deps.Embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("mapping: embed %d chunks: %w", len(chunks), err)
	}

	records := make([]vector.Record, len(chunks))
	for i, c := range chunks {
		id := fmt.Sprintf("%s-%s-%d", projectID, c.FilePath, c.Index)
		docChunk := domain.DocChunk{
			ID:        id,
			ProjectID: projectID,
			FilePath:  c.FilePath,
			Text:      c.Text,
			Index:     c.Index,
		}
		if _, err := deps.DocChunks.Create(ctx, docChunk); err != nil {
			return fmt.Errorf("mapping: persist doc_chunk %s: %w", id, err)
		}
		records[i] = vector.Record{
			ID:        id,
			Embedding: embeddings[i],
			Payload: map[string]any{
				"project_id": projectID,
				"file_path":  c.FilePath,
				"text":       c.Text,
				"chunk_index": c.Index,
			},
		}
	}
	if deps.Vectors != nil {
		if err := deps.Vectors.Upsert(ctx, records); err != nil {
			return fmt.Errorf("mapping: vector upsert %d chunks: %w", len(records), err)
		}
	}
	return nil
}

// Handler adapts Run to workerrt.Handler[Message], discarding the returned
// Mapping (consumers read it back via the Mappings repository or the
// published mapping.completed event).
func Handler(deps *Deps, publish func(context.Context, domain.Mapping) error) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		m, err := Run(ctx, deps, msg)
		if err != nil {
			return err
		}
		if publish != nil {
			return publish(ctx, m)
		}
		return nil
	}
}
