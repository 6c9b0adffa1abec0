package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
	"github.com/repropipe/fabric/pkg/vector"
)

type fakeScanner struct{ files []TrackedFile }

func (f *fakeScanner) Scan(context.Context, string) ([]TrackedFile, error) { return f.files, nil }

type fakeMappingRepo struct{ created domain.Mapping }

func (f *fakeMappingRepo) Get(context.Context, string) (domain.Mapping, error) {
	return domain.Mapping{}, errors.New("not implemented")
}
func (f *fakeMappingRepo) List(context.Context, repo.ListOpts) ([]domain.Mapping, error) { return nil, nil }
func (f *fakeMappingRepo) Create(_ context.Context, m domain.Mapping) (domain.Mapping, error) {
	f.created = m
	return m, nil
}
func (f *fakeMappingRepo) Update(context.Context, domain.Mapping) (domain.Mapping, error) {
	return domain.Mapping{}, errors.New("write-once")
}
func (f *fakeMappingRepo) Delete(context.Context, string) error { return nil }

type fakeDocChunkRepo struct{ created []domain.DocChunk }

func (f *fakeDocChunkRepo) Get(context.Context, string) (domain.DocChunk, error) {
	return domain.DocChunk{}, errors.New("not implemented")
}
func (f *fakeDocChunkRepo) List(context.Context, repo.ListOpts) ([]domain.DocChunk, error) { return nil, nil }
func (f *fakeDocChunkRepo) Create(_ context.Context, c domain.DocChunk) (domain.DocChunk, error) {
	f.created = append(f.created, c)
	return c, nil
}
func (f *fakeDocChunkRepo) Update(context.Context, domain.DocChunk) (domain.DocChunk, error) {
	return domain.DocChunk{}, errors.New("write-once")
}
func (f *fakeDocChunkRepo) Delete(context.Context, string) error { return nil }

type fakeVectorIndex struct{ upserted []vector.Record }

func (f *fakeVectorIndex) SearchFiltered(context.Context, []float32, int, map[string]string) ([]vector.SearchResult, error) {
	return nil, nil
}
func (f *fakeVectorIndex) Upsert(_ context.Context, records []vector.Record) error {
	f.upserted = append(f.upserted, records...)
	return nil
}

func TestRun_PersistsMappingWithFrameworkAndModuleScores(t *testing.T) {
	scanner := &fakeScanner{files: []TrackedFile{
		{Path: "src/App.jsx", Body: "import React from \"react\""},
		{Path: "src/auth/login.js", Body: "function login() {}"},
	}}
	mappings := &fakeMappingRepo{}
	deps := &Deps{
		Mappings: mappings,
		Scanner:  scanner,
	}
	m, err := Run(context.Background(), deps, Message{MappingID: "m1", ProjectID: "p1", ReportID: "r1", Query: "login", RepoPath: "/repo"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.ID != "m1" || mappings.created.ID != "m1" {
		t.Fatal("expected mapping persisted with correct id")
	}
	if len(m.ModuleSuggestions) == 0 {
		t.Fatal("expected module suggestions")
	}
}

func TestIndexProject_ChunksEmbedsAndPersists(t *testing.T) {
	docChunks := &fakeDocChunkRepo{}
	vectors := &fakeVectorIndex{}
	deps := &Deps{
		DocChunks: docChunks,
		Vectors:   vectors,
		Embedder:  fakeEmbedder{},
	}
	files := []TrackedFile{{Path: "main.go", Body: "package main\n\nfunc main() {}\n"}}
	if err := IndexProject(context.Background(), deps, "p1", files); err != nil {
		t.Fatalf("IndexProject: %v", err)
	}
	if len(docChunks.created) == 0 {
		t.Fatal("expected doc chunks persisted")
	}
	if len(vectors.upserted) != len(docChunks.created) {
		t.Fatalf("expected vector upsert count to match chunk count: %d vs %d", len(vectors.upserted), len(docChunks.created))
	}
}
