package clibuild

import (
	"context"
	"io"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

type fakeObjects struct{ puts map[string][]byte }

func (f *fakeObjects) Put(_ context.Context, key string, data io.Reader) error {
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	b, _ := io.ReadAll(data)
	f.puts[key] = b
	return nil
}

type fakeCLIReproRepo struct{ created []domain.CLIRepro }

func (f *fakeCLIReproRepo) Get(context.Context, string) (domain.CLIRepro, error) { return domain.CLIRepro{}, nil }
func (f *fakeCLIReproRepo) List(context.Context, repo.ListOpts) ([]domain.CLIRepro, error) {
	return f.created, nil
}
func (f *fakeCLIReproRepo) Create(_ context.Context, c domain.CLIRepro) (domain.CLIRepro, error) {
	f.created = append(f.created, c)
	return c, nil
}
func (f *fakeCLIReproRepo) Update(_ context.Context, c domain.CLIRepro) (domain.CLIRepro, error) {
	return c, nil
}
func (f *fakeCLIReproRepo) Delete(context.Context, string) error { return nil }

func TestRun_UploadsTreeAndPersistsCLIRepro(t *testing.T) {
	objects := &fakeObjects{}
	repros := &fakeCLIReproRepo{}
	deps := &Deps{CLIRepros: repros, Objects: objects}

	cli, err := Run(context.Background(), deps, Message{ReproID: "r1", TestCode: "package main", Ecosystem: domain.EcosystemGo})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cli.BuildCommand != "go test ./..." {
		t.Fatalf("unexpected build command %q", cli.BuildCommand)
	}
	if cli.TestFile != "repro_test.go" {
		t.Fatalf("unexpected test file %q", cli.TestFile)
	}
	if len(repros.created) != 1 {
		t.Fatalf("expected 1 persisted cli_repro, got %d", len(repros.created))
	}
	if len(objects.puts) == 0 {
		t.Fatalf("expected uploaded project-tree files")
	}
}

func TestHandler_PublishesResult(t *testing.T) {
	repros := &fakeCLIReproRepo{}
	deps := &Deps{CLIRepros: repros}
	var published domain.CLIRepro
	h := Handler(deps, func(_ context.Context, c domain.CLIRepro) error {
		published = c
		return nil
	})
	if err := h(context.Background(), "", Message{ReproID: "r2", Ecosystem: domain.EcosystemMaven}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if published.ReproID != "r2" {
		t.Fatalf("expected publish to receive the created CLIRepro, got %+v", published)
	}
}
