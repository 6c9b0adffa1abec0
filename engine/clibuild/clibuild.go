package clibuild

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/repo"
)

// Message is the CLI-build worker's subscribed payload: cli.request.
type Message struct {
	ReproID  string          `json:"repro_id"`
	TestCode string          `json:"test_code"`
	Ecosystem domain.Ecosystem `json:"ecosystem"`
	RepoPath string          `json:"repo_path,omitempty"`
}

// ArtifactStore uploads generated project-tree files to object storage.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data io.Reader) error
}

var _ ArtifactStore = (*objstore.Store)(nil)

// Deps holds the CLI-build worker's external collaborators.
type Deps struct {
	CLIRepros repo.Repository[domain.CLIRepro, string]
	Objects   ArtifactStore
	Logger    *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run builds a per-ecosystem project tree plus container recipes for a
// Repro's test code, uploads every generated file, and persists the
// resulting CLIRepro row (spec.md §4.8).
func Run(ctx context.Context, deps *Deps, msg Message) (domain.CLIRepro, error) {
	files, buildCommand := BuildProjectTree(msg.Ecosystem, msg.ReproID, msg.TestCode)
	dockerfile := Dockerfile(msg.Ecosystem, buildCommand)
	compose := ComposeFile(msg.ReproID, msg.Ecosystem)
	files = append(files,
		ProjectFile{Path: "Dockerfile", Content: []byte(dockerfile)},
		ProjectFile{Path: "docker-compose.yml", Content: []byte(compose)},
	)

	if deps.Objects != nil {
		for _, f := range files {
			key := objstore.GeneratedTestKey(msg.ReproID, string(msg.Ecosystem), f.Path)
			if err := deps.Objects.Put(ctx, key, bytes.NewReader(f.Content)); err != nil {
				return domain.CLIRepro{}, fmt.Errorf("clibuild: upload %s for repro %s: %w", f.Path, msg.ReproID, err)
			}
		}
	}

	testFilePath := ""
	for _, f := range files {
		if isTestFile(f.Path) {
			testFilePath = f.Path
			break
		}
	}

	cli := domain.CLIRepro{
		ID:           uuid.NewString(),
		ReproID:      msg.ReproID,
		Ecosystem:    msg.Ecosystem,
		TestFile:     testFilePath,
		BuildCommand: buildCommand,
		Dockerfile:   dockerfile,
		ComposeFile:  compose,
		Status:       "built",
	}
	if deps.CLIRepros != nil {
		created, err := deps.CLIRepros.Create(ctx, cli)
		if err != nil {
			return domain.CLIRepro{}, fmt.Errorf("clibuild: persist cli_repro for repro %s: %w", msg.ReproID, err)
		}
		cli = created
	}

	deps.logger().Info("clibuild: generated project tree", "repro_id", msg.ReproID, "ecosystem", msg.Ecosystem, "files", len(files))
	return cli, nil
}

func isTestFile(path string) bool {
	switch {
	case path == "repro_test.go":
		return true
	case path == "src/test/java/ReproTest.java":
		return true
	}
	return false
}

// Handler adapts Run to workerrt.Handler[Message], publishing the resulting
// CLIRepro via publish (cli.completed) when provided.
func Handler(deps *Deps, publish func(context.Context, domain.CLIRepro) error) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		cli, err := Run(ctx, deps, msg)
		if err != nil {
			return err
		}
		if publish != nil {
			return publish(ctx, cli)
		}
		return nil
	}
}
