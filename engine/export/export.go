package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/objstore"
	"github.com/repropipe/fabric/pkg/repo"
)

// Message is the Export worker's subscribed payload: export.request.
type Message struct {
	ReproID    string            `json:"repro_id"`
	ExportType domain.ExportType `json:"export_type"`
	Options    map[string]any    `json:"options"`
}

// ArtifactStore is the object-store surface Export needs: read back a
// CLIRepro's generated project tree, and write the delivery artifact.
type ArtifactStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, data io.Reader) error
}

var _ ArtifactStore = (*objstore.Store)(nil)

// Deps holds the Export worker's external collaborators.
type Deps struct {
	Exports        repo.Repository[domain.Export, string]
	CLIRepros      repo.Repository[domain.CLIRepro, string]
	Objects        ArtifactStore
	PRPoster       PRPoster
	SandboxBuilder SandboxBuilder
	ReportRenderer ReportRenderer
	Logger         *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Run performs one delivery request for a Repro: docker tarball assembly,
// PR branch posting, sandbox construction, or PDF/JSON report emission
// (spec.md §4.8), persisting the outcome as an Export record.
func Run(ctx context.Context, deps *Deps, msg Message) (domain.Export, error) {
	exportID := uuid.NewString()

	result, err := deps.deliver(ctx, exportID, msg)
	status := domain.ExportSucceeded
	resultBlob := "{}"
	if err != nil {
		status = domain.ExportFailed
		resultBlob = fmt.Sprintf(`{"error": %q}`, err.Error())
		deps.logger().Error("export: delivery failed", "repro_id", msg.ReproID, "export_type", msg.ExportType, "error", err)
	} else if result != nil {
		encoded, merr := json.Marshal(result)
		if merr != nil {
			return domain.Export{}, fmt.Errorf("export: marshal result for repro %s: %w", msg.ReproID, merr)
		}
		resultBlob = string(encoded)
	}

	e := domain.Export{
		ID:      exportID,
		ReproID: msg.ReproID,
		Type:    msg.ExportType,
		Result:  resultBlob,
		Status:  status,
	}
	if deps.Exports != nil {
		created, cerr := deps.Exports.Create(ctx, e)
		if cerr != nil {
			return domain.Export{}, fmt.Errorf("export: persist export for repro %s: %w", msg.ReproID, cerr)
		}
		e = created
	}
	return e, err
}

func (d *Deps) deliver(ctx context.Context, exportID string, msg Message) (map[string]any, error) {
	switch msg.ExportType {
	case domain.ExportDocker:
		return d.deliverDocker(ctx, exportID, msg)
	case domain.ExportPR:
		return d.deliverPR(ctx, msg)
	case domain.ExportSandbox:
		return d.deliverSandbox(ctx, msg)
	default:
		return d.deliverReport(ctx, msg)
	}
}

func (d *Deps) deliverDocker(ctx context.Context, exportID string, msg Message) (map[string]any, error) {
	if d.CLIRepros == nil {
		return nil, fmt.Errorf("export: no cli_repro store configured")
	}
	cli, files, err := d.loadProjectFiles(ctx, msg.ReproID)
	if err != nil {
		return nil, err
	}

	imageRef := fmt.Sprintf("repropipe/repro-%s:%s", msg.ReproID, cli.Ecosystem)
	tarballBytes, err := BuildDockerTarball(imageRef, files)
	if err != nil {
		return nil, err
	}

	key := objstore.ExportKey(exportID, "image.tar")
	if d.Objects != nil {
		if err := d.Objects.Put(ctx, key, bytes.NewReader(tarballBytes)); err != nil {
			return nil, fmt.Errorf("export: upload docker tarball for repro %s: %w", msg.ReproID, err)
		}
	}
	return map[string]any{"image_ref": imageRef, "tarball_key": key}, nil
}

func (d *Deps) loadProjectFiles(ctx context.Context, reproID string) (domain.CLIRepro, map[string][]byte, error) {
	items, err := d.CLIRepros.List(ctx, repo.ListOpts{Filter: map[string]any{"repro_id": reproID}})
	if err != nil {
		return domain.CLIRepro{}, nil, fmt.Errorf("export: list cli_repro for %s: %w", reproID, err)
	}
	if len(items) == 0 {
		return domain.CLIRepro{}, nil, fmt.Errorf("export: no cli_repro found for repro %s", reproID)
	}
	cli := items[0]

	files := map[string][]byte{
		"Dockerfile":         []byte(cli.Dockerfile),
		"docker-compose.yml": []byte(cli.ComposeFile),
	}
	if cli.TestFile != "" && d.Objects != nil {
		key := objstore.GeneratedTestKey(reproID, string(cli.Ecosystem), cli.TestFile)
		rc, err := d.Objects.Get(ctx, key)
		if err == nil {
			defer rc.Close()
			if data, err := io.ReadAll(rc); err == nil {
				files[cli.TestFile] = data
			}
		}
	}
	return cli, files, nil
}

func (d *Deps) deliverPR(ctx context.Context, msg Message) (map[string]any, error) {
	if d.PRPoster == nil {
		return nil, fmt.Errorf("export: no PR poster configured")
	}
	_, files, err := d.loadProjectFiles(ctx, msg.ReproID)
	if err != nil {
		return nil, err
	}
	url, err := d.PRPoster.PostPR(ctx, msg.ReproID, files)
	if err != nil {
		return nil, fmt.Errorf("export: post PR for repro %s: %w", msg.ReproID, err)
	}
	return map[string]any{"pr_url": url}, nil
}

func (d *Deps) deliverSandbox(ctx context.Context, msg Message) (map[string]any, error) {
	if d.SandboxBuilder == nil {
		return nil, fmt.Errorf("export: no sandbox builder configured")
	}
	_, files, err := d.loadProjectFiles(ctx, msg.ReproID)
	if err != nil {
		return nil, err
	}
	url, err := d.SandboxBuilder.BuildSandbox(ctx, msg.ReproID, files)
	if err != nil {
		return nil, fmt.Errorf("export: build sandbox for repro %s: %w", msg.ReproID, err)
	}
	return map[string]any{"sandbox_url": url}, nil
}

func (d *Deps) deliverReport(ctx context.Context, msg Message) (map[string]any, error) {
	renderer := d.ReportRenderer
	if renderer == nil {
		renderer = JSONReportRenderer{}
	}
	rendered, err := renderer.Render(ctx, msg.ReproID, msg.Options)
	if err != nil {
		return nil, fmt.Errorf("export: render report for repro %s: %w", msg.ReproID, err)
	}
	return map[string]any{"report": string(rendered)}, nil
}

// Handler adapts Run to workerrt.Handler[Message], publishing the resulting
// Export via publish (export.completed) when provided. Run's error return
// distinguishes a delivery failure (e carries a persisted Status=failed
// record; nothing left to retry) from an infra failure (e is the zero
// value because the record never got persisted). Only the latter is
// returned to the caller, since a failed PR/sandbox/docker push is rarely
// transient but an unpersisted write is worth a redelivery.
func Handler(deps *Deps, publish func(context.Context, domain.Export) error) func(ctx context.Context, scratchDir string, msg Message) error {
	return func(ctx context.Context, _ string, msg Message) error {
		e, err := Run(ctx, deps, msg)
		if err != nil && e.ID == "" {
			return err
		}
		if publish != nil {
			return publish(ctx, e)
		}
		return nil
	}
}
