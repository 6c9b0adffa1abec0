package validate

import (
	"context"
	"fmt"
	"time"

	"github.com/repropipe/fabric/engine/clibuild"
	"github.com/repropipe/fabric/engine/determinism"
	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/envelope"
	"github.com/repropipe/fabric/pkg/repo"
)

// ContainerExecutor runs a Repro's CLI-build command inside a fresh
// determinism envelope for each validation iteration, reusing the
// Determinism Controller's state machine rather than re-implementing
// container lifecycle management per run.
type ContainerExecutor struct {
	CLIRepros repo.Repository[domain.CLIRepro, string]
	Stats     envelope.StatsSink
}

var _ Executor = (*ContainerExecutor)(nil)

// Execute looks up the Repro's generated build command and image, then
// drives one envelope-wrapped execution via engine/determinism. steps is
// currently unused by the container executor (the repro's own generated
// test code already encodes them); it is accepted so future browser-driven
// executors can synthesize a fresh selector Resolver per run instead.
func (e *ContainerExecutor) Execute(ctx context.Context, cfg envelope.Config, reproID string, iteration int, steps []domain.Step) (Outcome, error) {
	items, err := e.CLIRepros.List(ctx, repo.ListOpts{Filter: map[string]any{"repro_id": reproID}, Limit: 1})
	if err != nil {
		return Outcome{}, fmt.Errorf("validate: list cli_repro for %s: %w", reproID, err)
	}
	if len(items) == 0 {
		return Outcome{}, fmt.Errorf("validate: no cli_repro found for repro %s", reproID)
	}
	cli := items[0]

	if cfg.Image == "" {
		cfg.Image = clibuild.BaseImage(cli.Ecosystem)
	}

	deps := &determinism.Deps{Stats: e.Stats}
	msg := determinism.Message{
		TestID:  fmt.Sprintf("%s-run-%d", reproID, iteration),
		Config:  cfg,
		Command: []string{"sh", "-c", cli.BuildCommand},
	}
	result, err := determinism.Run(ctx, deps, msg)
	if err != nil {
		return Outcome{}, fmt.Errorf("validate: execute run %d for repro %s: %w", iteration, reproID, err)
	}

	return Outcome{
		Passed:     result.ExitCode == 0,
		DurationMS: result.DurationMS,
		ExitCode:   result.ExitCode,
		Logs:       result.Output,
	}, nil
}

// DefaultSamplerInterval matches the determinism worker's own default.
const DefaultSamplerInterval = 5 * time.Second
