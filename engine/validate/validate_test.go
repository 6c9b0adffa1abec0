package validate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/envelope"
	"github.com/repropipe/fabric/pkg/repo"
)

type scriptedExecutor struct {
	mu      sync.Mutex
	pattern []bool // PPFPF etc, indexed by iteration-1
}

func (e *scriptedExecutor) Execute(_ context.Context, _ envelope.Config, _ string, iteration int, _ []domain.Step) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	passed := e.pattern[(iteration-1)%len(e.pattern)]
	return Outcome{Passed: passed, DurationMS: int64(100 * iteration), ExitCode: boolToExit(passed)}, nil
}

func boolToExit(passed bool) int {
	if passed {
		return 0
	}
	return 1
}

type fakeReproRepo struct{ updated domain.Repro }

func (f *fakeReproRepo) Get(_ context.Context, id string) (domain.Repro, error) {
	return domain.Repro{ID: id, Status: domain.ReproCreated}, nil
}
func (f *fakeReproRepo) List(context.Context, repo.ListOpts) ([]domain.Repro, error) { return nil, nil }
func (f *fakeReproRepo) Create(_ context.Context, r domain.Repro) (domain.Repro, error) {
	return r, nil
}
func (f *fakeReproRepo) Update(_ context.Context, r domain.Repro) (domain.Repro, error) {
	f.updated = r
	return r, nil
}
func (f *fakeReproRepo) Delete(context.Context, string) error { return nil }

type fakeStepLister struct{ steps []domain.Step }

func (f *fakeStepLister) ListByRepro(context.Context, string) ([]domain.Step, error) {
	return f.steps, nil
}

type fakeRunWriter struct{ created []domain.Run }

func (f *fakeRunWriter) Create(_ context.Context, r domain.Run) (domain.Run, error) {
	f.created = append(f.created, r)
	return r, nil
}

type fakeStabilityCache struct{ record any }

func (f *fakeStabilityCache) PutStability(_ context.Context, _ string, record any) error {
	f.record = record
	return nil
}

func twoSteps() []domain.Step {
	return []domain.Step{
		{ReproID: "r1", OrderIdx: 0, Kind: domain.StepNavigate},
		{ReproID: "r1", OrderIdx: 1, Kind: domain.StepSubmit},
	}
}

func TestRun_PPFPFPatternMatchesSeedScenario(t *testing.T) {
	repros := &fakeReproRepo{}
	runs := &fakeRunWriter{}
	stability := &fakeStabilityCache{}
	deps := &Deps{
		Repros:    repros,
		Steps:     &fakeStepLister{steps: twoSteps()},
		Runs:      runs,
		Stability: stability,
		Executor:  &scriptedExecutor{pattern: []bool{true, true, false, true, false}},
	}

	record, err := Run(context.Background(), deps, Message{ReproID: "r1", Runs: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.StabilityScore != 0.6 {
		t.Fatalf("expected stability_score 0.6, got %f", record.StabilityScore)
	}
	if record.FlakyScore < 0.24-0.001 || record.FlakyScore > 0.24+0.001 {
		t.Fatalf("expected flaky_score 0.24, got %f", record.FlakyScore)
	}
	if record.Classification != domain.StabilityUnstable {
		t.Fatalf("expected unstable classification, got %s", record.Classification)
	}
	if len(runs.created) != 5 {
		t.Fatalf("expected 5 run rows persisted, got %d", len(runs.created))
	}
	if repros.updated.Status != domain.ReproValidated {
		t.Fatalf("expected repro marked validated, got %s", repros.updated.Status)
	}
}

func TestRun_AllPassSkipsMinimization(t *testing.T) {
	repros := &fakeReproRepo{}
	deps := &Deps{
		Repros:    repros,
		Steps:     &fakeStepLister{steps: twoSteps()},
		Runs:      &fakeRunWriter{},
		Stability: &fakeStabilityCache{},
		Executor:  &scriptedExecutor{pattern: []bool{true}},
	}
	record, err := Run(context.Background(), deps, Message{ReproID: "r1", Runs: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if record.FlakyScore != 0 || record.Classification != domain.StabilityStable {
		t.Fatalf("expected stable/0 flaky, got %+v", record)
	}
}

type erroringExecutor struct{}

func (erroringExecutor) Execute(context.Context, envelope.Config, string, int, []domain.Step) (Outcome, error) {
	return Outcome{}, errors.New("container refused")
}

func TestRun_ExecuteErrorBecomesFailedRunNotFatal(t *testing.T) {
	deps := &Deps{
		Repros:    &fakeReproRepo{},
		Steps:     &fakeStepLister{steps: twoSteps()},
		Runs:      &fakeRunWriter{},
		Stability: &fakeStabilityCache{},
		Executor:  erroringExecutor{},
	}
	record, err := Run(context.Background(), deps, Message{ReproID: "r1", Runs: 3})
	if err != nil {
		t.Fatalf("expected Run to absorb executor errors, got %v", err)
	}
	if record.StabilityScore != 0 {
		t.Fatalf("expected all runs failed, got stability_score %f", record.StabilityScore)
	}
}
