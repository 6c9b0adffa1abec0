package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/engine/transform"
	"github.com/repropipe/fabric/pkg/repo"
)

type fakeFetcher struct{ data map[string]string }

func (f *fakeFetcher) Get(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(v)), nil
}

type fakeReportRepo struct {
	reports map[string]domain.Report
	updated domain.Report
}

func (f *fakeReportRepo) Get(_ context.Context, id string) (domain.Report, error) {
	r, ok := f.reports[id]
	if !ok {
		return domain.Report{}, errors.New("not found")
	}
	return r, nil
}
func (f *fakeReportRepo) List(context.Context, repo.ListOpts) ([]domain.Report, error) { return nil, nil }
func (f *fakeReportRepo) Create(_ context.Context, r domain.Report) (domain.Report, error) {
	return r, nil
}
func (f *fakeReportRepo) Update(_ context.Context, r domain.Report) (domain.Report, error) {
	f.updated = r
	f.reports[r.ID] = r
	return r, nil
}
func (f *fakeReportRepo) Delete(context.Context, string) error { return nil }

type fakeSignalRepo struct {
	bySignalReport map[string][]domain.Signal
}

func (f *fakeSignalRepo) Get(_ context.Context, id string) (domain.Signal, error) {
	return domain.Signal{}, errors.New("not implemented")
}
func (f *fakeSignalRepo) List(_ context.Context, opts repo.ListOpts) ([]domain.Signal, error) {
	return f.bySignalReport[opts.Filter["report_id"].(string)], nil
}
func (f *fakeSignalRepo) Create(_ context.Context, s domain.Signal) (domain.Signal, error) {
	return s, nil
}
func (f *fakeSignalRepo) Update(_ context.Context, s domain.Signal) (domain.Signal, error) {
	return domain.Signal{}, errors.New("immutable")
}
func (f *fakeSignalRepo) Delete(context.Context, string) error { return nil }

func TestExtractStage_TruncatesToMaxFrameChars(t *testing.T) {
	longRaw := strings.Repeat("2024-01-01T00:00:00Z ERROR x\n", 200)
	deps := &Deps{
		Objects:    &fakeFetcher{data: map[string]string{"k": longRaw}},
		Dispatcher: transform.NewDispatcher(transform.DefaultDispatchTable()),
	}
	sig := domain.Signal{ID: "s1", Kind: domain.SignalLog, S3Key: "k"}
	result := ExtractStage(deps)(context.Background(), sig)
	frame, err := result.Unwrap()
	if err != nil {
		t.Fatalf("ExtractStage: %v", err)
	}
	if len(frame.Text) > MaxFrameChars {
		t.Fatalf("expected truncation to %d chars, got %d", MaxFrameChars, len(frame.Text))
	}
	if frame.SignalID != "s1" {
		t.Fatalf("expected frame signal id s1, got %q", frame.SignalID)
	}
}

func TestExtractStage_FetchFailureYieldsEmptyFrameNotError(t *testing.T) {
	deps := &Deps{
		Objects:    &fakeFetcher{data: map[string]string{}},
		Dispatcher: transform.NewDispatcher(transform.DefaultDispatchTable()),
	}
	sig := domain.Signal{ID: "missing", Kind: domain.SignalLog, S3Key: "absent"}
	result := ExtractStage(deps)(context.Background(), sig)
	frame, err := result.Unwrap()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if frame.Text != "" {
		t.Fatalf("expected empty text on fetch failure, got %q", frame.Text)
	}
}

func TestRun_NoSignalsIsNoop(t *testing.T) {
	reports := &fakeReportRepo{reports: map[string]domain.Report{"r1": {ID: "r1"}}}
	signals := &fakeSignalRepo{bySignalReport: map[string][]domain.Signal{}}
	deps := &Deps{Reports: reports, Signals: signals, MaxConcurrentTasks: 2}
	if err := Run(context.Background(), deps, Message{ReportID: "r1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if reports.updated.ID != "" {
		t.Fatal("expected no update when report has no signals")
	}
}
