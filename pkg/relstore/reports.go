package relstore

import (
	"context"
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

// ReportRepo persists Reports. Description is appended-to via
// domain.MergeDescriptionFrames by callers before Update, never mutated here.
type ReportRepo struct{ db *DB }

func NewReportRepo(db *DB) *ReportRepo { return &ReportRepo{db: db} }

var _ repo.Repository[domain.Report, string] = (*ReportRepo)(nil)

func (r *ReportRepo) Get(ctx context.Context, id string) (domain.Report, error) {
	var rep domain.Report
	err := r.db.GetContext(ctx, &rep, `SELECT id, description, created_at FROM reports WHERE id = $1`, id)
	if err != nil {
		return domain.Report{}, fmt.Errorf("relstore: get report %s: %w", id, err)
	}
	return rep, nil
}

func (r *ReportRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Report, error) {
	var reps []domain.Report
	err := r.db.SelectContext(ctx, &reps,
		`SELECT id, description, created_at FROM reports ORDER BY created_at DESC OFFSET $1 LIMIT $2`,
		opts.Offset, limitOrDefault(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("relstore: list reports: %w", err)
	}
	return reps, nil
}

func (r *ReportRepo) Create(ctx context.Context, rep domain.Report) (domain.Report, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, description, created_at) VALUES ($1, $2, $3)`,
		rep.ID, rep.Description, rep.CreatedAt)
	if err != nil {
		return domain.Report{}, fmt.Errorf("relstore: create report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepo) Update(ctx context.Context, rep domain.Report) (domain.Report, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE reports SET description = $2 WHERE id = $1`, rep.ID, rep.Description)
	if err != nil {
		return domain.Report{}, fmt.Errorf("relstore: update report: %w", err)
	}
	return rep, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete report %s: %w", id, err)
	}
	return nil
}

// SignalRepo persists Signals, which are immutable once written.
type SignalRepo struct{ db *DB }

func NewSignalRepo(db *DB) *SignalRepo { return &SignalRepo{db: db} }

var _ repo.Repository[domain.Signal, string] = (*SignalRepo)(nil)

func (r *SignalRepo) Get(ctx context.Context, id string) (domain.Signal, error) {
	var s domain.Signal
	err := r.db.GetContext(ctx, &s, `SELECT id, report_id, kind, s3_key, meta FROM signals WHERE id = $1`, id)
	if err != nil {
		return domain.Signal{}, fmt.Errorf("relstore: get signal %s: %w", id, err)
	}
	return s, nil
}

func (r *SignalRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Signal, error) {
	var out []domain.Signal
	query := `SELECT id, report_id, kind, s3_key, meta FROM signals`
	args := []any{}
	if reportID, ok := opts.Filter["report_id"]; ok {
		query += ` WHERE report_id = $1`
		args = append(args, reportID)
	}
	query += fmt.Sprintf(` ORDER BY id OFFSET %d LIMIT %d`, opts.Offset, limitOrDefault(opts.Limit))
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("relstore: list signals: %w", err)
	}
	return out, nil
}

func (r *SignalRepo) Create(ctx context.Context, s domain.Signal) (domain.Signal, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO signals (id, report_id, kind, s3_key, meta) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.ReportID, s.Kind, s.S3Key, s.Meta)
	if err != nil {
		return domain.Signal{}, fmt.Errorf("relstore: create signal: %w", err)
	}
	return s, nil
}

// Update is unsupported: Signals are immutable after creation (spec.md §8).
func (r *SignalRepo) Update(ctx context.Context, s domain.Signal) (domain.Signal, error) {
	return domain.Signal{}, fmt.Errorf("relstore: signals are immutable, cannot update %s", s.ID)
}

func (r *SignalRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete signal %s: %w", id, err)
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
