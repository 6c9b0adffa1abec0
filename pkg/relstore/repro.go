package relstore

import (
	"context"
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

// ReproRepo persists Repros. A Repro exclusively owns its Steps and Runs
// (spec.md §3); callers insert those through StepRepo/RunRepo after Create.
type ReproRepo struct{ db *DB }

func NewReproRepo(db *DB) *ReproRepo { return &ReproRepo{db: db} }

var _ repo.Repository[domain.Repro, string] = (*ReproRepo)(nil)

func (r *ReproRepo) Get(ctx context.Context, id string) (domain.Repro, error) {
	var rep domain.Repro
	err := r.db.GetContext(ctx, &rep, `
		SELECT id, project_id, report_id, framework, entry, docker_compose, seed, status,
		       title, description, stability_score, created_at
		FROM repros WHERE id = $1`, id)
	if err != nil {
		return domain.Repro{}, fmt.Errorf("relstore: get repro %s: %w", id, err)
	}
	return rep, nil
}

func (r *ReproRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Repro, error) {
	var out []domain.Repro
	query := `SELECT id, project_id, report_id, framework, entry, docker_compose, seed, status,
	                 title, description, stability_score, created_at FROM repros`
	args := []any{}
	if reportID, ok := opts.Filter["report_id"]; ok {
		query += ` WHERE report_id = $1`
		args = append(args, reportID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET %d LIMIT %d`, opts.Offset, limitOrDefault(opts.Limit))
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("relstore: list repros: %w", err)
	}
	return out, nil
}

func (r *ReproRepo) Create(ctx context.Context, rep domain.Repro) (domain.Repro, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO repros (id, project_id, report_id, framework, entry, docker_compose, seed, status,
		                     title, description, stability_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rep.ID, rep.ProjectID, rep.ReportID, rep.Framework, rep.Entry, rep.DockerCompose, rep.Seed,
		rep.Status, rep.Title, rep.Description, rep.StabilityScore, rep.CreatedAt)
	if err != nil {
		return domain.Repro{}, fmt.Errorf("relstore: create repro: %w", err)
	}
	return rep, nil
}

func (r *ReproRepo) Update(ctx context.Context, rep domain.Repro) (domain.Repro, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE repros SET status = $2, stability_score = $3 WHERE id = $1`,
		rep.ID, rep.Status, rep.StabilityScore)
	if err != nil {
		return domain.Repro{}, fmt.Errorf("relstore: update repro: %w", err)
	}
	return rep, nil
}

func (r *ReproRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM repros WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete repro %s: %w", id, err)
	}
	return nil
}

// StepRepo persists a Repro's ordered Steps. ReplaceAll enforces the dense,
// 0-based OrderIdx invariant (spec.md invariant 2 in §8) by validating
// before writing, replacing the whole set atomically.
type StepRepo struct{ db *DB }

func NewStepRepo(db *DB) *StepRepo { return &StepRepo{db: db} }

// ReplaceAll validates step ordering and atomically replaces all steps for
// reproID.
func (r *StepRepo) ReplaceAll(ctx context.Context, reproID string, steps []domain.Step) error {
	if err := domain.ValidateStepOrder(steps); err != nil {
		return fmt.Errorf("relstore: invalid step order for repro %s: %w", reproID, err)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("relstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE repro_id = $1`, reproID); err != nil {
		return fmt.Errorf("relstore: clear steps: %w", err)
	}
	for _, s := range steps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO steps (repro_id, order_idx, kind, payload) VALUES ($1, $2, $3, $4)`,
			reproID, s.OrderIdx, s.Kind, s.Payload); err != nil {
			return fmt.Errorf("relstore: insert step %d: %w", s.OrderIdx, err)
		}
	}
	return tx.Commit()
}

// ListByRepro returns a Repro's steps ordered by OrderIdx.
func (r *StepRepo) ListByRepro(ctx context.Context, reproID string) ([]domain.Step, error) {
	var steps []domain.Step
	err := r.db.SelectContext(ctx, &steps,
		`SELECT repro_id, order_idx, kind, payload FROM steps WHERE repro_id = $1 ORDER BY order_idx`, reproID)
	if err != nil {
		return nil, fmt.Errorf("relstore: list steps for repro %s: %w", reproID, err)
	}
	return steps, nil
}

// RunRepo persists Repro execution Runs. Immutable once created
// (spec.md invariant 3 in §8).
type RunRepo struct{ db *DB }

func NewRunRepo(db *DB) *RunRepo { return &RunRepo{db: db} }

func (r *RunRepo) Create(ctx context.Context, run domain.Run) (domain.Run, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (repro_id, iteration, passed, duration_ms, exit_code, logs_s3, video_s3, trace_s3, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ReproID, run.Iteration, run.Passed, run.DurationMS, run.ExitCode, run.Logs, run.VideoS3, run.TraceS3, run.CreatedAt)
	if err != nil {
		return domain.Run{}, fmt.Errorf("relstore: create run: %w", err)
	}
	return run, nil
}

// ListByRepro returns all runs recorded for a Repro, ordered by iteration.
func (r *RunRepo) ListByRepro(ctx context.Context, reproID string) ([]domain.Run, error) {
	var runs []domain.Run
	err := r.db.SelectContext(ctx, &runs,
		`SELECT repro_id, iteration, passed, duration_ms, exit_code, logs_s3, video_s3, trace_s3, created_at
		 FROM runs WHERE repro_id = $1 ORDER BY iteration`, reproID)
	if err != nil {
		return nil, fmt.Errorf("relstore: list runs for repro %s: %w", reproID, err)
	}
	return runs, nil
}
