package relstore

import (
	"context"
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

// ExportRepo persists Export delivery records.
type ExportRepo struct{ db *DB }

func NewExportRepo(db *DB) *ExportRepo { return &ExportRepo{db: db} }

var _ repo.Repository[domain.Export, string] = (*ExportRepo)(nil)

func (r *ExportRepo) Get(ctx context.Context, id string) (domain.Export, error) {
	var e domain.Export
	err := r.db.GetContext(ctx, &e,
		`SELECT id, repro_id, export_type, result, status, created_at FROM exports WHERE id = $1`, id)
	if err != nil {
		return domain.Export{}, fmt.Errorf("relstore: get export %s: %w", id, err)
	}
	return e, nil
}

func (r *ExportRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Export, error) {
	var out []domain.Export
	query := `SELECT id, repro_id, export_type, result, status, created_at FROM exports`
	args := []any{}
	if reproID, ok := opts.Filter["repro_id"]; ok {
		query += ` WHERE repro_id = $1`
		args = append(args, reproID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC OFFSET %d LIMIT %d`, opts.Offset, limitOrDefault(opts.Limit))
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("relstore: list exports: %w", err)
	}
	return out, nil
}

func (r *ExportRepo) Create(ctx context.Context, e domain.Export) (domain.Export, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exports (id, repro_id, export_type, result, status, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.ReproID, e.Type, e.Result, e.Status, e.CreatedAt)
	if err != nil {
		return domain.Export{}, fmt.Errorf("relstore: create export: %w", err)
	}
	return e, nil
}

func (r *ExportRepo) Update(ctx context.Context, e domain.Export) (domain.Export, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE exports SET status = $2, result = $3 WHERE id = $1`, e.ID, e.Status, e.Result)
	if err != nil {
		return domain.Export{}, fmt.Errorf("relstore: update export: %w", err)
	}
	return e, nil
}

func (r *ExportRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM exports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete export %s: %w", id, err)
	}
	return nil
}

// CLIReproRepo persists CLI-build's per-ecosystem project trees.
type CLIReproRepo struct{ db *DB }

func NewCLIReproRepo(db *DB) *CLIReproRepo { return &CLIReproRepo{db: db} }

var _ repo.Repository[domain.CLIRepro, string] = (*CLIReproRepo)(nil)

func (r *CLIReproRepo) Get(ctx context.Context, id string) (domain.CLIRepro, error) {
	var c domain.CLIRepro
	err := r.db.GetContext(ctx, &c,
		`SELECT id, repro_id, ecosystem, test_file, build_command, dockerfile, compose_file, status
		 FROM cli_repros WHERE id = $1`, id)
	if err != nil {
		return domain.CLIRepro{}, fmt.Errorf("relstore: get cli_repro %s: %w", id, err)
	}
	return c, nil
}

func (r *CLIReproRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.CLIRepro, error) {
	var out []domain.CLIRepro
	query := `SELECT id, repro_id, ecosystem, test_file, build_command, dockerfile, compose_file, status FROM cli_repros`
	args := []any{}
	if reproID, ok := opts.Filter["repro_id"]; ok {
		query += ` WHERE repro_id = $1`
		args = append(args, reproID)
	}
	query += fmt.Sprintf(` ORDER BY id OFFSET %d LIMIT %d`, opts.Offset, limitOrDefault(opts.Limit))
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("relstore: list cli_repros: %w", err)
	}
	return out, nil
}

func (r *CLIReproRepo) Create(ctx context.Context, c domain.CLIRepro) (domain.CLIRepro, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cli_repros (id, repro_id, ecosystem, test_file, build_command, dockerfile, compose_file, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.ReproID, c.Ecosystem, c.TestFile, c.BuildCommand, c.Dockerfile, c.ComposeFile, c.Status)
	if err != nil {
		return domain.CLIRepro{}, fmt.Errorf("relstore: create cli_repro: %w", err)
	}
	return c, nil
}

func (r *CLIReproRepo) Update(ctx context.Context, c domain.CLIRepro) (domain.CLIRepro, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE cli_repros SET status = $2 WHERE id = $1`, c.ID, c.Status)
	if err != nil {
		return domain.CLIRepro{}, fmt.Errorf("relstore: update cli_repro: %w", err)
	}
	return c, nil
}

func (r *CLIReproRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cli_repros WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete cli_repro %s: %w", id, err)
	}
	return nil
}
