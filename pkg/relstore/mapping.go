package relstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

// MappingRepo persists Map worker output. Written once per report
// (spec.md §3); Update is unsupported.
type MappingRepo struct{ db *DB }

func NewMappingRepo(db *DB) *MappingRepo { return &MappingRepo{db: db} }

var _ repo.Repository[domain.Mapping, string] = (*MappingRepo)(nil)

func (r *MappingRepo) Get(ctx context.Context, id string) (domain.Mapping, error) {
	var row mappingRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, project_id, report_id, framework_scores, module_suggestions, doc_results, confidence_score
		FROM mappings WHERE id = $1`, id)
	if err != nil {
		return domain.Mapping{}, fmt.Errorf("relstore: get mapping %s: %w", id, err)
	}
	return row.toDomain()
}

func (r *MappingRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Mapping, error) {
	var rows []mappingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, project_id, report_id, framework_scores, module_suggestions, doc_results, confidence_score
		FROM mappings ORDER BY id OFFSET $1 LIMIT $2`, opts.Offset, limitOrDefault(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("relstore: list mappings: %w", err)
	}
	out := make([]domain.Mapping, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MappingRepo) Create(ctx context.Context, m domain.Mapping) (domain.Mapping, error) {
	row, err := fromDomainMapping(m)
	if err != nil {
		return domain.Mapping{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO mappings (id, project_id, report_id, framework_scores, module_suggestions, doc_results, confidence_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.ID, row.ProjectID, row.ReportID, row.FrameworkScores, row.ModuleSuggestions, row.DocResults, row.ConfidenceScore)
	if err != nil {
		return domain.Mapping{}, fmt.Errorf("relstore: create mapping: %w", err)
	}
	return m, nil
}

func (r *MappingRepo) Update(ctx context.Context, m domain.Mapping) (domain.Mapping, error) {
	return domain.Mapping{}, fmt.Errorf("relstore: mappings are write-once, cannot update %s", m.ID)
}

func (r *MappingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mappings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete mapping %s: %w", id, err)
	}
	return nil
}

// mappingRow mirrors domain.Mapping with JSON-serialized composite columns,
// since framework_scores/module_suggestions/doc_results have no native
// Postgres array/scalar representation.
type mappingRow struct {
	ID                string `db:"id"`
	ProjectID         string `db:"project_id"`
	ReportID          string `db:"report_id"`
	FrameworkScores   []byte `db:"framework_scores"`
	ModuleSuggestions []byte `db:"module_suggestions"`
	DocResults        []byte `db:"doc_results"`
	ConfidenceScore   float64 `db:"confidence_score"`
}

func fromDomainMapping(m domain.Mapping) (mappingRow, error) {
	fs, err := json.Marshal(m.FrameworkScores)
	if err != nil {
		return mappingRow{}, fmt.Errorf("relstore: marshal framework_scores: %w", err)
	}
	ms, err := json.Marshal(m.ModuleSuggestions)
	if err != nil {
		return mappingRow{}, fmt.Errorf("relstore: marshal module_suggestions: %w", err)
	}
	dr, err := json.Marshal(m.DocResults)
	if err != nil {
		return mappingRow{}, fmt.Errorf("relstore: marshal doc_results: %w", err)
	}
	return mappingRow{
		ID: m.ID, ProjectID: m.ProjectID, ReportID: m.ReportID,
		FrameworkScores: fs, ModuleSuggestions: ms, DocResults: dr,
		ConfidenceScore: m.ConfidenceScore,
	}, nil
}

func (row mappingRow) toDomain() (domain.Mapping, error) {
	m := domain.Mapping{ID: row.ID, ProjectID: row.ProjectID, ReportID: row.ReportID, ConfidenceScore: row.ConfidenceScore}
	if err := json.Unmarshal(row.FrameworkScores, &m.FrameworkScores); err != nil {
		return domain.Mapping{}, fmt.Errorf("relstore: unmarshal framework_scores: %w", err)
	}
	if err := json.Unmarshal(row.ModuleSuggestions, &m.ModuleSuggestions); err != nil {
		return domain.Mapping{}, fmt.Errorf("relstore: unmarshal module_suggestions: %w", err)
	}
	if err := json.Unmarshal(row.DocResults, &m.DocResults); err != nil {
		return domain.Mapping{}, fmt.Errorf("relstore: unmarshal doc_results: %w", err)
	}
	return m, nil
}

// DocChunkRepo persists indexed project document chunks.
type DocChunkRepo struct{ db *DB }

func NewDocChunkRepo(db *DB) *DocChunkRepo { return &DocChunkRepo{db: db} }

var _ repo.Repository[domain.DocChunk, string] = (*DocChunkRepo)(nil)

func (r *DocChunkRepo) Get(ctx context.Context, id string) (domain.DocChunk, error) {
	var c domain.DocChunk
	var meta []byte
	row := r.db.QueryRowxContext(ctx,
		`SELECT id, project_id, file_path, chunk_text, chunk_index, meta FROM doc_chunks WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.ProjectID, &c.FilePath, &c.Text, &c.Index, &meta); err != nil {
		return domain.DocChunk{}, fmt.Errorf("relstore: get doc_chunk %s: %w", id, err)
	}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &c.Meta)
	}
	return c, nil
}

func (r *DocChunkRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.DocChunk, error) {
	query := `SELECT id, project_id, file_path, chunk_text, chunk_index, meta FROM doc_chunks`
	args := []any{}
	if projectID, ok := opts.Filter["project_id"]; ok {
		query += ` WHERE project_id = $1`
		args = append(args, projectID)
	}
	query += fmt.Sprintf(` ORDER BY chunk_index OFFSET %d LIMIT %d`, opts.Offset, limitOrDefault(opts.Limit))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("relstore: list doc_chunks: %w", err)
	}
	defer rows.Close()
	var out []domain.DocChunk
	for rows.Next() {
		var c domain.DocChunk
		var meta []byte
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.FilePath, &c.Text, &c.Index, &meta); err != nil {
			return nil, fmt.Errorf("relstore: scan doc_chunk: %w", err)
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &c.Meta)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *DocChunkRepo) Create(ctx context.Context, c domain.DocChunk) (domain.DocChunk, error) {
	meta, _ := json.Marshal(c.Meta)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO doc_chunks (id, project_id, file_path, chunk_text, chunk_index, meta) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ProjectID, c.FilePath, c.Text, c.Index, meta)
	if err != nil {
		return domain.DocChunk{}, fmt.Errorf("relstore: create doc_chunk: %w", err)
	}
	return c, nil
}

func (r *DocChunkRepo) Update(ctx context.Context, c domain.DocChunk) (domain.DocChunk, error) {
	return domain.DocChunk{}, fmt.Errorf("relstore: doc_chunks are write-once, cannot update %s", c.ID)
}

func (r *DocChunkRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doc_chunks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("relstore: delete doc_chunk %s: %w", id, err)
	}
	return nil
}
