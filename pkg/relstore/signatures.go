package relstore

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/repropipe/fabric/engine/domain"
	"github.com/repropipe/fabric/pkg/repo"
)

// SignatureRepo persists error_signatures, keyed by signature_hash with
// upsert-and-increment-frequency semantics (spec.md's invariant 1 in §8): a
// re-observed signature bumps Frequency instead of duplicating the row.
type SignatureRepo struct{ db *DB }

func NewSignatureRepo(db *DB) *SignatureRepo { return &SignatureRepo{db: db} }

var (
	_ repo.Repository[domain.Signature, string] = (*SignatureRepo)(nil)
	_ repo.Upserter[domain.Signature]            = (*SignatureRepo)(nil)
)

func (r *SignatureRepo) Get(ctx context.Context, hash string) (domain.Signature, error) {
	var s domain.Signature
	var keyComponents pq.StringArray
	row := r.db.QueryRowxContext(ctx,
		`SELECT signature_hash, report_id, error_type, message, details, stack_trace,
		        key_components, severity, frequency, updated_at
		 FROM error_signatures WHERE signature_hash = $1`, hash)
	err := row.Scan(&s.SignatureHash, &s.ReportID, &s.ErrorType, &s.Message, &s.Details,
		&s.StackTrace, &keyComponents, &s.Severity, &s.Frequency, &s.UpdatedAt)
	if err != nil {
		return domain.Signature{}, fmt.Errorf("relstore: get signature %s: %w", hash, err)
	}
	s.KeyComponents = []string(keyComponents)
	return s, nil
}

func (r *SignatureRepo) List(ctx context.Context, opts repo.ListOpts) ([]domain.Signature, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT signature_hash, report_id, error_type, message, details, stack_trace,
		        key_components, severity, frequency, updated_at
		 FROM error_signatures ORDER BY updated_at DESC OFFSET $1 LIMIT $2`,
		opts.Offset, limitOrDefault(opts.Limit))
	if err != nil {
		return nil, fmt.Errorf("relstore: list signatures: %w", err)
	}
	defer rows.Close()
	var out []domain.Signature
	for rows.Next() {
		var s domain.Signature
		var keyComponents pq.StringArray
		if err := rows.Scan(&s.SignatureHash, &s.ReportID, &s.ErrorType, &s.Message, &s.Details,
			&s.StackTrace, &keyComponents, &s.Severity, &s.Frequency, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("relstore: scan signature: %w", err)
		}
		s.KeyComponents = []string(keyComponents)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SignatureRepo) Create(ctx context.Context, s domain.Signature) (domain.Signature, error) {
	return r.Upsert(ctx, s)
}

// Upsert inserts a new signature row or, on signature_hash conflict,
// increments frequency by the incoming frequency and refreshes updated_at
// (spec.md §4.3: "frequency += incoming.frequency"). Callers passing a
// freshly-extracted signature with Frequency 0 get it treated as 1.
func (r *SignatureRepo) Upsert(ctx context.Context, s domain.Signature) (domain.Signature, error) {
	freq := s.Frequency
	if freq <= 0 {
		freq = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO error_signatures
			(signature_hash, report_id, error_type, message, details, stack_trace, key_components, severity, frequency, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (signature_hash) DO UPDATE SET
			frequency = error_signatures.frequency + excluded.frequency,
			updated_at = now()`,
		s.SignatureHash, s.ReportID, s.ErrorType, s.Message, s.Details, s.StackTrace,
		pq.StringArray(s.KeyComponents), s.Severity, freq)
	if err != nil {
		return domain.Signature{}, fmt.Errorf("relstore: upsert signature: %w", err)
	}
	return r.Get(ctx, s.SignatureHash)
}

func (r *SignatureRepo) Update(ctx context.Context, s domain.Signature) (domain.Signature, error) {
	return r.Upsert(ctx, s)
}

func (r *SignatureRepo) Delete(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM error_signatures WHERE signature_hash = $1`, hash)
	if err != nil {
		return fmt.Errorf("relstore: delete signature %s: %w", hash, err)
	}
	return nil
}
