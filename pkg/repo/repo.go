// Package repo defines the generic Repository interface shared by every
// relational-store-backed collection in the pipeline (reports, signals,
// signatures, mappings, repros, steps, runs, exports, cli_repros).
package repo

import "context"

// Repository is a generic CRUD interface. Each concrete store
// (pkg/relstore) implements it per table.
type Repository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (T, error)
	List(ctx context.Context, opts ListOpts) ([]T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entity T) (T, error)
	Delete(ctx context.Context, id ID) error
}

// ListOpts controls pagination and filtering for List operations.
type ListOpts struct {
	Offset int
	Limit  int
	Filter map[string]any
}

// Upserter is implemented by repositories whose natural key requires
// merge-on-conflict semantics for at-least-once idempotence (spec.md §4.1),
// such as error_signatures keyed by signature_hash.
type Upserter[T any] interface {
	Upsert(ctx context.Context, entity T) (T, error)
}
