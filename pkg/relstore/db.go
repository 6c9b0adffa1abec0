// Package relstore is the Postgres-backed relational store: one repository
// per table, implementing pkg/repo.Repository over pgx/sqlx, with goose
// migrations describing the schema (spec.md §6).
package relstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

// DB wraps a sqlx handle over a pgx stdlib connection pool.
type DB struct {
	*sqlx.DB
}

// Open connects to Postgres via the pgx stdlib driver and wraps it in sqlx,
// following the pgx+sqlx pairing used throughout the pack's storage layers.
func Open(ctx context.Context, dsn string) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("relstore: open: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("relstore: ping: %w", err)
	}
	return &DB{DB: sqlx.NewDb(sqlDB, "pgx")}, nil
}

// Migrate runs all pending goose migrations in dir against the store.
func (d *DB) Migrate(dir string) error {
	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("relstore: dialect: %w", err)
	}
	if err := goose.Up(d.DB.DB, dir); err != nil {
		return fmt.Errorf("relstore: migrate: %w", err)
	}
	return nil
}
