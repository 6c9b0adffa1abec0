package relstore

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/repropipe/fabric/engine/domain"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return &DB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func TestReportRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepo(db)

	rep := domain.Report{ID: "rep-1", Description: "boom", CreatedAt: time.Now()}
	mock.ExpectExec("INSERT INTO reports").
		WithArgs(rep.ID, rep.Description, rep.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	got, err := repo.Create(context.Background(), rep)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != rep.ID {
		t.Fatalf("expected id %q, got %q", rep.ID, got.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportRepo_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepo(db)

	rows := sqlmock.NewRows([]string{"id", "description", "created_at"}).
		AddRow("rep-1", "boom", time.Now())
	mock.ExpectQuery("SELECT id, description, created_at FROM reports").
		WithArgs("rep-1").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "rep-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Description != "boom" {
		t.Fatalf("expected description %q, got %q", "boom", got.Description)
	}
}

func TestSignalRepo_Update_Unsupported(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewSignalRepo(db)
	if _, err := repo.Update(context.Background(), domain.Signal{ID: "sig-1"}); err == nil {
		t.Fatal("expected error, signals are immutable")
	}
}
