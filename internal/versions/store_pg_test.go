package versions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var snapshotCols = []string{"id", "resume_id", "owner_id", "version_number", "name", "description", "fields", "created_at"}

func newMock(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGStore{DB: db}, mock
}

func TestPGStorePutMapsUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	snap := snapshot("r-1", 2)

	mock.ExpectExec("INSERT INTO resume_versions").
		WithArgs(snap.ID, "r-1", "user-1", 2, snap.Name, snap.Description, sqlmock.AnyArg(), snap.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	if err := store.Put(context.Background(), snap); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreGetNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM resume_versions WHERE resume_id = \\$1 AND version_number = \\$2").
		WithArgs("r-1", 9).
		WillReturnError(sql.ErrNoRows)

	if _, err := store.Get(context.Background(), "r-1", 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreListByResumeStreamsRows(t *testing.T) {
	store, mock := newMock(t)
	fields, _ := json.Marshal(snapshot("r-1", 1).Fields)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM resume_versions WHERE resume_id = \\$1 ORDER BY version_number DESC").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows(snapshotCols).
			AddRow("s-2", "r-1", "user-1", 2, "Version 2", "", fields, now).
			AddRow("s-1", "r-1", "user-1", 1, "Initial Version", "", fields, now))

	list, err := Collect(store.ListByResume(context.Background(), "r-1"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(list) != 2 || list[0].VersionNumber != 2 || list[1].Fields.Skills[0].Name != "Go" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGStoreMaxVersion(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT COALESCE\\(MAX\\(version_number\\), 0\\)").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(7))

	max, err := store.MaxVersion(context.Background(), "r-1")
	if err != nil || max != 7 {
		t.Fatalf("expected 7, got %d, %v", max, err)
	}
}

func TestPGStoreDeleteAllForResume(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("DELETE FROM resume_versions WHERE resume_id = \\$1").
		WithArgs("r-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteAllForResume(context.Background(), "r-1"); err != nil {
		t.Fatalf("DeleteAllForResume: %v", err)
	}
}
