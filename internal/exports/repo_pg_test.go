package exports

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var exportRowColumns = []string{"id", "resume_id", "owner_id", "version_number", "template_id", "storage_key", "mime_type", "size_bytes", "created_at"}

func TestPGRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("FROM resume_exports\\s+WHERE resume_id = \\$1 AND version_number = \\$2 AND template_id = \\$3").
		WithArgs("r-1", 3, "modern").
		WillReturnRows(sqlmock.NewRows(exportRowColumns).
			AddRow("e-1", "r-1", "owner", 3, "modern", "exports/x/r-1/v3-modern.pdf", "application/pdf", int64(1024), now))
	mock.ExpectQuery("FROM resume_exports").
		WithArgs("r-1", 4, "modern").
		WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	export, err := repo.Get(context.Background(), "r-1", 3, "modern")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if export.SizeBytes != 1024 || export.StorageKey == "" {
		t.Fatalf("unexpected export %+v", export)
	}
	if _, err := repo.Get(context.Background(), "r-1", 4, "modern"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoCreateIgnoresDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("INSERT INTO resume_exports .* ON CONFLICT \\(resume_id, version_number, template_id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Export{ID: "e-1", ResumeID: "r-1", VersionNumber: 1, TemplateID: "modern", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoDeleteByResumeReturnsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("DELETE FROM resume_exports WHERE resume_id = \\$1 RETURNING").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows(exportRowColumns).
			AddRow("e-1", "r-1", "owner", 1, "modern", "k1", "application/pdf", int64(10), now).
			AddRow("e-2", "r-1", "owner", 2, "classic", "k2", "application/pdf", int64(20), now))

	repo := &PGRepo{DB: db}
	removed, err := repo.DeleteByResume(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("DeleteByResume: %v", err)
	}
	if len(removed) != 2 || removed[1].StorageKey != "k2" {
		t.Fatalf("unexpected removed rows %+v", removed)
	}
}
