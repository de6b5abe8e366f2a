package exports

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const exportColumns = `id, resume_id, owner_id, version_number, template_id, storage_key, mime_type, size_bytes, created_at`

// Create inserts an export record.
func (r *PGRepo) Create(ctx context.Context, export Export) error {
	const query = `
INSERT INTO resume_exports (
    id, resume_id, owner_id, version_number, template_id, storage_key, mime_type, size_bytes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (resume_id, version_number, template_id) DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		export.ID,
		export.ResumeID,
		export.OwnerID,
		export.VersionNumber,
		export.TemplateID,
		export.StorageKey,
		export.MimeType,
		export.SizeBytes,
		export.CreatedAt,
	)
	return err
}

// Get returns the export for one variant.
func (r *PGRepo) Get(ctx context.Context, resumeID string, versionNumber int, templateID string) (Export, error) {
	query := `SELECT ` + exportColumns + `
FROM resume_exports
WHERE resume_id = $1 AND version_number = $2 AND template_id = $3
LIMIT 1`
	export, err := scanExport(r.DB.QueryRowContext(ctx, query, resumeID, versionNumber, templateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}
	return export, nil
}

// ListByResume lists exports ordered by newest version first.
func (r *PGRepo) ListByResume(ctx context.Context, resumeID string) ([]Export, error) {
	query := `SELECT ` + exportColumns + `
FROM resume_exports
WHERE resume_id = $1
ORDER BY version_number DESC, template_id`
	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// DeleteByResume deletes the resume's records and returns them.
func (r *PGRepo) DeleteByResume(ctx context.Context, resumeID string) ([]Export, error) {
	query := `DELETE FROM resume_exports WHERE resume_id = $1 RETURNING ` + exportColumns
	rows, err := r.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (Export, error) {
	var export Export
	err := row.Scan(
		&export.ID,
		&export.ResumeID,
		&export.OwnerID,
		&export.VersionNumber,
		&export.TemplateID,
		&export.StorageKey,
		&export.MimeType,
		&export.SizeBytes,
		&export.CreatedAt,
	)
	return export, err
}

func collect(rows *sql.Rows) ([]Export, error) {
	defer rows.Close()
	out := make([]Export, 0)
	for rows.Next() {
		export, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, export)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
