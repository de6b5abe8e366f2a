package versions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

const snapshotColumns = `id, resume_id, owner_id, version_number, name, description, fields, created_at`

func (s *PGStore) Put(ctx context.Context, snap Snapshot) error {
	fields, err := json.Marshal(snap.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	const query = `
INSERT INTO resume_versions (id, resume_id, owner_id, version_number, name, description, fields, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.DB.ExecContext(ctx, query,
		snap.ID,
		snap.ResumeID,
		snap.OwnerID,
		snap.VersionNumber,
		snap.Name,
		snap.Description,
		fields,
		snap.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, resumeID string, versionNumber int) (Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM resume_versions WHERE resume_id = $1 AND version_number = $2`
	snap, err := scanSnapshot(s.DB.QueryRowContext(ctx, query, resumeID, versionNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *PGStore) GetByID(ctx context.Context, snapshotID string) (Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM resume_versions WHERE id = $1`
	snap, err := scanSnapshot(s.DB.QueryRowContext(ctx, query, snapshotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, err
	}
	return snap, nil
}

// ListByResume runs the query when ranged over and streams rows as they are scanned.
func (s *PGStore) ListByResume(ctx context.Context, resumeID string) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		query := `SELECT ` + snapshotColumns + ` FROM resume_versions WHERE resume_id = $1 ORDER BY version_number DESC`
		rows, err := s.DB.QueryContext(ctx, query, resumeID)
		if err != nil {
			yield(Snapshot{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			snap, err := scanSnapshot(rows)
			if err != nil {
				yield(Snapshot{}, err)
				return
			}
			if !yield(snap, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Snapshot{}, err)
		}
	}
}

func (s *PGStore) MaxVersion(ctx context.Context, resumeID string) (int, error) {
	const query = `SELECT COALESCE(MAX(version_number), 0) FROM resume_versions WHERE resume_id = $1`
	var max int
	if err := s.DB.QueryRowContext(ctx, query, resumeID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (s *PGStore) DeleteAllForResume(ctx context.Context, resumeID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM resume_versions WHERE resume_id = $1`, resumeID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var fields []byte
	if err := row.Scan(
		&snap.ID,
		&snap.ResumeID,
		&snap.OwnerID,
		&snap.VersionNumber,
		&snap.Name,
		&snap.Description,
		&fields,
		&snap.CreatedAt,
	); err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal(fields, &snap.Fields); err != nil {
		return Snapshot{}, fmt.Errorf("decode fields: %w", err)
	}
	return snap, nil
}

var _ Store = (*PGStore)(nil)
