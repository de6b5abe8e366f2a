package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
	// Now stamps updated_at on mutations; defaults to time.Now in UTC.
	Now func() time.Time
}

const resumeColumns = `id, owner_id, current_version, fields, has_portfolio, portfolio_ref, created_at, updated_at`

// Create inserts a resume.
func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	fields, err := json.Marshal(resume.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	const query = `
INSERT INTO resumes (id, owner_id, current_version, fields, has_portfolio, portfolio_ref, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.DB.ExecContext(ctx, query,
		resume.ID,
		resume.OwnerID,
		resume.CurrentVersion,
		fields,
		resume.HasPortfolio,
		nullableString(resume.PortfolioRef),
		resume.CreatedAt,
		resume.UpdatedAt,
	)
	return err
}

// GetByID returns a resume by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1 LIMIT 1`
	resume, err := scanResume(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

// ListByOwner lists the owner's resumes ordered by last update.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE owner_id = $1 ORDER BY updated_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

// ApplyMutation locks the row, applies fn and writes fields and version in one transaction.
func (r *PGRepo) ApplyMutation(ctx context.Context, id string, steps int, fn Mutator) (Resume, error) {
	if steps < 1 {
		return Resume{}, fmt.Errorf("mutation steps must be positive, got %d", steps)
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Resume{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1 FOR UPDATE`
	current, err := scanResume(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}

	next, err := fn(current.Clone())
	if err != nil {
		return Resume{}, err
	}
	payload, err := json.Marshal(next)
	if err != nil {
		return Resume{}, fmt.Errorf("marshal fields: %w", err)
	}

	current.Fields = next.Clone()
	current.CurrentVersion += steps
	current.UpdatedAt = r.now()

	const update = `
UPDATE resumes
SET fields = $2, current_version = $3, updated_at = $4
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, payload, current.CurrentVersion, current.UpdatedAt); err != nil {
		return Resume{}, err
	}
	if err := tx.Commit(); err != nil {
		return Resume{}, fmt.Errorf("commit: %w", err)
	}
	return current, nil
}

func (r *PGRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// SetPortfolio updates the portfolio denormalization.
func (r *PGRepo) SetPortfolio(ctx context.Context, id string, hasPortfolio bool, portfolioRef string) error {
	const query = `
UPDATE resumes
SET has_portfolio = $2, portfolio_ref = $3
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, hasPortfolio, nullableString(portfolioRef))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes the resume row.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var resume Resume
	var fields []byte
	var portfolioRef sql.NullString
	if err := row.Scan(
		&resume.ID,
		&resume.OwnerID,
		&resume.CurrentVersion,
		&fields,
		&resume.HasPortfolio,
		&portfolioRef,
		&resume.CreatedAt,
		&resume.UpdatedAt,
	); err != nil {
		return Resume{}, err
	}
	if err := json.Unmarshal(fields, &resume.Fields); err != nil {
		return Resume{}, fmt.Errorf("decode fields: %w", err)
	}
	if portfolioRef.Valid {
		resume.PortfolioRef = portfolioRef.String
	}
	return resume, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
