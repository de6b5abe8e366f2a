package portfolios

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// settings is the JSONB layout of the presentation columns.
type settings struct {
	Sections       Sections        `json:"sections"`
	CustomSections []CustomSection `json:"customSections"`
	SEO            SEO             `json:"seo"`
	Analytics      Analytics       `json:"analytics"`
	Social         Social          `json:"social"`
}

const portfolioColumns = `id, owner_id, resume_id, theme, settings, content, source_version, is_published, view_count, last_published, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, p Portfolio) error {
	settingsJSON, contentJSON, err := encode(p)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO portfolios (id, owner_id, resume_id, theme, settings, content, source_version, is_published, view_count, last_published, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.DB.ExecContext(ctx, query,
		p.ID,
		p.OwnerID,
		p.ResumeID,
		p.Theme,
		settingsJSON,
		contentJSON,
		p.SourceVersion,
		p.IsPublished,
		p.ViewCount,
		p.LastPublished,
		p.CreatedAt,
		p.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func (r *PGRepo) GetByResume(ctx context.Context, resumeID string) (Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE resume_id = $1 LIMIT 1`
	return scanOne(r.DB.QueryRowContext(ctx, query, resumeID))
}

func (r *PGRepo) GetByOwner(ctx context.Context, ownerID string) (Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE owner_id = $1 LIMIT 1`
	return scanOne(r.DB.QueryRowContext(ctx, query, ownerID))
}

// Update writes presentation fields and content; the view counter is left alone.
func (r *PGRepo) Update(ctx context.Context, p Portfolio) error {
	settingsJSON, contentJSON, err := encode(p)
	if err != nil {
		return err
	}
	const query = `
UPDATE portfolios
SET theme = $2, settings = $3, content = $4, source_version = $5, is_published = $6, last_published = $7, updated_at = $8
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.Theme,
		settingsJSON,
		contentJSON,
		p.SourceVersion,
		p.IsPublished,
		p.LastPublished,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) RecordView(ctx context.Context, id string) (Portfolio, error) {
	query := `
UPDATE portfolios
SET view_count = view_count + 1
WHERE id = $1 AND is_published
RETURNING ` + portfolioColumns
	return scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) DeleteByResume(ctx context.Context, resumeID string) (int, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM portfolios WHERE resume_id = $1`, resumeID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func encode(p Portfolio) ([]byte, []byte, error) {
	settingsJSON, err := json.Marshal(settings{
		Sections:       p.Sections,
		CustomSections: p.CustomSections,
		SEO:            p.SEO,
		Analytics:      p.Analytics,
		Social:         p.Social,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal settings: %w", err)
	}
	contentJSON, err := json.Marshal(p.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal content: %w", err)
	}
	return settingsJSON, contentJSON, nil
}

func scanOne(row *sql.Row) (Portfolio, error) {
	var p Portfolio
	var settingsJSON, contentJSON []byte
	var lastPublished sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.ResumeID,
		&p.Theme,
		&settingsJSON,
		&contentJSON,
		&p.SourceVersion,
		&p.IsPublished,
		&p.ViewCount,
		&lastPublished,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Portfolio{}, ErrNotFound
		}
		return Portfolio{}, err
	}
	var s settings
	if err := json.Unmarshal(settingsJSON, &s); err != nil {
		return Portfolio{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := json.Unmarshal(contentJSON, &p.Content); err != nil {
		return Portfolio{}, fmt.Errorf("decode content: %w", err)
	}
	p.Sections = s.Sections
	p.CustomSections = s.CustomSections
	p.SEO = s.SEO
	p.Analytics = s.Analytics
	p.Social = s.Social
	if lastPublished.Valid {
		t := lastPublished.Time.UTC()
		p.LastPublished = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
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

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
