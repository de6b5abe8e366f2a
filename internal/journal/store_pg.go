package journal

import (
	"context"
	"database/sql"
	"time"
)

// PGStore implements Store on the resume_mutations table.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *PGStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *PGStore) Begin(ctx context.Context, e Entry) error {
	if e.Status == "" {
		e.Status = StatusPending
	}
	payload := []byte(e.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	const query = `
INSERT INTO resume_mutations (id, resume_id, owner_id, operation, base_version, step, status, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.DB.ExecContext(ctx, query,
		e.ID,
		e.ResumeID,
		e.OwnerID,
		e.Operation,
		e.BaseVersion,
		e.Step,
		string(e.Status),
		payload,
		e.CreatedAt,
		e.UpdatedAt,
	)
	return err
}

func (s *PGStore) Advance(ctx context.Context, id string, step int) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE resume_mutations SET step = $2, updated_at = $3 WHERE id = $1`, id, step, s.now())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) Finish(ctx context.Context, id string, status Status, lastErr string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE resume_mutations SET status = $2, last_error = $3, updated_at = $4 WHERE id = $1`,
		id, string(status), nullableString(lastErr), s.now())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) Pending(ctx context.Context, resumeID string) ([]Entry, error) {
	const query = `
SELECT id, resume_id, owner_id, operation, base_version, step, status, payload, last_error, created_at, updated_at
FROM resume_mutations
WHERE resume_id = $1 AND status = 'pending'
ORDER BY created_at ASC, base_version ASC`
	rows, err := s.DB.QueryContext(ctx, query, resumeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var status string
		var payload []byte
		var lastErr sql.NullString
		if err := rows.Scan(
			&e.ID,
			&e.ResumeID,
			&e.OwnerID,
			&e.Operation,
			&e.BaseVersion,
			&e.Step,
			&status,
			&payload,
			&lastErr,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Status = Status(status)
		e.Payload = append(e.Payload[:0], payload...)
		e.LastError = lastErr.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteByResume(ctx context.Context, resumeID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM resume_mutations WHERE resume_id = $1`, resumeID)
	return err
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

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

var _ Store = (*PGStore)(nil)
