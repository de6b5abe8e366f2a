package portfolios

import "context"

// Repo persists portfolios. Each resume and each owner has at most one.
type Repo interface {
	// Create fails with ErrConflict when the resume or owner already has one.
	Create(ctx context.Context, p Portfolio) error
	GetByResume(ctx context.Context, resumeID string) (Portfolio, error)
	GetByOwner(ctx context.Context, ownerID string) (Portfolio, error)
	Update(ctx context.Context, p Portfolio) error
	// RecordView increments the view counter of a published portfolio and returns it.
	RecordView(ctx context.Context, id string) (Portfolio, error)
	Delete(ctx context.Context, id string) error
	// DeleteByResume returns the number of portfolios removed.
	DeleteByResume(ctx context.Context, resumeID string) (int, error)
}
