package users

import "context"

type Repo interface {
	// Upsert stores identity fields. Empty fields keep their stored value.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetByUsername matches case-insensitively.
	GetByUsername(ctx context.Context, username string) (User, error)
	// SetUsername fails with ErrUsernameTaken when another user holds it.
	SetUsername(ctx context.Context, userID, username string) error
}
