package journal

import (
	"context"
	"errors"
)

// ErrNotFound indicates the journal entry does not exist.
var ErrNotFound = errors.New("journal entry not found")

// Store persists journal entries.
type Store interface {
	Begin(ctx context.Context, e Entry) error
	Advance(ctx context.Context, id string, step int) error
	// Finish moves the entry out of pending with an optional error note.
	Finish(ctx context.Context, id string, status Status, lastErr string) error
	// Pending lists unfinished entries for a resume, oldest first.
	Pending(ctx context.Context, resumeID string) ([]Entry, error)
	DeleteByResume(ctx context.Context, resumeID string) error
}
