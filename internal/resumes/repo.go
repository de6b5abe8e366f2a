package resumes

import "context"

// Mutator computes the next fields from the current aggregate state.
// It must not retain or modify current; returning an error aborts the mutation.
type Mutator func(current Resume) (Fields, error)

// Repo persists the current state of resumes.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	GetByID(ctx context.Context, id string) (Resume, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Resume, error)
	// ApplyMutation replaces fields and advances CurrentVersion by steps as one unit.
	ApplyMutation(ctx context.Context, id string, steps int, fn Mutator) (Resume, error)
	SetPortfolio(ctx context.Context, id string, hasPortfolio bool, portfolioRef string) error
	Delete(ctx context.Context, id string) error
}
