package resumes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores resumes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Resume
	// Now stamps UpdatedAt on mutations.
	Now func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID: make(map[string]Resume),
		Now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new resume.
func (r *MemoryRepo) Create(ctx context.Context, resume Resume) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[resume.ID]; exists {
		return fmt.Errorf("resume %s already exists", resume.ID)
	}
	r.byID[resume.ID] = resume.Clone()
	return nil
}

// GetByID returns a copy of the resume.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resume, ok := r.byID[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return resume.Clone(), nil
}

// ListByOwner returns the owner's resumes, most recently updated first.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Resume, 0)
	for _, resume := range r.byID {
		if resume.OwnerID == ownerID {
			out = append(out, resume.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// ApplyMutation runs fn under the write lock so readers never see a version bump without its fields.
func (r *MemoryRepo) ApplyMutation(ctx context.Context, id string, steps int, fn Mutator) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	if steps < 1 {
		return Resume{}, fmt.Errorf("mutation steps must be positive, got %d", steps)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	next, err := fn(current.Clone())
	if err != nil {
		return Resume{}, err
	}
	current.Fields = next.Clone()
	current.CurrentVersion += steps
	current.UpdatedAt = r.Now()
	r.byID[id] = current
	return current.Clone(), nil
}

// SetPortfolio updates the portfolio denormalization without bumping the version.
func (r *MemoryRepo) SetPortfolio(ctx context.Context, id string, hasPortfolio bool, portfolioRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	current.HasPortfolio = hasPortfolio
	current.PortfolioRef = portfolioRef
	r.byID[id] = current
	return nil
}

// Delete removes the resume.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
