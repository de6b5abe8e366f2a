package portfolios

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Portfolio
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Portfolio)}
}

func (r *MemoryRepo) Create(ctx context.Context, p Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.ID == p.ID || existing.ResumeID == p.ResumeID || existing.OwnerID == p.OwnerID {
			return ErrConflict
		}
	}
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepo) GetByResume(ctx context.Context, resumeID string) (Portfolio, error) {
	return r.find(ctx, func(p Portfolio) bool { return p.ResumeID == resumeID })
}

func (r *MemoryRepo) GetByOwner(ctx context.Context, ownerID string) (Portfolio, error) {
	return r.find(ctx, func(p Portfolio) bool { return p.OwnerID == ownerID })
}

func (r *MemoryRepo) find(ctx context.Context, match func(Portfolio) bool) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byID {
		if match(p) {
			return p.Clone(), nil
		}
	}
	return Portfolio{}, ErrNotFound
}

func (r *MemoryRepo) Update(ctx context.Context, p Portfolio) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.ViewCount = existing.ViewCount
	p.CreatedAt = existing.CreatedAt
	r.byID[p.ID] = p.Clone()
	return nil
}

func (r *MemoryRepo) RecordView(ctx context.Context, id string) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || !p.IsPublished {
		return Portfolio{}, ErrNotFound
	}
	p.ViewCount++
	p.UpdatedAt = time.Now().UTC()
	r.byID[id] = p
	return p.Clone(), nil
}

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

func (r *MemoryRepo) DeleteByResume(ctx context.Context, resumeID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.byID {
		if p.ResumeID == resumeID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
