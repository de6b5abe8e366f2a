package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the journal in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Begin(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("journal entry %s already exists", e.ID)
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	s.entries[e.ID] = e.clone()
	return nil
}

func (s *MemoryStore) Advance(ctx context.Context, id string, step int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.Step = step
	e.UpdatedAt = s.now()
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Finish(ctx context.Context, id string, status Status, lastErr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.Status = status
	e.LastError = lastErr
	e.UpdatedAt = s.now()
	s.entries[id] = e
	return nil
}

func (s *MemoryStore) Pending(ctx context.Context, resumeID string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if e.ResumeID == resumeID && e.Status == StatusPending {
			out = append(out, e.clone())
		}
	}
	s.mu.RUnlock()
	sortOldestFirst(out)
	return out, nil
}

func (s *MemoryStore) DeleteByResume(ctx context.Context, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if e.ResumeID == resumeID {
			delete(s.entries, id)
		}
	}
	return nil
}

func sortOldestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].BaseVersion < entries[j].BaseVersion
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

var _ Store = (*MemoryStore)(nil)
