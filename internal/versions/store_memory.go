package versions

import (
	"context"
	"iter"
	"sort"
	"sync"
)

// MemoryStore keeps snapshots in memory and is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	byResume map[string]map[int]Snapshot
	byID     map[string]snapshotKey
}

type snapshotKey struct {
	resumeID string
	version  int
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byResume: make(map[string]map[int]Snapshot),
		byID:     make(map[string]snapshotKey),
	}
}

func (s *MemoryStore) Put(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[snap.ID]; exists {
		return ErrConflict
	}
	versions, ok := s.byResume[snap.ResumeID]
	if _, exists := versions[snap.VersionNumber]; exists {
		return ErrConflict
	}
	if !ok {
		versions = make(map[int]Snapshot)
		s.byResume[snap.ResumeID] = versions
	}
	versions[snap.VersionNumber] = snap.Clone()
	s.byID[snap.ID] = snapshotKey{resumeID: snap.ResumeID, version: snap.VersionNumber}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, resumeID string, versionNumber int) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.byResume[resumeID][versionNumber]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap.Clone(), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, snapshotID string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.byID[snapshotID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return s.byResume[key.resumeID][key.version].Clone(), nil
}

func (s *MemoryStore) ListByResume(ctx context.Context, resumeID string) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Snapshot{}, err)
			return
		}
		s.mu.RLock()
		list := make([]Snapshot, 0, len(s.byResume[resumeID]))
		for _, snap := range s.byResume[resumeID] {
			list = append(list, snap.Clone())
		}
		s.mu.RUnlock()

		sort.Slice(list, func(i, j int) bool {
			return list[i].VersionNumber > list[j].VersionNumber
		})
		for _, snap := range list {
			if !yield(snap, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) MaxVersion(ctx context.Context, resumeID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for v := range s.byResume[resumeID] {
		if v > max {
			max = v
		}
	}
	return max, nil
}

func (s *MemoryStore) DeleteAllForResume(ctx context.Context, resumeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range s.byResume[resumeID] {
		delete(s.byID, snap.ID)
	}
	delete(s.byResume, resumeID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
