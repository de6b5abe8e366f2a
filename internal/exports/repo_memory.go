package exports

import (
	"context"
	"sort"
	"sync"
)

type variant struct {
	resumeID string
	version  int
	template string
}

// MemoryRepo stores export records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byVariant map[variant]Export
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byVariant: make(map[variant]Export)}
}

func (r *MemoryRepo) Create(ctx context.Context, export Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := variant{export.ResumeID, export.VersionNumber, export.TemplateID}
	if _, ok := r.byVariant[key]; ok {
		return nil
	}
	r.byVariant[key] = export
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, resumeID string, versionNumber int, templateID string) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	export, ok := r.byVariant[variant{resumeID, versionNumber, templateID}]
	if !ok {
		return Export{}, ErrNotFound
	}
	return export, nil
}

// ListByResume returns the resume's exports, newest version first.
func (r *MemoryRepo) ListByResume(ctx context.Context, resumeID string) ([]Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Export, 0)
	for key, export := range r.byVariant {
		if key.resumeID == resumeID {
			out = append(out, export)
		}
	}
	r.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) DeleteByResume(ctx context.Context, resumeID string) ([]Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []Export
	for key, export := range r.byVariant {
		if key.resumeID == resumeID {
			removed = append(removed, export)
			delete(r.byVariant, key)
		}
	}
	sortNewestFirst(removed)
	return removed, nil
}

func sortNewestFirst(list []Export) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].VersionNumber != list[j].VersionNumber {
			return list[i].VersionNumber > list[j].VersionNumber
		}
		return list[i].TemplateID < list[j].TemplateID
	})
}
