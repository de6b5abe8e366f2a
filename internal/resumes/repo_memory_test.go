package resumes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func seedMemory(t *testing.T) *MemoryRepo {
	t.Helper()
	repo := NewMemoryRepo()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), Resume{
		ID:             "r-1",
		OwnerID:        "user-1",
		CurrentVersion: 1,
		Fields:         sampleFields(),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return repo
}

func TestMemoryRepoReadsAreIsolated(t *testing.T) {
	repo := seedMemory(t)
	got, err := repo.GetByID(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	got.Fields.Skills[0].Name = "mutated"

	again, _ := repo.GetByID(context.Background(), "r-1")
	if again.Fields.Skills[0].Name != "Go" {
		t.Fatalf("stored resume was modified through a read copy")
	}
}

func TestMemoryRepoApplyMutation(t *testing.T) {
	repo := seedMemory(t)
	ctx := context.Background()
	stamp := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	repo.Now = func() time.Time { return stamp }

	updated, err := repo.ApplyMutation(ctx, "r-1", 2, func(cur Resume) (Fields, error) {
		if cur.CurrentVersion != 1 {
			t.Fatalf("mutator saw version %d", cur.CurrentVersion)
		}
		f := cur.Fields
		f.PersonalInfo.FullName = "B"
		return f, nil
	})
	if err != nil {
		t.Fatalf("ApplyMutation: %v", err)
	}
	if updated.CurrentVersion != 3 || updated.Fields.PersonalInfo.FullName != "B" || !updated.UpdatedAt.Equal(stamp) {
		t.Fatalf("unexpected result: v%d %q", updated.CurrentVersion, updated.Fields.PersonalInfo.FullName)
	}

	boom := errors.New("boom")
	if _, err := repo.ApplyMutation(ctx, "r-1", 1, func(Resume) (Fields, error) { return Fields{}, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	after, _ := repo.GetByID(ctx, "r-1")
	if after.CurrentVersion != 3 {
		t.Fatalf("failed mutation must not bump version, got %d", after.CurrentVersion)
	}

	if _, err := repo.ApplyMutation(ctx, "missing", 1, func(cur Resume) (Fields, error) { return cur.Fields, nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.ApplyMutation(ctx, "r-1", 0, func(cur Resume) (Fields, error) { return cur.Fields, nil }); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestMemoryRepoConcurrentMutationsAreSerialized(t *testing.T) {
	repo := seedMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.ApplyMutation(ctx, "r-1", 1, func(cur Resume) (Fields, error) {
				return cur.Fields, nil
			})
		}()
	}
	wg.Wait()

	got, _ := repo.GetByID(ctx, "r-1")
	if got.CurrentVersion != 51 {
		t.Fatalf("expected version 51, got %d", got.CurrentVersion)
	}
}

func TestMemoryRepoPortfolioListDelete(t *testing.T) {
	repo := seedMemory(t)
	ctx := context.Background()

	if err := repo.SetPortfolio(ctx, "r-1", true, "/portfolio/alice"); err != nil {
		t.Fatalf("SetPortfolio: %v", err)
	}
	got, _ := repo.GetByID(ctx, "r-1")
	if !got.HasPortfolio || got.PortfolioRef != "/portfolio/alice" || got.CurrentVersion != 1 {
		t.Fatalf("unexpected portfolio state: %+v", got)
	}

	list, err := repo.ListByOwner(ctx, "user-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListByOwner: %v %d", err, len(list))
	}
	if other, _ := repo.ListByOwner(ctx, "user-2"); len(other) != 0 {
		t.Fatalf("expected no resumes for other owner")
	}

	if err := repo.Delete(ctx, "r-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
