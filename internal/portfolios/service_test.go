package portfolios

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"resume-builder/internal/resumes"
	"resume-builder/internal/users"
)

type fixture struct {
	svc     *Service
	repo    *MemoryRepo
	resumes *resumes.MemoryRepo
	users   *users.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    NewMemoryRepo(),
		resumes: resumes.NewMemoryRepo(),
		users:   users.NewMemoryRepo(),
	}
	seq := 0
	f.svc = NewService(f.repo, f.resumes, f.users)
	f.svc.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	f.svc.NewID = func() string {
		seq++
		return fmt.Sprintf("pf-%d", seq)
	}
	return f
}

type failingPointer struct {
	*resumes.MemoryRepo
	err error
}

func (f *failingPointer) SetPortfolio(ctx context.Context, id string, hasPortfolio bool, portfolioRef string) error {
	return f.err
}

func (f *fixture) seedResume(t *testing.T, id, owner, summary string) {
	t.Helper()
	fields := resumes.Fields{Name: "Main", Template: resumes.TemplateModern}
	fields.PersonalInfo.Summary = summary
	fields.Skills = []resumes.Skill{{Name: "Go", Level: 5}}
	err := f.resumes.Create(context.Background(), resumes.Resume{
		ID:             id,
		OwnerID:        owner,
		CurrentVersion: 3,
		Fields:         fields,
	})
	if err != nil {
		t.Fatalf("seed resume: %v", err)
	}
}

func (f *fixture) seedUser(t *testing.T, id, username string) {
	t.Helper()
	if err := f.users.Upsert(context.Background(), users.User{ID: id, Username: username, FullName: "Ada"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestCreateCopiesFieldsByValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "before")

	p, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if !p.IsPublished || p.Theme != ThemeProfessional || p.SourceVersion != 3 || p.LastPublished == nil {
		t.Fatalf("unexpected portfolio %+v", p)
	}
	if p.Sections != DefaultSections() {
		t.Fatalf("expected default sections, got %+v", p.Sections)
	}

	resume, _ := f.resumes.GetByID(ctx, "r-1")
	if !resume.HasPortfolio || resume.PortfolioRef != "/portfolio/ada" {
		t.Fatalf("resume not denormalized: %+v", resume)
	}

	_, err = f.resumes.ApplyMutation(ctx, "r-1", 1, func(cur resumes.Resume) (resumes.Fields, error) {
		next := cur.Fields.Clone()
		next.PersonalInfo.Summary = "after"
		return next, nil
	})
	if err != nil {
		t.Fatalf("ApplyMutation: %v", err)
	}
	stored, _ := f.repo.GetByResume(ctx, "r-1")
	if stored.Content.PersonalInfo.Summary != "before" {
		t.Fatalf("portfolio content followed the resume: %q", stored.Content.PersonalInfo.Summary)
	}
}

func TestCreateIsUndoneWhenResumePointerFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "before")
	dbErr := errors.New("connection reset")
	f.svc.Resumes = &failingPointer{MemoryRepo: f.resumes, err: dbErr}

	if _, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{}); !errors.Is(err, dbErr) {
		t.Fatalf("expected pointer error, got %v", err)
	}
	if _, err := f.repo.GetByResume(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected portfolio removed, got %v", err)
	}
	if _, err := f.svc.GetByOwnerUsername(ctx, "ada"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no public portfolio, got %v", err)
	}
}

func TestCreateOrUpdateExistingOnlyTouchesPresentation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "before")
	first, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	unpublished := false
	if _, err := f.svc.Update(ctx, "owner", Settings{IsPublished: &unpublished}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	dark := ThemeDark
	sections := DefaultSections()
	sections.Projects.Enabled = false
	second, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{Theme: &dark, Sections: &sections})
	if err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}
	if second.ID != first.ID || second.Theme != ThemeDark || second.Sections.Projects.Enabled || !second.IsPublished {
		t.Fatalf("unexpected republished portfolio %+v", second)
	}
	if second.Content.PersonalInfo.Summary != "before" || second.SourceVersion != first.SourceVersion {
		t.Fatalf("republish must not refresh content: %+v", second)
	}
}

func TestCreateOrUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedUser(t, "nameless", "")
	f.seedResume(t, "r-1", "owner", "x")
	f.seedResume(t, "r-2", "owner", "y")
	f.seedResume(t, "r-3", "nameless", "z")
	bogus := "neon"

	if _, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{}); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}

	tests := []struct {
		name   string
		caller string
		resume string
		in     Settings
		want   error
	}{
		{name: "missing resume", caller: "owner", resume: "nope", want: ErrNotFound},
		{name: "foreign resume", caller: "intruder", resume: "r-1", want: ErrForbidden},
		{name: "unknown theme", caller: "owner", resume: "r-1", in: Settings{Theme: &bogus}, want: ErrValidation},
		{name: "no username", caller: "nameless", resume: "r-3", want: ErrValidation},
		{name: "second resume", caller: "owner", resume: "r-2", want: ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.CreateOrUpdate(ctx, tt.caller, tt.resume, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGetByOwnerUsernameCountsViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "x")
	if _, err := f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{}); err != nil {
		t.Fatalf("CreateOrUpdate: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		v, err := f.svc.GetByOwnerUsername(ctx, "ada")
		if err != nil {
			t.Fatalf("GetByOwnerUsername: %v", err)
		}
		if v.ViewCount != want || v.Owner.Username != "ada" {
			t.Fatalf("view %d: unexpected %+v", want, v)
		}
	}
	stats, err := f.svc.Stats(ctx, "owner")
	if err != nil || stats.ViewCount != 3 || !stats.IsPublished {
		t.Fatalf("unexpected stats %+v, %v", stats, err)
	}

	unpublished := false
	if _, err := f.svc.Update(ctx, "owner", Settings{IsPublished: &unpublished}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := f.svc.GetByOwnerUsername(ctx, "ada"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unpublished portfolio, got %v", err)
	}
	if _, err := f.svc.GetByOwnerUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestUpdateKeepsViewCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "x")
	_, _ = f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{})
	_, _ = f.svc.GetByOwnerUsername(ctx, "ada")

	p, err := f.svc.UpdateTheme(ctx, "owner", ThemeColorful)
	if err != nil {
		t.Fatalf("UpdateTheme: %v", err)
	}
	if p.Theme != ThemeColorful {
		t.Fatalf("unexpected theme %q", p.Theme)
	}
	stats, _ := f.svc.Stats(ctx, "owner")
	if stats.ViewCount != 1 {
		t.Fatalf("update reset view count: %d", stats.ViewCount)
	}
	if _, err := f.svc.UpdateTheme(ctx, "owner", " "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteClearsResumePointer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "x")
	_, _ = f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{})

	if err := f.svc.Delete(ctx, "owner"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	resume, _ := f.resumes.GetByID(ctx, "r-1")
	if resume.HasPortfolio || resume.PortfolioRef != "" {
		t.Fatalf("resume still points at portfolio: %+v", resume)
	}
	if err := f.svc.Delete(ctx, "owner"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteByResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, "owner", "ada")
	f.seedResume(t, "r-1", "owner", "x")
	_, _ = f.svc.CreateOrUpdate(ctx, "owner", "r-1", Settings{})

	if err := f.svc.DeleteByResume(ctx, "r-1"); err != nil {
		t.Fatalf("DeleteByResume: %v", err)
	}
	if _, err := f.repo.GetByResume(ctx, "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.svc.DeleteByResume(ctx, "r-1"); err != nil {
		t.Fatalf("DeleteByResume without portfolio: %v", err)
	}
}
