package portfolios

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
)

// ResumeReader is the slice of the resume store a portfolio needs. Version
// history is never read.
type ResumeReader interface {
	GetByID(ctx context.Context, id string) (resumes.Resume, error)
	SetPortfolio(ctx context.Context, id string, hasPortfolio bool, portfolioRef string) error
}

// UserLookup resolves portfolio owners.
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
	GetByUsername(ctx context.Context, username string) (users.User, error)
}

// Service projects resumes into public portfolios.
type Service struct {
	Repo    Repo
	Resumes ResumeReader
	Users   UserLookup

	Now   func() time.Time
	NewID func() string
}

func NewService(repo Repo, resumeReader ResumeReader, userLookup UserLookup) *Service {
	return &Service{Repo: repo, Resumes: resumeReader, Users: userLookup}
}

// PortfolioRef is the public path stored on the resume.
func PortfolioRef(username string) string {
	return "/portfolio/" + username
}

// CreateOrUpdate publishes a portfolio for the resume. A new portfolio copies
// the current resume fields; an existing one only takes the theme and
// sections and is republished.
func (s *Service) CreateOrUpdate(ctx context.Context, callerID, resumeID string, in Settings) (Portfolio, error) {
	resume, err := s.Resumes.GetByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return Portfolio{}, ErrNotFound
		}
		return Portfolio{}, err
	}
	if resume.OwnerID != callerID {
		return Portfolio{}, ErrForbidden
	}
	if in.Theme != nil && !ValidTheme(*in.Theme) {
		return Portfolio{}, validationf("unknown theme %q", *in.Theme)
	}
	now := s.now()

	existing, err := s.Repo.GetByResume(ctx, resumeID)
	switch {
	case err == nil:
		if in.Theme != nil {
			existing.Theme = *in.Theme
		}
		if in.Sections != nil {
			existing.Sections = *in.Sections
		}
		existing.IsPublished = true
		existing.LastPublished = &now
		existing.UpdatedAt = now
		if err := s.Repo.Update(ctx, existing); err != nil {
			return Portfolio{}, err
		}
		telemetry.Info("portfolio.republished", map[string]any{"resume_id": resumeID, "portfolio_id": existing.ID})
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return Portfolio{}, err
	}

	owner, err := s.Users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Portfolio{}, validationf("set a username before publishing a portfolio")
		}
		return Portfolio{}, err
	}
	if owner.Username == "" {
		return Portfolio{}, validationf("set a username before publishing a portfolio")
	}

	p := Portfolio{
		ID:            s.newID(),
		OwnerID:       callerID,
		ResumeID:      resumeID,
		Theme:         ThemeProfessional,
		Sections:      DefaultSections(),
		Social:        Social{ShowIcons: true},
		Content:       resume.Fields.Clone(),
		SourceVersion: resume.CurrentVersion,
		IsPublished:   true,
		LastPublished: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.Sections != nil {
		p.Sections = *in.Sections
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrConflict) {
			return Portfolio{}, fmt.Errorf("%w: a portfolio from another resume is already published", ErrConflict)
		}
		return Portfolio{}, err
	}
	if err := s.Resumes.SetPortfolio(ctx, resumeID, true, PortfolioRef(owner.Username)); err != nil {
		telemetry.Error("portfolio.denormalize_failed", map[string]any{"resume_id": resumeID, "error": err})
		if delErr := s.Repo.Delete(ctx, p.ID); delErr != nil {
			telemetry.Error("portfolio.unpublish_failed", map[string]any{"resume_id": resumeID, "portfolio_id": p.ID, "error": delErr})
		}
		return Portfolio{}, err
	}
	telemetry.Info("portfolio.created", map[string]any{
		"resume_id":      resumeID,
		"portfolio_id":   p.ID,
		"source_version": p.SourceVersion,
	})
	return p, nil
}

// GetByOwnerUsername returns the published portfolio of a user and counts the view.
func (s *Service) GetByOwnerUsername(ctx context.Context, username string) (View, error) {
	owner, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return View{}, ErrNotFound
		}
		return View{}, err
	}
	p, err := s.Repo.GetByOwner(ctx, owner.ID)
	if err != nil {
		return View{}, err
	}
	if !p.IsPublished {
		return View{}, ErrNotFound
	}
	viewed, err := s.Repo.RecordView(ctx, p.ID)
	if err != nil {
		return View{}, err
	}
	metrics.IncPortfolioView()
	return View{
		Portfolio: viewed,
		Owner: Owner{
			Username:   owner.Username,
			FullName:   owner.FullName,
			PictureURL: owner.PictureURL,
		},
	}, nil
}

// Update changes the caller's portfolio presentation.
func (s *Service) Update(ctx context.Context, callerID string, in Settings) (Portfolio, error) {
	if in.Theme != nil && !ValidTheme(*in.Theme) {
		return Portfolio{}, validationf("unknown theme %q", *in.Theme)
	}
	p, err := s.Repo.GetByOwner(ctx, callerID)
	if err != nil {
		return Portfolio{}, err
	}
	now := s.now()
	if in.Theme != nil {
		p.Theme = *in.Theme
	}
	if in.Sections != nil {
		p.Sections = *in.Sections
	}
	if in.CustomSections != nil {
		p.CustomSections = append([]CustomSection(nil), (*in.CustomSections)...)
	}
	if in.SEO != nil {
		p.SEO = *in.SEO
		p.SEO.Keywords = append([]string(nil), in.SEO.Keywords...)
	}
	if in.Analytics != nil {
		p.Analytics = *in.Analytics
	}
	if in.Social != nil {
		p.Social = *in.Social
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
		if p.IsPublished {
			p.LastPublished = &now
		}
	}
	p.UpdatedAt = now
	if err := s.Repo.Update(ctx, p); err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// UpdateTheme changes only the theme.
func (s *Service) UpdateTheme(ctx context.Context, callerID, theme string) (Portfolio, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return Portfolio{}, validationf("theme is required")
	}
	return s.Update(ctx, callerID, Settings{Theme: &theme})
}

func (s *Service) Stats(ctx context.Context, callerID string) (Stats, error) {
	p, err := s.Repo.GetByOwner(ctx, callerID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		ViewCount:     p.ViewCount,
		LastPublished: p.LastPublished,
		IsPublished:   p.IsPublished,
	}, nil
}

// Delete removes the caller's portfolio and clears the resume's pointer to it.
func (s *Service) Delete(ctx context.Context, callerID string) error {
	p, err := s.Repo.GetByOwner(ctx, callerID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, p.ID); err != nil {
		return err
	}
	if err := s.Resumes.SetPortfolio(ctx, p.ResumeID, false, ""); err != nil && !errors.Is(err, resumes.ErrNotFound) {
		telemetry.Warn("portfolio.clear_resume_failed", map[string]any{"resume_id": p.ResumeID, "error": err})
	}
	telemetry.Info("portfolio.deleted", map[string]any{"resume_id": p.ResumeID, "portfolio_id": p.ID})
	return nil
}

// DeleteByResume removes any portfolio derived from the resume. The resume
// itself is expected to be gone already.
func (s *Service) DeleteByResume(ctx context.Context, resumeID string) error {
	n, err := s.Repo.DeleteByResume(ctx, resumeID)
	if err != nil {
		return err
	}
	if n > 0 {
		telemetry.Info("portfolio.deleted", map[string]any{"resume_id": resumeID, "cascade": true})
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
