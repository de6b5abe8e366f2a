package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/render"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/shared/util"
	"resume-builder/internal/versions"
)

const pdfMimeType = "application/pdf"

// Source resolves the resume state to export. Implementations enforce ownership.
type Source interface {
	Get(ctx context.Context, callerID, resumeID string) (resumes.Resume, error)
	GetVersion(ctx context.Context, callerID, resumeID string, number int) (versions.Snapshot, error)
}

// Service renders resume versions to PDF and caches them in the object store.
type Service struct {
	Repo     Repo
	Source   Source
	Renderer render.Renderer
	Store    object.ObjectStore

	Now   func() time.Time
	NewID func() string
}

// PDF returns the rendered PDF for a resume version. version 0 means the
// current state; an empty templateID uses the template stored on the fields.
// The caller must close the returned reader.
func (s *Service) PDF(ctx context.Context, callerID, resumeID, templateID string, version int) (Export, io.ReadCloser, error) {
	if s.Repo == nil || s.Source == nil || s.Renderer == nil || s.Store == nil {
		return Export{}, nil, errors.New("missing dependencies")
	}
	if version < 0 {
		return Export{}, nil, fmt.Errorf("%w: version must be positive", ErrInvalidInput)
	}

	var (
		ownerID string
		fields  resumes.Fields
	)
	if version == 0 {
		current, err := s.Source.Get(ctx, callerID, resumeID)
		if err != nil {
			return Export{}, nil, err
		}
		ownerID, fields, version = current.OwnerID, current.Fields, current.CurrentVersion
	} else {
		snap, err := s.Source.GetVersion(ctx, callerID, resumeID, version)
		if err != nil {
			return Export{}, nil, err
		}
		ownerID, fields = snap.OwnerID, snap.Fields
	}
	if templateID == "" {
		templateID = fields.Template
	}
	if !resumes.ValidTemplate(templateID) {
		return Export{}, nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, templateID)
	}

	if cached, err := s.Repo.Get(ctx, resumeID, version, templateID); err == nil {
		body, err := s.Store.Open(ctx, cached.StorageKey)
		if err == nil {
			metrics.IncExportCacheHit()
			return cached, body, nil
		}
		if !errors.Is(err, object.ErrNotFound) {
			return Export{}, nil, err
		}
		telemetry.Warn("export.object_missing", map[string]any{"resume_id": resumeID, "version": version, "template": templateID})
	} else if !errors.Is(err, ErrNotFound) {
		return Export{}, nil, err
	}

	pdf, err := s.Renderer.Render(ctx, fields, templateID)
	if err != nil {
		if errors.Is(err, render.ErrUnknownTemplate) {
			return Export{}, nil, fmt.Errorf("%w: unknown template %q", ErrInvalidInput, templateID)
		}
		return Export{}, nil, fmt.Errorf("render pdf: %w", err)
	}

	export := Export{
		ID:            s.newID(),
		ResumeID:      resumeID,
		OwnerID:       ownerID,
		VersionNumber: version,
		TemplateID:    templateID,
		StorageKey:    StorageKey(ownerID, resumeID, version, templateID),
		MimeType:      pdfMimeType,
		CreatedAt:     s.now(),
	}
	size, err := s.Store.SaveWithKey(ctx, export.StorageKey, pdfMimeType, bytes.NewReader(pdf))
	if err != nil {
		return Export{}, nil, fmt.Errorf("store pdf: %w", err)
	}
	export.SizeBytes = size
	if err := s.Repo.Create(ctx, export); err != nil {
		return Export{}, nil, err
	}
	metrics.IncExportRendered()
	telemetry.Info("export.rendered", map[string]any{
		"resume_id":  resumeID,
		"version":    version,
		"template":   templateID,
		"size_bytes": size,
	})
	return export, io.NopCloser(bytes.NewReader(pdf)), nil
}

// List returns the exports recorded for the caller's resume.
func (s *Service) List(ctx context.Context, callerID, resumeID string) ([]Export, error) {
	if _, err := s.Source.Get(ctx, callerID, resumeID); err != nil {
		return nil, err
	}
	return s.Repo.ListByResume(ctx, resumeID)
}

// DeleteByResume drops every cached export of a deleted resume.
func (s *Service) DeleteByResume(ctx context.Context, resumeID string) error {
	removed, err := s.Repo.DeleteByResume(ctx, resumeID)
	if err != nil {
		return err
	}
	for _, export := range removed {
		if err := s.Store.Delete(ctx, export.StorageKey); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("export.object_delete_failed", map[string]any{
				"resume_id":   resumeID,
				"storage_key": export.StorageKey,
				"error":       err,
			})
		}
	}
	return nil
}

// StorageKey is the object key of a rendered variant.
func StorageKey(ownerID, resumeID string, version int, templateID string) string {
	return fmt.Sprintf("exports/%s/%s/v%d-%s.pdf", util.HashUserKey(ownerID), resumeID, version, templateID)
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
