package versioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/journal"
	"resume-builder/internal/optimizer"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/versions"
)

// Operation names used in the journal, metrics and logs.
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpRestore    = "restore"
	OpOptimize   = "optimize"
	OpCheckpoint = "checkpoint"
	OpDelete     = "delete"
)

const defaultRecoverAfter = 30 * time.Second

// DependentCleaner removes data derived from a resume when it is deleted.
type DependentCleaner interface {
	DeleteByResume(ctx context.Context, resumeID string) error
}

// Service owns every change to a resume's fields and its version history.
type Service struct {
	Resumes   resumes.Repo
	Versions  versions.Store
	Journal   journal.Store
	Optimizer optimizer.Optimizer

	// Portfolios and Exports are cleaned up after a delete; failures are logged only.
	Portfolios DependentCleaner
	Exports    DependentCleaner

	// RecoverAfter is how old a pending journal entry must be before a read rolls it forward.
	RecoverAfter time.Duration

	Now   func() time.Time
	NewID func() string
}

// OptimizeResult is the outcome of OptimizeWithAI.
type OptimizeResult struct {
	Resume          resumes.Resume
	Fallback        bool
	Recommendations string
}

type snapshotMeta struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type mutationPayload struct {
	Steps  int            `json:"steps"`
	Fields resumes.Fields `json:"fields"`
	Pre    *snapshotMeta  `json:"pre,omitempty"`
	Post   snapshotMeta   `json:"post"`
}

var errVersionMoved = errors.New("resume version moved")

// Create stores a new resume at version 1 with its initial snapshot.
func (s *Service) Create(ctx context.Context, callerID string, fields resumes.Fields) (resumes.Resume, error) {
	if strings.TrimSpace(callerID) == "" {
		return resumes.Resume{}, ErrForbidden
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return resumes.Resume{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := s.now()
	resume := resumes.Resume{
		ID:             s.newID(),
		OwnerID:        callerID,
		CurrentVersion: 1,
		Fields:         fields.Clone(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	post := snapshotMeta{Name: "Initial Version", Description: "First version of the resume"}
	entryID, err := s.begin(ctx, OpCreate, resume, 0, mutationPayload{Steps: 1, Fields: fields, Post: post})
	if err != nil {
		return resumes.Resume{}, s.fail(OpCreate, resume.ID, 0, err)
	}

	if err := s.Resumes.Create(ctx, resume); err != nil {
		s.finish(ctx, entryID, journal.StatusAbandoned, err)
		return resumes.Resume{}, s.fail(OpCreate, resume.ID, 1, err)
	}
	s.advance(ctx, entryID, 1)

	if err := s.putSnapshot(ctx, resume, 1, post, resume.Fields); err != nil {
		return resumes.Resume{}, s.fail(OpCreate, resume.ID, 2, err)
	}
	s.finish(ctx, entryID, journal.StatusCompleted, nil)
	s.committed(OpCreate, resume)
	return resume, nil
}

// Get returns a resume owned by the caller.
func (s *Service) Get(ctx context.Context, callerID, resumeID string) (resumes.Resume, error) {
	return s.load(ctx, callerID, resumeID)
}

// List returns the caller's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, callerID string) ([]resumes.Resume, error) {
	if strings.TrimSpace(callerID) == "" {
		return nil, ErrForbidden
	}
	list, err := s.Resumes.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = s.recoverPending(ctx, list[i])
	}
	return list, nil
}

// Update replaces the patched field groups and snapshots the result at N+1.
func (s *Service) Update(ctx context.Context, callerID, resumeID string, patch resumes.Patch, versionName string) (resumes.Resume, error) {
	if patch.Empty() {
		return resumes.Resume{}, validationf("no fields to update")
	}
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return resumes.Resume{}, err
	}
	next := patch.Apply(current.Fields).Normalize()
	if err := next.Validate(); err != nil {
		return resumes.Resume{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	n := current.CurrentVersion
	name := strings.TrimSpace(versionName)
	if name == "" {
		name = fmt.Sprintf("Version %d", n+1)
	}
	return s.run(ctx, OpUpdate, current, mutationPayload{
		Steps:  1,
		Fields: next,
		Post:   snapshotMeta{Name: name, Description: "Updated on " + s.now().Format(time.RFC3339)},
	})
}

// Restore brings back the fields of version target, bracketed by a pre-restore snapshot.
func (s *Service) Restore(ctx context.Context, callerID, resumeID string, target int) (resumes.Resume, error) {
	if target < 1 {
		return resumes.Resume{}, validationf("version number must be positive")
	}
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return resumes.Resume{}, err
	}
	snap, err := s.Versions.Get(ctx, resumeID, target)
	if err != nil {
		if errors.Is(err, versions.ErrNotFound) {
			return resumes.Resume{}, fmt.Errorf("%w: version %d", ErrNotFound, target)
		}
		return resumes.Resume{}, err
	}
	return s.restore(ctx, current, snap)
}

// RestoreByID restores the snapshot with the given id, which must belong to the resume.
func (s *Service) RestoreByID(ctx context.Context, callerID, resumeID, snapshotID string) (resumes.Resume, error) {
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return resumes.Resume{}, err
	}
	snap, err := s.Versions.GetByID(ctx, snapshotID)
	if err != nil {
		if errors.Is(err, versions.ErrNotFound) {
			return resumes.Resume{}, fmt.Errorf("%w: version %s", ErrNotFound, snapshotID)
		}
		return resumes.Resume{}, err
	}
	return s.restore(ctx, current, snap)
}

func (s *Service) restore(ctx context.Context, current resumes.Resume, snap versions.Snapshot) (resumes.Resume, error) {
	if snap.ResumeID != current.ID {
		return resumes.Resume{}, validationf("Version does not belong to this resume")
	}
	n := current.CurrentVersion
	return s.run(ctx, OpRestore, current, mutationPayload{
		Steps:  2,
		Fields: snap.Fields,
		Pre: &snapshotMeta{
			Name:        fmt.Sprintf("Pre-restore Version %d", n+1),
			Description: fmt.Sprintf("Created before restoring to version %d", snap.VersionNumber),
		},
		Post: snapshotMeta{
			Name:        fmt.Sprintf("Restored Version %d", n+2),
			Description: fmt.Sprintf("Restored from version %d", snap.VersionNumber),
		},
	})
}

// OptimizeWithAI rewrites summary, skills and experience for a job description.
// Optimizer failures fall back to a deterministic local rewrite.
func (s *Service) OptimizeWithAI(ctx context.Context, callerID, resumeID, jobDescription string) (OptimizeResult, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return OptimizeResult{}, validationf("job description is required")
	}
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return OptimizeResult{}, err
	}

	suggestion, fallback := s.suggest(ctx, current, jobDescription)
	next := optimizer.Merge(current.Fields, suggestion)
	if err := next.Validate(); err != nil {
		telemetry.Warn("optimizer.invalid_merge", map[string]any{"resume_id": current.ID, "error": err})
		metrics.IncOptimizerFallback()
		suggestion, fallback = optimizer.Fallback(current.Fields), true
		next = optimizer.Merge(current.Fields, suggestion)
	}
	next = ensureOptimized(next)

	n := current.CurrentVersion
	updated, err := s.run(ctx, OpOptimize, current, mutationPayload{
		Steps:  2,
		Fields: next,
		Pre: &snapshotMeta{
			Name:        fmt.Sprintf("Pre-optimization Version %d", n+1),
			Description: "Created before AI optimization",
		},
		Post: snapshotMeta{
			Name:        fmt.Sprintf("AI Optimized Version %d", n+2),
			Description: "Optimized with AI for job description",
		},
	})
	if err != nil {
		return OptimizeResult{}, err
	}
	return OptimizeResult{Resume: updated, Fallback: fallback, Recommendations: suggestion.Recommendations}, nil
}

func (s *Service) suggest(ctx context.Context, current resumes.Resume, jobDescription string) (optimizer.Suggestion, bool) {
	if s.Optimizer == nil {
		metrics.IncOptimizerFallback()
		return optimizer.Fallback(current.Fields), true
	}
	suggestion, err := s.Optimizer.Optimize(ctx, current.Fields.Clone(), jobDescription)
	if err != nil {
		telemetry.Warn("optimizer.fallback", map[string]any{
			"resume_id": current.ID,
			"error":     err,
		})
		metrics.IncOptimizerFallback()
		return optimizer.Fallback(current.Fields), true
	}
	return suggestion, false
}

// ensureOptimized guarantees a non-empty summary and skills list after optimization.
func ensureOptimized(f resumes.Fields) resumes.Fields {
	if strings.TrimSpace(f.PersonalInfo.Summary) != "" && len(f.Skills) > 0 {
		return f
	}
	fb := optimizer.Fallback(f)
	if strings.TrimSpace(f.PersonalInfo.Summary) == "" {
		f.PersonalInfo.Summary = fb.Summary
	}
	if len(f.Skills) == 0 {
		f.Skills = fb.Skills
	}
	return f
}

// Checkpoint records the current fields as a named version without changing them.
func (s *Service) Checkpoint(ctx context.Context, callerID, resumeID, name, description string) (versions.Snapshot, error) {
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return versions.Snapshot{}, err
	}
	n := current.CurrentVersion
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Version %d", n+1)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = "Created on " + s.now().Format("2006-01-02")
	}
	updated, err := s.run(ctx, OpCheckpoint, current, mutationPayload{
		Steps:  1,
		Fields: current.Fields,
		Post:   snapshotMeta{Name: name, Description: description},
	})
	if err != nil {
		return versions.Snapshot{}, err
	}
	return s.Versions.Get(ctx, updated.ID, updated.CurrentVersion)
}

// ListVersions yields the resume's snapshots, newest first.
func (s *Service) ListVersions(ctx context.Context, callerID, resumeID string) (iter.Seq2[versions.Snapshot, error], error) {
	if _, err := s.load(ctx, callerID, resumeID); err != nil {
		return nil, err
	}
	return s.Versions.ListByResume(ctx, resumeID), nil
}

// GetVersion returns one snapshot of the resume.
func (s *Service) GetVersion(ctx context.Context, callerID, resumeID string, number int) (versions.Snapshot, error) {
	if _, err := s.load(ctx, callerID, resumeID); err != nil {
		return versions.Snapshot{}, err
	}
	snap, err := s.Versions.Get(ctx, resumeID, number)
	if err != nil {
		if errors.Is(err, versions.ErrNotFound) {
			return versions.Snapshot{}, fmt.Errorf("%w: version %d", ErrNotFound, number)
		}
		return versions.Snapshot{}, err
	}
	return snap, nil
}

// Delete removes snapshots, then the resume, then anything derived from it.
func (s *Service) Delete(ctx context.Context, callerID, resumeID string) error {
	current, err := s.load(ctx, callerID, resumeID)
	if err != nil {
		return err
	}
	if err := s.Versions.DeleteAllForResume(ctx, current.ID); err != nil {
		return s.fail(OpDelete, current.ID, 1, err)
	}
	if err := s.Resumes.Delete(ctx, current.ID); err != nil {
		return s.fail(OpDelete, current.ID, 2, err)
	}
	if s.Journal != nil {
		if err := s.Journal.DeleteByResume(ctx, current.ID); err != nil {
			telemetry.Warn("journal.cleanup_failed", map[string]any{"resume_id": current.ID, "error": err})
		}
	}
	if s.Portfolios != nil {
		if err := s.Portfolios.DeleteByResume(ctx, current.ID); err != nil {
			telemetry.Error("portfolio.cleanup_failed", map[string]any{"resume_id": current.ID, "error": err})
		}
	}
	if s.Exports != nil {
		if err := s.Exports.DeleteByResume(ctx, current.ID); err != nil {
			telemetry.Error("exports.cleanup_failed", map[string]any{"resume_id": current.ID, "error": err})
		}
	}
	metrics.IncResumeMutation(OpDelete)
	telemetry.Info("resume.deleted", map[string]any{"resume_id": current.ID, "operation": OpDelete})
	return nil
}

// load reads the resume, checks ownership and rolls forward any stale journal entries.
func (s *Service) load(ctx context.Context, callerID, resumeID string) (resumes.Resume, error) {
	if strings.TrimSpace(resumeID) == "" {
		return resumes.Resume{}, ErrNotFound
	}
	r, err := s.Resumes.GetByID(ctx, resumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return resumes.Resume{}, ErrNotFound
		}
		return resumes.Resume{}, err
	}
	if callerID == "" || r.OwnerID != callerID {
		return resumes.Resume{}, ErrForbidden
	}
	return s.recoverPending(ctx, r), nil
}

// run applies a journaled mutation from the loaded state at version N.
// With a Pre snapshot the order is: pre-state at N+1, commit to N+2, post-state at N+2.
// Without one: commit to N+1, post-state at N+1.
func (s *Service) run(ctx context.Context, op string, current resumes.Resume, p mutationPayload) (resumes.Resume, error) {
	base := current.CurrentVersion
	target := base + p.Steps
	entryID, err := s.begin(ctx, op, current, base, p)
	if err != nil {
		return resumes.Resume{}, s.fail(op, current.ID, 0, err)
	}

	step := 0
	if p.Pre != nil {
		step++
		if err := s.putSnapshot(ctx, current, base+1, *p.Pre, current.Fields); err != nil {
			s.finish(ctx, entryID, journal.StatusAbandoned, err)
			if errors.Is(err, versions.ErrConflict) {
				return resumes.Resume{}, s.conflict(op, current.ID, base+1, err)
			}
			return resumes.Resume{}, s.fail(op, current.ID, step, err)
		}
		s.advance(ctx, entryID, step)
	}

	step++
	updated, err := s.Resumes.ApplyMutation(ctx, current.ID, p.Steps, func(latest resumes.Resume) (resumes.Fields, error) {
		if latest.CurrentVersion != base {
			return resumes.Fields{}, errVersionMoved
		}
		if p.Pre == nil {
			// A snapshot at N+1 is another operation's reservation.
			reserved, err := s.snapshotExists(ctx, current.ID, base+1)
			if err != nil {
				return resumes.Fields{}, err
			}
			if reserved {
				return resumes.Fields{}, errVersionMoved
			}
		}
		return p.Fields.Clone(), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errVersionMoved):
			s.finish(ctx, entryID, journal.StatusAbandoned, err)
			return resumes.Resume{}, s.conflict(op, current.ID, target, err)
		case errors.Is(err, resumes.ErrNotFound):
			s.finish(ctx, entryID, journal.StatusAbandoned, err)
			return resumes.Resume{}, ErrNotFound
		}
		return resumes.Resume{}, s.fail(op, current.ID, step, err)
	}
	s.advance(ctx, entryID, step)

	step++
	if err := s.putSnapshot(ctx, updated, target, p.Post, updated.Fields); err != nil {
		if errors.Is(err, versions.ErrConflict) {
			s.finish(ctx, entryID, journal.StatusAbandoned, err)
			return resumes.Resume{}, s.conflict(op, current.ID, target, err)
		}
		return resumes.Resume{}, s.fail(op, current.ID, step, err)
	}
	s.finish(ctx, entryID, journal.StatusCompleted, nil)
	s.committed(op, updated)
	return updated, nil
}

func (s *Service) snapshotExists(ctx context.Context, resumeID string, number int) (bool, error) {
	_, err := s.Versions.Get(ctx, resumeID, number)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, versions.ErrNotFound):
		return false, nil
	}
	return false, err
}

func (s *Service) putSnapshot(ctx context.Context, r resumes.Resume, number int, meta snapshotMeta, fields resumes.Fields) error {
	return s.Versions.Put(ctx, versions.Snapshot{
		ID:            s.newID(),
		ResumeID:      r.ID,
		OwnerID:       r.OwnerID,
		VersionNumber: number,
		Name:          meta.Name,
		Description:   meta.Description,
		Fields:        fields.Clone(),
		CreatedAt:     s.now(),
	})
}

func (s *Service) begin(ctx context.Context, op string, r resumes.Resume, base int, p mutationPayload) (string, error) {
	if s.Journal == nil {
		return "", nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	now := s.now()
	entry := journal.Entry{
		ID:          s.newID(),
		ResumeID:    r.ID,
		OwnerID:     r.OwnerID,
		Operation:   op,
		BaseVersion: base,
		Status:      journal.StatusPending,
		Payload:     payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Journal.Begin(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *Service) advance(ctx context.Context, entryID string, step int) {
	if s.Journal == nil || entryID == "" {
		return
	}
	if err := s.Journal.Advance(ctx, entryID, step); err != nil {
		telemetry.Warn("journal.advance_failed", map[string]any{"entry_id": entryID, "step": step, "error": err})
	}
}

func (s *Service) finish(ctx context.Context, entryID string, status journal.Status, cause error) {
	if s.Journal == nil || entryID == "" {
		return
	}
	lastErr := ""
	if cause != nil {
		lastErr = cause.Error()
	}
	if err := s.Journal.Finish(ctx, entryID, status, lastErr); err != nil {
		telemetry.Warn("journal.finish_failed", map[string]any{"entry_id": entryID, "status": string(status), "error": err})
	}
}

func (s *Service) committed(op string, r resumes.Resume) {
	metrics.IncResumeMutation(op)
	telemetry.Info("resume.mutation", map[string]any{
		"resume_id":      r.ID,
		"operation":      op,
		"resume_version": r.CurrentVersion,
	})
}

func (s *Service) fail(op, resumeID string, step int, err error) error {
	metrics.IncMutationFailure(op)
	telemetry.Error("resume.mutation_failed", map[string]any{
		"resume_id": resumeID,
		"operation": op,
		"step":      step,
		"error":     err,
	})
	return &OperationError{Op: op, ResumeID: resumeID, Step: step, Err: err}
}

func (s *Service) conflict(op, resumeID string, version int, err error) error {
	metrics.IncMutationFailure(op)
	telemetry.Error("resume.version_conflict", map[string]any{
		"resume_id":      resumeID,
		"operation":      op,
		"resume_version": version,
		"error":          err,
	})
	return fmt.Errorf("%w: %s resume=%s version=%d", ErrConflict, op, resumeID, version)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
