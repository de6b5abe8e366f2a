package versioning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"resume-builder/internal/journal"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/versions"
)

// recoverPending settles journal entries left pending by an interrupted mutation.
// Entries younger than RecoverAfter may still be in flight and are skipped.
// Recovery never fails the read that triggered it.
func (s *Service) recoverPending(ctx context.Context, r resumes.Resume) resumes.Resume {
	if s.Journal == nil {
		return r
	}
	entries, err := s.Journal.Pending(ctx, r.ID)
	if err != nil {
		telemetry.Warn("journal.pending_failed", map[string]any{"resume_id": r.ID, "error": err})
		return r
	}
	grace := s.RecoverAfter
	if grace == 0 {
		grace = defaultRecoverAfter
	}
	for _, e := range entries {
		if s.now().Sub(e.UpdatedAt) < grace {
			continue
		}
		next, err := s.recoverEntry(ctx, r, e)
		if err != nil {
			telemetry.Error("journal.recovery_failed", map[string]any{
				"resume_id": r.ID,
				"entry_id":  e.ID,
				"operation": e.Operation,
				"error":     err,
			})
			return r
		}
		r = next
	}
	return r
}

var errSnapshotTaken = errors.New("snapshot slot holds other fields")

func (s *Service) recoverEntry(ctx context.Context, r resumes.Resume, e journal.Entry) (resumes.Resume, error) {
	var p mutationPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil || p.Steps < 1 {
		s.abandonEntry(ctx, r, e, "unreadable payload")
		return r, nil
	}
	base := e.BaseVersion
	target := base + p.Steps

	switch {
	case r.CurrentVersion == target && sameFields(r.Fields, p.Fields):
		// Committed; only the post snapshot can be missing.
		wrote, err := s.ensureSnapshot(ctx, r, target, p.Post, r.Fields)
		if errors.Is(err, errSnapshotTaken) {
			s.abandonEntry(ctx, r, e, "snapshot slot taken")
			return r, nil
		}
		if err != nil {
			return r, err
		}
		s.finish(ctx, e.ID, journal.StatusCompleted, nil)
		if wrote {
			s.recovered(r, e, "post_snapshot")
		}
		return r, nil

	case r.CurrentVersion == base && p.Pre != nil:
		// The pre-state snapshot is the reservation for this transition; without it nothing happened.
		if _, err := s.Versions.Get(ctx, r.ID, base+1); err != nil {
			if errors.Is(err, versions.ErrNotFound) {
				s.abandonEntry(ctx, r, e, "nothing committed")
				return r, nil
			}
			return r, err
		}
		updated, err := s.Resumes.ApplyMutation(ctx, r.ID, p.Steps, func(latest resumes.Resume) (resumes.Fields, error) {
			if latest.CurrentVersion != base {
				return resumes.Fields{}, errVersionMoved
			}
			return p.Fields.Clone(), nil
		})
		if err != nil {
			if errors.Is(err, errVersionMoved) {
				return r, nil
			}
			return r, err
		}
		if _, err := s.ensureSnapshot(ctx, updated, target, p.Post, updated.Fields); err != nil {
			if errors.Is(err, errSnapshotTaken) {
				s.abandonEntry(ctx, updated, e, "snapshot slot taken")
				return updated, nil
			}
			return updated, err
		}
		s.finish(ctx, e.ID, journal.StatusCompleted, nil)
		s.recovered(updated, e, "replayed_commit")
		return updated, nil

	case r.CurrentVersion == base:
		s.abandonEntry(ctx, r, e, "nothing committed")
		return r, nil

	case r.CurrentVersion > target && e.Step >= commitStep(p):
		// Committed and since overtaken by later mutations; the payload is what was committed at target.
		wrote, err := s.ensureSnapshot(ctx, r, target, p.Post, p.Fields)
		if errors.Is(err, errSnapshotTaken) {
			s.abandonEntry(ctx, r, e, "snapshot slot taken")
			return r, nil
		}
		if err != nil {
			return r, err
		}
		s.finish(ctx, e.ID, journal.StatusCompleted, nil)
		if wrote {
			s.recovered(r, e, "post_snapshot")
		}
		return r, nil
	}

	s.abandonEntry(ctx, r, e, "superseded")
	return r, nil
}

// commitStep is the journal step at which the aggregate commit completes.
func commitStep(p mutationPayload) int {
	if p.Pre != nil {
		return 2
	}
	return 1
}

// ensureSnapshot writes the snapshot at number unless one with the same fields exists.
// A snapshot there with other fields is errSnapshotTaken.
func (s *Service) ensureSnapshot(ctx context.Context, r resumes.Resume, number int, meta snapshotMeta, fields resumes.Fields) (bool, error) {
	existing, err := s.Versions.Get(ctx, r.ID, number)
	if errors.Is(err, versions.ErrNotFound) {
		err = s.putSnapshot(ctx, r, number, meta, fields)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, versions.ErrConflict) {
			return false, err
		}
		existing, err = s.Versions.Get(ctx, r.ID, number)
	}
	if err != nil {
		return false, err
	}
	if !sameFields(existing.Fields, fields) {
		return false, errSnapshotTaken
	}
	return false, nil
}

func (s *Service) recovered(r resumes.Resume, e journal.Entry, action string) {
	metrics.IncJournalRecovered()
	telemetry.Warn("journal.recovered", map[string]any{
		"resume_id":      r.ID,
		"entry_id":       e.ID,
		"operation":      e.Operation,
		"action":         action,
		"resume_version": r.CurrentVersion,
	})
}

func (s *Service) abandonEntry(ctx context.Context, r resumes.Resume, e journal.Entry, reason string) {
	s.finish(ctx, e.ID, journal.StatusAbandoned, errors.New(reason))
	metrics.IncJournalAbandoned()
	telemetry.Warn("journal.abandoned", map[string]any{
		"resume_id":      r.ID,
		"entry_id":       e.ID,
		"operation":      e.Operation,
		"reason":         reason,
		"resume_version": r.CurrentVersion,
	})
}

func sameFields(a, b resumes.Fields) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
