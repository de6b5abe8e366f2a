package versions

import (
	"context"
	"iter"
)

// Store is append-only storage for resume snapshots.
type Store interface {
	// Put inserts s and fails with ErrConflict if (ResumeID, VersionNumber) is taken.
	Put(ctx context.Context, s Snapshot) error
	Get(ctx context.Context, resumeID string, versionNumber int) (Snapshot, error)
	GetByID(ctx context.Context, snapshotID string) (Snapshot, error)
	// ListByResume yields snapshots newest version first. Each range over the
	// returned sequence reads the store again.
	ListByResume(ctx context.Context, resumeID string) iter.Seq2[Snapshot, error]
	// MaxVersion returns the highest stored version number, or 0.
	MaxVersion(ctx context.Context, resumeID string) (int, error)
	// DeleteAllForResume removes every snapshot of the resume; it succeeds when none exist.
	DeleteAllForResume(ctx context.Context, resumeID string) error
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Snapshot, error]) ([]Snapshot, error) {
	out := make([]Snapshot, 0)
	for s, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
