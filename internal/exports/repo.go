package exports

import "context"

// Repo records rendered exports. (ResumeID, VersionNumber, TemplateID) is unique.
type Repo interface {
	// Create is a no-op when the variant is already recorded.
	Create(ctx context.Context, export Export) error
	Get(ctx context.Context, resumeID string, versionNumber int, templateID string) (Export, error)
	ListByResume(ctx context.Context, resumeID string) ([]Export, error)
	// DeleteByResume removes and returns the resume's records.
	DeleteByResume(ctx context.Context, resumeID string) ([]Export, error)
}
