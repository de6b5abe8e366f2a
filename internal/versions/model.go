package versions

import (
	"time"

	"resume-builder/internal/resumes"
)

// Snapshot is an immutable copy of a resume's fields at one version number.
type Snapshot struct {
	ID            string         `json:"id"`
	ResumeID      string         `json:"resumeId"`
	OwnerID       string         `json:"ownerId"`
	VersionNumber int            `json:"versionNumber"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Fields        resumes.Fields `json:"fields"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Clone returns a copy sharing no mutable state with s.
func (s Snapshot) Clone() Snapshot {
	s.Fields = s.Fields.Clone()
	return s
}
