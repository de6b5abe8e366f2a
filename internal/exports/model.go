package exports

import "time"

// Export records a rendered PDF of one resume version in one template.
type Export struct {
	ID            string    `json:"id"`
	ResumeID      string    `json:"resumeId"`
	OwnerID       string    `json:"ownerId"`
	VersionNumber int       `json:"versionNumber"`
	TemplateID    string    `json:"templateId"`
	StorageKey    string    `json:"-"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	CreatedAt     time.Time `json:"createdAt"`
}
