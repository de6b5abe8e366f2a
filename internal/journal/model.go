package journal

import (
	"encoding/json"
	"time"
)

// Status of a journal entry.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Entry records a multi-step resume mutation so a crash between steps can be rolled forward.
// Step counts the steps that completed; Payload carries whatever the operation needs to replay.
type Entry struct {
	ID          string          `json:"id"`
	ResumeID    string          `json:"resumeId"`
	OwnerID     string          `json:"ownerId"`
	Operation   string          `json:"operation"`
	BaseVersion int             `json:"baseVersion"`
	Step        int             `json:"step"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload"`
	LastError   string          `json:"lastError,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (e Entry) clone() Entry {
	e.Payload = append(json.RawMessage(nil), e.Payload...)
	return e
}
