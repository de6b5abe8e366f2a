package resumes

import "errors"

var (
	// ErrNotFound indicates the resume does not exist.
	ErrNotFound = errors.New("resume not found")

	// ErrInvalidFields indicates the resume content violates a field rule.
	ErrInvalidFields = errors.New("invalid resume fields")
)
