package versioning

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the resume or version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller does not own the resume.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation indicates bad input or a malformed restore target.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a version number was already taken. It means the
	// version counter and the snapshot history disagree.
	ErrConflict = errors.New("version conflict")

	// ErrInconsistent is reported when a multi-step mutation stopped part-way.
	ErrInconsistent = errors.New("operation failed, state may be inconsistent")
)

// OperationError reports the step at which a multi-step mutation failed.
// Steps are numbered from 1 in the order they are issued.
type OperationError struct {
	Op       string
	ResumeID string
	Step     int
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s resume=%s step=%d: %v", ErrInconsistent, e.Op, e.ResumeID, e.Step, e.Err)
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrInconsistent, e.Err}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
