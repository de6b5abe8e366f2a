package portfolios

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("portfolio not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the owner already publishes a portfolio from another resume.
	ErrConflict = errors.New("portfolio conflict")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
