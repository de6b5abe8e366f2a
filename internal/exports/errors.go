package exports

import "errors"

var (
	// ErrNotFound indicates no export is recorded for the variant.
	ErrNotFound = errors.New("export not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")
)
