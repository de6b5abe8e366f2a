package versions

import "errors"

var (
	// ErrNotFound indicates the snapshot does not exist.
	ErrNotFound = errors.New("version not found")

	// ErrConflict indicates a snapshot with the same resume and version number already exists.
	ErrConflict = errors.New("version already exists")
)
