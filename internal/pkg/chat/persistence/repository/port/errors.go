package repository

import "errors"

var (
	// ErrNotFound signals an update or read against an absent row. Seeing it
	// outside of races indicates a programming bug, not a user error.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict signals a guarded update that would regress
	// translation_status.
	ErrConflict = errors.New("repository: conflicting status transition")
)
