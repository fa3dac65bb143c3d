package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// ErrTypeMismatch is returned when groups of different types are combined.
	ErrTypeMismatch = errors.New("group type mismatch")

	// ErrAuthorityUnreadable aborts a build: every person lookup depends on
	// the authority file.
	ErrAuthorityUnreadable = errors.New("authority file unreadable")
)
