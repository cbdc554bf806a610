package bulk

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrPublisherRequired is returned when a loader has no publisher.
	ErrPublisherRequired = errors.New("publisher required")

	// ErrNotDirectory is returned when the bulk source is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrRoleRequired is returned when no role is given for the bulk upload.
	ErrRoleRequired = errors.New("role required")
)
