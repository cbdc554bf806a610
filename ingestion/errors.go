package ingestion

import (
	"errors"

	"github.com/poiesic/docsift/core"
)

var (
	// ErrInvalidUploadEvent is returned for events missing a path, name or role.
	ErrInvalidUploadEvent = core.ErrInvalidUploadEvent

	// ErrReadFailed is returned when the uploaded file cannot be read or decoded.
	ErrReadFailed = errors.New("document read failed")

	// ErrNoSegments is returned when the document text yields too few segments.
	ErrNoSegments = errors.New("document produced no usable segments")

	// ErrStoreFailed is returned when the segment batch could not be persisted.
	ErrStoreFailed = errors.New("segment store failed")

	// ErrStoreRequired is returned when a segment repository is not provided.
	ErrStoreRequired = errors.New("segment repository required")

	// ErrGeneratorRequired is returned when a text generator is not provided.
	ErrGeneratorRequired = errors.New("text generator required")
)
