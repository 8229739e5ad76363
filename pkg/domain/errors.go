package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every "id does not exist" error.
var ErrNotFound = errors.New("not found")

// ErrEntityNotFound is returned when an entity ID cannot be found.
var ErrEntityNotFound = fmt.Errorf("entity %w", ErrNotFound)

// ErrMarkerNotFound is returned when a marker ID cannot be found.
var ErrMarkerNotFound = fmt.Errorf("marker %w", ErrNotFound)

// ErrDocumentNotFound is returned when a persisted document name cannot be found in a store.
var ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

// ErrInvalidFormat is returned when a persisted snapshot or an imported file cannot be parsed.
var ErrInvalidFormat = errors.New("invalid format")

// ErrUnsupportedFormat is returned for unknown export/import extensions and for binary imports.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrIOFailure wraps read/write failures at the persistence and export boundaries.
var ErrIOFailure = errors.New("i/o failure")
