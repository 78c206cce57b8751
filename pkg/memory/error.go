package memory

import "errors"

var (
	// ErrInvalidInput is returned for empty text or malformed ids.
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a fragment, context, anchor, or project
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoTarget is returned by recall when no project can be resolved.
	ErrNoTarget = errors.New("no target project")

	// ErrStoreUnavailable is returned when the backing store fails.
	ErrStoreUnavailable = errors.New("memory store unavailable")
)
