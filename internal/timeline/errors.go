package timeline

import "errors"

var (
	// ErrNotFound indicates that a timeline, branch, node, or checkpoint does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a timeline already exists for the project.
	ErrAlreadyExists = errors.New("already exists")

	// ErrLimitExceeded indicates that the timeline already holds the maximum branch count.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidInput indicates that caller-supplied node data failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvariant indicates an internal consistency error (should not happen).
	ErrInvariant = errors.New("timeline invariant violated")
)
