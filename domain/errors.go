package domain

import "errors"

var (
	// ErrValidation covers malformed experiment definitions, invalid
	// traffic splits and out-of-range request parameters. Surfaced to the
	// caller synchronously, never retried.
	ErrValidation = errors.New("validation error")

	// ErrState marks an invalid experiment lifecycle transition.
	ErrState = errors.New("invalid state transition")

	ErrNotFound = errors.New("not found")
)
