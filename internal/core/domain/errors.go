package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates a source configuration is malformed,
	// typically an unrecognised source type or a missing spec ID.
	ErrInvalidConfig = errors.New("invalid source configuration")

	// ErrInvalidEvent indicates a change event violates its invariants.
	ErrInvalidEvent = errors.New("invalid change event")

	// ErrSourceUnavailable indicates an external source could not be
	// reached, e.g. a git invocation exited non-zero. Recovered locally:
	// the poll yields no events and is retried on the next interval.
	ErrSourceUnavailable = errors.New("source unavailable")
)
