package phase

import "github.com/cockroachdb/errors"

// Engine errors.
var (
	// ErrInvalidSequence is returned when a sequence cannot drive an engine.
	ErrInvalidSequence = errors.New("invalid phase sequence")

	// ErrRunning is returned for changes that are only allowed while stopped.
	ErrRunning = errors.New("engine is running")

	// ErrInvalidDuration is returned for durations out of range.
	ErrInvalidDuration = errors.New("invalid phase duration")

	// ErrUnknownKind is returned when no phase in the sequence has the kind.
	ErrUnknownKind = errors.New("no phase of that kind")
)
