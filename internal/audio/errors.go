package audio

import "github.com/cockroachdb/errors"

// Device errors.
var (
	// ErrUnavailable means the host has no usable audio output.
	ErrUnavailable = errors.New("audio output unavailable")

	// ErrDeviceTimeout is returned when a device does not become ready in time.
	ErrDeviceTimeout = errors.New("audio device initialization timeout")

	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("audio device closed")
)

// Graph errors.
var (
	// ErrInvalidGain is returned for negative or non-finite gains.
	ErrInvalidGain = errors.New("gain must be a finite, non-negative number")

	// ErrUnknownBackend is returned when a backend name is not recognized.
	ErrUnknownBackend = errors.New("unknown audio backend")

	// ErrCycle is returned when connecting a node would create a loop.
	ErrCycle = errors.New("connection would create a cycle")
)
