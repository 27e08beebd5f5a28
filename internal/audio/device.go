package audio

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Device is an output that continuously pulls interleaved float32 stereo
// frames from a reader.
type Device interface {
	// Start begins pulling from r.
	Start(r io.Reader) error

	// Suspend pauses output without releasing the device.
	Suspend() error

	// Resume restarts a suspended device.
	Resume() error

	// Suspended reports whether the device is paused.
	Suspended() bool

	// SampleRate returns the device rate in Hz.
	SampleRate() int

	// Close stops output and releases the device.
	Close() error
}

// Backend selects how the graph's device is opened.
type Backend string

const (
	// BackendAuto inspects the host and uses oto when audio looks usable.
	BackendAuto Backend = "auto"
	// BackendOto always opens an oto device.
	BackendOto Backend = "oto"
	// BackendMock uses an in-memory device that produces no sound.
	BackendMock Backend = "mock"
	// BackendNone disables audio.
	BackendNone Backend = "none"
)

// Backends lists the accepted backend names.
func Backends() []Backend {
	return []Backend{BackendAuto, BackendOto, BackendMock, BackendNone}
}

// ParseBackend parses a backend name. The empty string means auto.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BackendAuto, nil
	}
	for _, b := range Backends() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownBackend, "%q", s)
}
