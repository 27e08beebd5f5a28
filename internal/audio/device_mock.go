package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// MockDevice is a silent Device for tests and headless runs. It starts
// suspended when StartSuspended is set, mirroring platforms that require a
// user gesture before output begins.
type MockDevice struct {
	// StartErr is returned from Start when set.
	StartErr error
	// ResumeErr is returned from Resume when set.
	ResumeErr error

	mu         sync.Mutex
	reader     io.Reader
	sampleRate int
	suspended  bool
	closed     bool

	startCount  atomic.Int64
	resumeCount atomic.Int64
}

// NewMockDevice returns a mock device running at sampleRate.
func NewMockDevice(sampleRate int) *MockDevice {
	return &MockDevice{sampleRate: sampleRate}
}

// NewSuspendedMockDevice returns a mock device that needs Resume before it
// reports as running.
func NewSuspendedMockDevice(sampleRate int) *MockDevice {
	return &MockDevice{sampleRate: sampleRate, suspended: true}
}

// MockOpener returns an Opener that always yields dev.
func MockOpener(dev *MockDevice) Opener {
	return func(int) (Device, error) { return dev, nil }
}

func (m *MockDevice) Start(r io.Reader) error {
	m.startCount.Add(1)
	if m.StartErr != nil {
		return m.StartErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrDeviceClosed
	}
	m.reader = r
	return nil
}

func (m *MockDevice) Suspend() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = true
	return nil
}

func (m *MockDevice) Resume() error {
	m.resumeCount.Add(1)
	if m.ResumeErr != nil {
		return m.ResumeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspended = false
	return nil
}

func (m *MockDevice) Suspended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suspended
}

func (m *MockDevice) SampleRate() int { return m.sampleRate }

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.reader = nil
	return nil
}

// Closed reports whether Close was called.
func (m *MockDevice) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// StartCount returns how many times Start was called.
func (m *MockDevice) StartCount() int64 { return m.startCount.Load() }

// ResumeCount returns how many times Resume was called.
func (m *MockDevice) ResumeCount() int64 { return m.resumeCount.Load() }

// Render pulls frames from the started reader the way a real device would
// and decodes them back to float samples. It returns nil before Start.
func (m *MockDevice) Render(frames int) [][2]float32 {
	m.mu.Lock()
	r := m.reader
	m.mu.Unlock()
	if r == nil {
		return nil
	}

	p := make([]byte, frames*bytesPerFrame)
	n, _ := io.ReadFull(r, p)

	out := make([][2]float32, n/bytesPerFrame)
	for i := range out {
		off := i * bytesPerFrame
		out[i][0] = math.Float32frombits(binary.LittleEndian.Uint32(p[off:]))
		out[i][1] = math.Float32frombits(binary.LittleEndian.Uint32(p[off+4:]))
	}
	return out
}
