package audio

import (
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

const (
	// DefaultSampleRate is the output rate used when none is configured.
	DefaultSampleRate = 44100

	// MasterGain is the fixed gain of the master node.
	MasterGain = 0.3

	// bytesPerFrame is two little-endian float32 samples.
	bytesPerFrame = 8
)

// Opener opens the output device the graph renders into.
type Opener func(sampleRate int) (Device, error)

// Graph is the audio output graph: a device, a destination bus and a master
// node at MasterGain connected to the destination.
//
// The destination and master nodes exist from construction so consumers can
// wire nodes before Init; nothing is audible until Init succeeds.
type Graph struct {
	// mu serializes node mutations against the device pulling samples.
	mu      sync.Mutex
	scratch [][2]float64

	initMu      sync.Mutex
	initialized bool
	unavailable bool
	device      Device

	open        Opener
	sampleRate  int
	destination *Node
	master      *Node
}

// NewGraph creates an uninitialized graph that opens its device with open.
func NewGraph(sampleRate int, open Opener) *Graph {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	g := &Graph{
		open:       open,
		sampleRate: sampleRate,
	}

	g.destination, _ = newNode(g, "destination", 1)
	g.master, _ = newNode(g, "master", MasterGain)
	_ = g.master.Connect(g.destination)
	return g
}

// Init opens the device and starts pulling audio. It is safe to call any
// number of times; only the first call does work. When the host has no
// usable output the graph becomes unavailable, a warning is logged and Init
// returns false.
func (g *Graph) Init() bool {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	if g.initialized {
		return !g.unavailable
	}
	g.initialized = true

	if g.open == nil {
		g.markUnavailable(errors.Wrap(ErrUnavailable, "no device opener"))
		return false
	}

	dev, err := g.open(g.sampleRate)
	if err != nil {
		g.markUnavailable(err)
		return false
	}
	if err := dev.Start(g); err != nil {
		_ = dev.Close()
		g.markUnavailable(err)
		return false
	}

	g.device = dev
	log.Debug("Audio graph initialized", "sample_rate", g.sampleRate)
	return true
}

func (g *Graph) markUnavailable(err error) {
	g.unavailable = true
	log.Warn("Audio output unavailable, sounds are disabled", "error", err)
}

// Initialized reports whether Init has run.
func (g *Graph) Initialized() bool {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	return g.initialized
}

// Available reports whether Init succeeded.
func (g *Graph) Available() bool {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	return g.initialized && !g.unavailable
}

// Resume reactivates a suspended device. It returns ErrUnavailable when the
// graph is not usable, and ctx's error if ctx ends first.
func (g *Graph) Resume(ctx context.Context) error {
	g.initMu.Lock()
	dev := g.device
	usable := g.initialized && !g.unavailable
	g.initMu.Unlock()

	if !usable || dev == nil {
		return ErrUnavailable
	}
	if !dev.Suspended() {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- dev.Resume() }()

	select {
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "resume audio device")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Suspend pauses the device. Nodes stay wired.
func (g *Graph) Suspend() error {
	g.initMu.Lock()
	dev := g.device
	g.initMu.Unlock()

	if dev == nil {
		return nil
	}
	return dev.Suspend()
}

// NewNode creates an unconnected transient node with the given gain.
func (g *Graph) NewNode(gain float64) (*Node, error) {
	return newNode(g, "node", gain)
}

// Master returns the master node.
func (g *Graph) Master() *Node { return g.master }

// Destination returns the bus the device plays.
func (g *Graph) Destination() *Node { return g.destination }

// SampleRate returns the output sample rate.
func (g *Graph) SampleRate() int { return g.sampleRate }

// Pull renders the next frames from the destination.
func (g *Graph) Pull(frames int) [][2]float64 {
	out := make([][2]float64, frames)
	g.mu.Lock()
	g.destination.mix(out)
	g.mu.Unlock()
	return out
}

// Read renders interleaved little-endian float32 stereo frames into p. The
// device calls it from its own goroutine.
func (g *Graph) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if cap(g.scratch) < frames {
		g.scratch = make([][2]float64, frames)
	}
	buf := g.scratch[:frames]
	g.destination.mix(buf)

	for i, frame := range buf {
		off := i * bytesPerFrame
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(float32(clamp(frame[0]))))
		binary.LittleEndian.PutUint32(p[off+4:], math.Float32bits(float32(clamp(frame[1]))))
	}
	return frames * bytesPerFrame, nil
}

// Close stops the device. The graph stays unusable afterwards.
func (g *Graph) Close() error {
	g.initMu.Lock()
	defer g.initMu.Unlock()

	g.initialized = true
	g.unavailable = true
	if g.device == nil {
		return nil
	}
	err := g.device.Close()
	g.device = nil
	return err
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
