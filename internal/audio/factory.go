package audio

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Options configure the process-wide graph.
type Options struct {
	Backend    Backend
	SampleRate int
}

// DefaultOptions returns auto detection at DefaultSampleRate.
func DefaultOptions() Options {
	return Options{Backend: BackendAuto, SampleRate: DefaultSampleRate}
}

// OpenerFor returns the device opener for opts.Backend.
func OpenerFor(opts Options) Opener {
	switch opts.Backend {
	case BackendNone:
		return func(int) (Device, error) {
			return nil, errors.Wrap(ErrUnavailable, "audio disabled")
		}
	case BackendMock:
		return func(rate int) (Device, error) {
			return NewMockDevice(rate), nil
		}
	case BackendOto:
		return func(rate int) (Device, error) {
			return openOto(DetectHost(), rate)
		}
	default:
		return func(rate int) (Device, error) {
			host := DetectHost()
			if reason, unusable := host.Unusable(); unusable {
				return nil, errors.Wrap(ErrUnavailable, reason)
			}
			return openOto(host, rate)
		}
	}
}

var (
	defaultMu      sync.Mutex
	defaultOnce    sync.Once
	defaultGraph   *Graph
	defaultOptions = DefaultOptions()
)

// SetDefaultOptions configures the graph Default creates. It has no effect
// once Default has been called.
func SetDefaultOptions(opts Options) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOptions = opts
}

// Default returns the process-wide graph, creating it on first use. The
// graph is not initialized until someone calls Init.
func Default() *Graph {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		opts := defaultOptions
		defaultMu.Unlock()

		log.Debug("Creating audio graph", "backend", opts.Backend, "sample_rate", opts.SampleRate)
		g := NewGraph(opts.SampleRate, OpenerFor(opts))

		defaultMu.Lock()
		defaultGraph = g
		defaultMu.Unlock()
	})

	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultGraph
}

// SetDefault replaces the process-wide graph. Tests use it to inject a graph
// backed by a mock device.
func SetDefault(g *Graph) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defaultGraph = g
	defaultMu.Unlock()
}

// ResetDefault closes the process-wide graph and lets Default create a new
// one.
func ResetDefault() {
	defaultMu.Lock()
	g := defaultGraph
	defaultGraph = nil
	defaultOnce = sync.Once{}
	defaultMu.Unlock()

	if g != nil {
		_ = g.Close()
	}
}
