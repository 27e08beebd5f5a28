// Package lifecycle coordinates graceful shutdown of long-lived components
// such as the playback manager, running engines and the audio graph.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// DefaultTimeout bounds the whole shutdown sequence.
const DefaultTimeout = 5 * time.Second

// Component is anything that needs cleanup on shutdown.
type Component interface {
	Shutdown(ctx context.Context) error
}

// ForceStopper is implemented by components that can be torn down
// immediately when a graceful shutdown fails.
type ForceStopper interface {
	ForceStop() error
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(ctx context.Context) error

// Shutdown calls f.
func (f ComponentFunc) Shutdown(ctx context.Context) error { return f(ctx) }

type entry struct {
	name string
	c    Component
}

// Manager shuts registered components down in reverse registration order,
// either on SIGINT/SIGTERM or when Shutdown is called.
type Manager struct {
	timeout  time.Duration
	signals  <-chan os.Signal
	onSignal func(os.Signal)

	mu         sync.Mutex
	components []entry
	isShutdown bool
	err        error

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	wg        sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout bounds the shutdown sequence.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithSignals replaces the OS signal subscription, mainly for tests.
func WithSignals(ch <-chan os.Signal) Option {
	return func(m *Manager) { m.signals = ch }
}

// OnSignal registers a hook that runs when a signal arrives, before the
// components are shut down. The TUI uses it to quit its program.
func OnSignal(fn func(os.Signal)) Option {
	return func(m *Manager) { m.onSignal = fn }
}

// New returns a Manager. Call Start to begin watching for signals.
func New(opts ...Option) *Manager {
	m := &Manager{
		timeout: DefaultTimeout,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a component. Components registered after shutdown began
// are ignored.
func (m *Manager) Register(name string, c Component) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isShutdown {
		log.Warn("Cannot register component during shutdown", "component", name)
		return
	}
	m.components = append(m.components, entry{name: name, c: c})
	log.Debug("Registered lifecycle component", "name", name)
}

// RegisterFunc registers a function as a component.
func (m *Manager) RegisterFunc(name string, fn func(ctx context.Context) error) {
	m.Register(name, ComponentFunc(fn))
}

// Start begins watching for shutdown signals. It is safe to call more than
// once.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		signals := m.signals
		var release func()
		if signals == nil {
			ch := make(chan os.Signal, 1)
			signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
			signals = ch
			release = func() { signal.Stop(ch) }
		}

		m.wg.Add(1)
		go m.watch(signals, release)
	})
}

func (m *Manager) watch(signals <-chan os.Signal, release func()) {
	defer m.wg.Done()
	if release != nil {
		defer release()
	}

	select {
	case sig := <-signals:
		log.Info("Received shutdown signal", "signal", sig)
		if m.onSignal != nil {
			m.onSignal(sig)
		}
		go m.Shutdown() //nolint:errcheck
	case <-m.stop:
		log.Debug("Shutdown initiated programmatically")
	}
}

// Shutdown stops every component, newest first, within the configured
// timeout. Later calls return the first call's result once it is done.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.isShutdown {
		m.mu.Unlock()
		<-m.done
		return m.result()
	}
	m.isShutdown = true
	components := m.components
	m.mu.Unlock()

	log.Debug("Starting graceful shutdown", "components", len(components))
	close(m.stop)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var errs error
	for i := len(components) - 1; i >= 0; i-- {
		e := components[i]
		log.Debug("Shutting down component", "name", e.name)

		err := e.c.Shutdown(ctx)
		if err == nil {
			continue
		}
		log.Warn("Component graceful shutdown failed", "name", e.name, "error", err)

		if fs, ok := e.c.(ForceStopper); ok {
			if ferr := fs.ForceStop(); ferr != nil {
				log.Error("Component force stop failed", "name", e.name, "error", ferr)
				err = errors.CombineErrors(err, ferr)
			} else {
				err = nil
			}
		}
		if err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "shutdown %s", e.name))
		}
	}

	m.wg.Wait()

	m.mu.Lock()
	m.err = errs
	m.mu.Unlock()
	close(m.done)

	if errs != nil {
		return errs
	}
	log.Debug("Graceful shutdown complete")
	return nil
}

func (m *Manager) result() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Done is closed once shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until shutdown has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return m.result()
	case <-ctx.Done():
		return ctx.Err()
	}
}
