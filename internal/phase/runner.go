package phase

import (
	"context"
	"sync"
	"time"
)

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. WallClock uses real time; tests use a ManualClock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type wallClock struct{}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

func (wallClock) NewTicker(d time.Duration) Ticker {
	return wallTicker{time.NewTicker(d)}
}

// WallClock returns a Clock backed by time.NewTicker.
func WallClock() Clock { return wallClock{} }

// Runner ticks an engine once per second on its own goroutine. The loop ends
// when the engine stops running (paused, held or terminal) or the context is
// cancelled.
type Runner struct {
	engine *Engine
	clock  Clock
	onTick func(Snapshot)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock replaces the wall clock.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithTickHook calls fn with the engine state after every tick the runner
// delivers, transition or not.
func WithTickHook(fn func(Snapshot)) RunnerOption {
	return func(r *Runner) { r.onTick = fn }
}

// NewRunner returns a stopped runner for e.
func NewRunner(e *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{engine: e, clock: WallClock()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine returns the driven engine.
func (r *Runner) Engine() *Engine { return r.engine }

// Start starts the engine and the tick loop. It returns false when the
// engine could not start.
func (r *Runner) Start(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.engine.Start() {
		return false
	}
	r.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done
	go r.loop(ctx, done)
	return true
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := r.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			// Both cases can be ready after a cancel; a stale loop must not
			// tick an engine a new Start already owns.
			if ctx.Err() != nil {
				return
			}
			r.engine.Tick()
			snap := r.engine.Snapshot()
			if r.onTick != nil {
				r.onTick(snap)
			}
			if !snap.Running() {
				return
			}
		}
	}
}

// Pause pauses the engine and cancels the pending tick schedule.
func (r *Runner) Pause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	paused := r.engine.Pause()
	r.stopLocked()
	return paused
}

// Reset resets the engine and cancels the pending tick schedule.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.engine.Reset()
	r.stopLocked()
}

// Stop cancels the tick schedule without changing the engine.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// Done returns a channel closed when the current tick loop exits. It is nil
// before the first Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Wait blocks until the current tick loop exits or ctx ends.
func (r *Runner) Wait(ctx context.Context) error {
	done := r.Done()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown implements lifecycle.Component.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.Pause()
	return r.Wait(ctx)
}

// ManualClock is a Clock whose tickers only fire when Advance is called.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
	clock   *ManualClock
}

// NewManualClock returns a clock with no tickers.
func NewManualClock() *ManualClock { return &ManualClock{} }

func (c *ManualClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{c: make(chan time.Time), clock: c}
	c.tickers = append(c.tickers, t)
	return t
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Tickers returns the number of tickers that have not been stopped.
func (c *ManualClock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		t.mu.Lock()
		if !t.stopped {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

// Advance delivers one tick to every live ticker. It reports whether any
// ticker received it within timeout.
func (c *ManualClock) Advance(timeout time.Duration) bool {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()

	delivered := false
	for _, t := range tickers {
		t.mu.Lock()
		stopped := t.stopped
		t.mu.Unlock()
		if stopped {
			continue
		}
		select {
		case t.c <- time.Time{}:
			delivered = true
		case <-time.After(timeout):
		}
	}
	return delivered
}
