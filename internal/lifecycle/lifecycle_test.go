package lifecycle

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type stubComponent struct {
	rec      *recorder
	name     string
	err      error
	forceErr error
}

func (s *stubComponent) Shutdown(context.Context) error {
	s.rec.add("shutdown " + s.name)
	return s.err
}

func (s *stubComponent) ForceStop() error {
	s.rec.add("force " + s.name)
	return s.forceErr
}

func TestShutdown_ReverseOrder(t *testing.T) {
	rec := &recorder{}
	m := New()
	for _, name := range []string{"graph", "playback", "engine"} {
		name := name
		m.RegisterFunc(name, func(context.Context) error {
			rec.add(name)
			return nil
		})
	}

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"engine", "playback", "graph"}, rec.list())

	select {
	case <-m.Done():
	default:
		t.Fatal("done not closed")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	calls := 0
	m := New()
	m.RegisterFunc("once", func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, m.Shutdown())
	require.NoError(t, m.Shutdown())
	assert.Equal(t, 1, calls)
}

func TestShutdown_ForceStop(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		component *stubComponent
		wantErr   bool
		wantCalls []string
	}{
		{
			name:      "graceful",
			component: &stubComponent{name: "a"},
			wantCalls: []string{"shutdown a"},
		},
		{
			name:      "force recovers",
			component: &stubComponent{name: "a", err: boom},
			wantCalls: []string{"shutdown a", "force a"},
		},
		{
			name:      "force fails",
			component: &stubComponent{name: "a", err: boom, forceErr: errors.New("stuck")},
			wantErr:   true,
			wantCalls: []string{"shutdown a", "force a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tt.component.rec = rec
			m := New()
			m.Register(tt.component.name, tt.component)

			err := m.Shutdown()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, boom))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, rec.list())
		})
	}
}

func TestShutdown_CombinesErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	m := New()
	m.RegisterFunc("a", func(context.Context) error { return first })
	m.RegisterFunc("b", func(context.Context) error { return second })

	err := m.Shutdown()
	require.Error(t, err)
	assert.True(t, errors.Is(err, second))
	assert.Contains(t, err.Error(), "shutdown b")
}

func TestShutdown_Timeout(t *testing.T) {
	m := New(WithTimeout(10 * time.Millisecond))
	m.RegisterFunc("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown()
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRegisterAfterShutdown(t *testing.T) {
	called := false
	m := New()
	require.NoError(t, m.Shutdown())

	m.RegisterFunc("late", func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.Empty(t, m.components)
}

func TestSignalTriggersShutdown(t *testing.T) {
	signals := make(chan os.Signal, 1)
	got := make(chan os.Signal, 1)
	var stopped bool

	m := New(
		WithSignals(signals),
		OnSignal(func(s os.Signal) { got <- s }),
	)
	m.RegisterFunc("playback", func(context.Context) error {
		stopped = true
		return nil
	})
	m.Start()
	m.Start()

	signals <- syscall.SIGTERM

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Wait(ctx))
	assert.True(t, stopped)
	assert.Equal(t, syscall.SIGTERM, <-got)
}

func TestWait_ContextDone(t *testing.T) {
	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Wait(ctx), context.Canceled)
}

func TestStartThenProgrammaticShutdown(t *testing.T) {
	m := New(WithSignals(make(chan os.Signal)))
	m.Start()
	require.NoError(t, m.Shutdown())
}
