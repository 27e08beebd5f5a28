// Package playback manages the two sound slots of a session: a looping
// background soundscape and a short, self-expiring preview. At most one
// render of each kind exists at a time; starting a new one always tears the
// old one down first.
//
// Playback is decorative. Failures are logged and swallowed, and callers only
// observe whether something is playing.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Output is the part of the audio graph the manager needs. *audio.Graph
// implements it.
type Output interface {
	Init() bool
	Resume(ctx context.Context) error
	Suspend() error
	SampleRate() int
	Master() *audio.Node
	Destination() *audio.Node
	NewNode(gain float64) (*audio.Node, error)
}

// ErrClosed is reported (in logs) for starts after Close.
var ErrClosed = errors.New("playback manager closed")

// Config tunes the manager.
type Config struct {
	// LoopLength is the length of the buffer repeated by the loop.
	LoopLength time.Duration
	// PreviewLength is both the preview buffer length and its expiry.
	PreviewLength time.Duration
	// PreviewGain is the gain of the preview node.
	PreviewGain float64
	// ResumeTimeout bounds waiting for a suspended device.
	ResumeTimeout time.Duration
	// WarnEvery limits how often playback failures are logged at warn level.
	WarnEvery time.Duration
	// Scheduler runs preview expiry. Defaults to the wall clock.
	Scheduler Scheduler
	// Seed returns the seed for each synthesis. Defaults to the current time.
	Seed func() int64
}

// DefaultConfig returns the standard loop and preview settings.
func DefaultConfig() Config {
	return Config{
		LoopLength:    3 * time.Second,
		PreviewLength: 2 * time.Second,
		PreviewGain:   0.2,
		ResumeTimeout: 2 * time.Second,
		WarnEvery:     time.Minute,
	}
}

// Manager owns the loop and preview handles.
type Manager struct {
	out  Output
	cfg  Config
	warn *rate.Limiter

	mu       sync.Mutex
	loop     *handle
	preview  *handle
	selected soundscape.ID
	closed   bool
}

// New creates a manager that plays through out. Zero fields in cfg take
// their DefaultConfig values.
func New(out Output, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.LoopLength <= 0 {
		cfg.LoopLength = def.LoopLength
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = def.PreviewLength
	}
	if cfg.PreviewGain <= 0 {
		cfg.PreviewGain = def.PreviewGain
	}
	if cfg.ResumeTimeout <= 0 {
		cfg.ResumeTimeout = def.ResumeTimeout
	}
	if cfg.WarnEvery <= 0 {
		cfg.WarnEvery = def.WarnEvery
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = WallClock()
	}
	if cfg.Seed == nil {
		cfg.Seed = func() int64 { return time.Now().UnixNano() }
	}

	return &Manager{
		out:  out,
		cfg:  cfg,
		warn: rate.NewLimiter(rate.Every(cfg.WarnEvery), 1),
	}
}

// StartLoop replaces the current loop with id, repeating indefinitely through
// the master node. It reports whether the loop is now playing.
func (m *Manager) StartLoop(id soundscape.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLoopLocked()

	h, err := m.startLocked(kindLoop, id)
	if err != nil {
		m.report(kindLoop, id, err)
		return false
	}
	m.loop = h
	log.Debug("Loop started", "sound", id.String(), "handle", h.id)
	return true
}

// StopLoop stops the loop if one is playing.
func (m *Manager) StopLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop == nil {
		return
	}
	m.stopLoopLocked()
	m.suspendIfIdleLocked()
}

func (m *Manager) stopLoopLocked() {
	if m.loop == nil {
		return
	}
	log.Debug("Loop stopped", "sound", m.loop.sound.String(), "handle", m.loop.id)
	m.loop.teardown()
	m.loop = nil
}

// StartPreview replaces the current preview with a short one-shot render of
// id wired straight to the destination. The preview removes itself when it
// has played out.
func (m *Manager) StartPreview(id soundscape.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopPreviewLocked()

	h, err := m.startLocked(kindPreview, id)
	if err != nil {
		m.report(kindPreview, id, err)
		return false
	}

	hid := h.id
	h.timer = m.cfg.Scheduler.AfterFunc(m.cfg.PreviewLength, func() {
		m.expirePreview(hid)
	})
	m.preview = h
	log.Debug("Preview started", "sound", id.String(), "handle", h.id)
	return true
}

// StopPreview stops the preview if one is playing and cancels its expiry.
func (m *Manager) StopPreview() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preview == nil {
		return
	}
	m.stopPreviewLocked()
	m.suspendIfIdleLocked()
}

func (m *Manager) stopPreviewLocked() {
	if m.preview == nil {
		return
	}
	m.preview.teardown()
	m.preview = nil
}

// expirePreview is the preview timer callback. It only acts when the preview
// it was scheduled for is still the active one.
func (m *Manager) expirePreview(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preview == nil || m.preview.id != id {
		log.Debug("Ignoring stale preview expiry", "handle", id)
		return
	}
	log.Debug("Preview expired", "sound", m.preview.sound.String(), "handle", id)
	m.preview.teardown()
	m.preview = nil
	m.suspendIfIdleLocked()
}

// suspendIfIdleLocked pauses the output device once neither slot is
// playing. The next start resumes it.
func (m *Manager) suspendIfIdleLocked() {
	if m.loop != nil || m.preview != nil {
		return
	}
	if err := m.out.Suspend(); err != nil {
		log.Debug("Could not suspend audio output", "error", err)
	}
}

// startLocked synthesizes id and starts it on a fresh node.
func (m *Manager) startLocked(k kind, id soundscape.ID) (*handle, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if !id.Valid() {
		return nil, errors.Wrapf(soundscape.ErrUnknown, "id %d", int(id))
	}
	if !m.out.Init() {
		return nil, audio.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ResumeTimeout)
	defer cancel()
	if err := m.out.Resume(ctx); err != nil {
		return nil, errors.Wrap(err, "resume output")
	}

	length, gain, parent := m.cfg.LoopLength, 1.0, m.out.Master()
	if k == kindPreview {
		length, gain, parent = m.cfg.PreviewLength, m.cfg.PreviewGain, m.out.Destination()
	}

	rateHz := m.out.SampleRate()
	left, right, err := soundscape.Render(id, length, rateHz, m.cfg.Seed())
	if err != nil {
		return nil, errors.Wrap(err, "synthesize")
	}
	src, err := audio.NewSource(left, right, rateHz)
	if err != nil {
		return nil, err
	}

	node, err := m.out.NewNode(gain)
	if err != nil {
		return nil, err
	}
	if err := node.Connect(parent); err != nil {
		return nil, errors.Wrap(err, "connect node")
	}

	return &handle{
		id:    uuid.New(),
		kind:  k,
		sound: id,
		node:  node,
		voice: node.Play(src, k == kindLoop),
	}, nil
}

// report logs a failed start. Unavailable audio is expected on headless
// hosts, so repeated failures drop to debug level.
func (m *Manager) report(k kind, id soundscape.ID, err error) {
	if m.warn.Allow() {
		log.Warn("Could not start sound", "kind", k, "sound", id.String(), "error", err)
		return
	}
	log.Debug("Could not start sound", "kind", k, "sound", id.String(), "error", err)
}

// IsPlaying reports whether a loop is active.
func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop != nil
}

// IsPreviewPlaying reports whether a preview is active.
func (m *Manager) IsPreviewPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview != nil
}

// Playing returns the soundscape of the active loop, or 0.
func (m *Manager) Playing() soundscape.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loop == nil {
		return 0
	}
	return m.loop.sound
}

// Previewing returns the soundscape of the active preview, or 0.
func (m *Manager) Previewing() soundscape.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.preview == nil {
		return 0
	}
	return m.preview.sound
}

// Select records the soundscape used by StartSelected.
func (m *Manager) Select(id soundscape.ID) error {
	if !id.Valid() {
		return errors.Wrapf(soundscape.ErrUnknown, "id %d", int(id))
	}
	m.mu.Lock()
	m.selected = id
	m.mu.Unlock()
	return nil
}

// Selected returns the selected soundscape, or 0 when none is selected.
func (m *Manager) Selected() soundscape.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// SelectedName returns the display name of the selection.
func (m *Manager) SelectedName() string {
	return m.Selected().String()
}

// StartSelected starts the loop for the selected soundscape. Without a
// selection it does nothing.
func (m *Manager) StartSelected() bool {
	id := m.Selected()
	if id == 0 {
		return false
	}
	return m.StartLoop(id)
}

// Close stops both slots. Later starts are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLoopLocked()
	m.stopPreviewLocked()
	m.suspendIfIdleLocked()
	m.closed = true
}

// Shutdown implements lifecycle.Component.
func (m *Manager) Shutdown(context.Context) error {
	m.Close()
	return nil
}
