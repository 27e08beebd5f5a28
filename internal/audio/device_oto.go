//go:build !nocgo

package audio

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ebitengine/oto/v3"
)

// otoDevice plays the graph through an oto context.
type otoDevice struct {
	mu         sync.Mutex
	ctx        *oto.Context
	player     *oto.Player
	sampleRate int
	suspended  bool
	closed     bool
}

// openOto creates an oto context for host, retrying where the platform's
// audio server is known to be slow to come up.
func openOto(host *Host, sampleRate int) (Device, error) {
	attempts, delay := host.retryPolicy()
	return openWithRetry(attempts, delay, func() (Device, error) {
		dev, err := newOtoDevice(host, sampleRate)
		if err != nil {
			return nil, err
		}
		return dev, nil
	})
}

func newOtoDevice(host *Host, sampleRate int) (*otoDevice, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   host.BufferSize(),
	}

	log.Debug("Opening audio device",
		"os", host.OS,
		"subsystem", host.Subsystem,
		"sample_rate", opts.SampleRate,
		"buffer", opts.BufferSize)

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, errors.Wrap(err, "create oto context")
	}

	select {
	case <-ready:
	case <-time.After(host.readyTimeout()):
		// oto contexts cannot be closed and only one may exist, so this
		// error is final.
		return nil, errors.Wrapf(ErrDeviceTimeout, "after %v", host.readyTimeout())
	}

	return &otoDevice{ctx: ctx, sampleRate: sampleRate}, nil
}

func (d *otoDevice) Start(r io.Reader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	if d.player != nil {
		return nil
	}
	if err := d.ctx.Err(); err != nil {
		return errors.Wrap(err, "audio context")
	}

	d.player = d.ctx.NewPlayer(r)
	d.player.Play()
	return nil
}

func (d *otoDevice) Suspend() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.suspended {
		return nil
	}
	if err := d.ctx.Suspend(); err != nil {
		return errors.Wrap(err, "suspend audio context")
	}
	d.suspended = true
	return nil
}

func (d *otoDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	if !d.suspended {
		return nil
	}
	if err := d.ctx.Resume(); err != nil {
		return errors.Wrap(err, "resume audio context")
	}
	d.suspended = false
	return nil
}

func (d *otoDevice) Suspended() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.suspended
}

func (d *otoDevice) SampleRate() int { return d.sampleRate }

func (d *otoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	return err
}
