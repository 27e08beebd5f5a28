package audio

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
)

// Source is a rendered stereo buffer ready to be played on a node.
type Source struct {
	buf *beep.Buffer
}

// NewSource copies left and right into a playable buffer at sampleRate.
func NewSource(left, right []float64, sampleRate int) (*Source, error) {
	if len(left) != len(right) {
		return nil, errors.Newf("source: channel length mismatch (%d != %d)", len(left), len(right))
	}
	if sampleRate <= 0 {
		return nil, errors.Newf("source: invalid sample rate %d", sampleRate)
	}

	buf := beep.NewBuffer(Format(sampleRate))
	buf.Append(frames(left, right))
	return &Source{buf: buf}, nil
}

// Format is the stereo 16-bit format used for sources and WAV export.
func Format(sampleRate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
}

// frames streams two channel slices as interleaved frames.
func frames(left, right []float64) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(left) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(left) {
			samples[n] = [2]float64{left[pos], right[pos]}
			n++
			pos++
		}
		return n, true
	})
}

// Len returns the number of frames in the source.
func (s *Source) Len() int { return s.buf.Len() }

// Duration returns the playing time of one pass through the source.
func (s *Source) Duration() time.Duration {
	return s.buf.Format().SampleRate.D(s.buf.Len())
}

// Streamer returns a fresh one-shot streamer over the whole buffer.
func (s *Source) Streamer() beep.StreamSeeker {
	return s.buf.Streamer(0, s.buf.Len())
}

func (s *Source) streamer(loop bool) beep.Streamer {
	if !loop || s.buf.Len() == 0 {
		return s.Streamer()
	}
	return beep.Loop(-1, s.Streamer())
}
