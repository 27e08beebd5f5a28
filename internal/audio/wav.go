package audio

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2/wav"
)

// EncodeWAV writes src to w as a 16-bit stereo WAV file.
func EncodeWAV(w io.WriteSeeker, src *Source) error {
	if err := wav.Encode(w, src.Streamer(), src.buf.Format()); err != nil {
		return errors.Wrap(err, "encode wav")
	}
	return nil
}
