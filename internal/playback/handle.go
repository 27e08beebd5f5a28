package playback

import (
	"github.com/calmstep/calmstep/internal/audio"
	"github.com/calmstep/calmstep/internal/soundscape"
	"github.com/google/uuid"
)

// kind distinguishes the two playback slots.
type kind int

const (
	kindLoop kind = iota
	kindPreview
)

func (k kind) String() string {
	if k == kindPreview {
		return "preview"
	}
	return "loop"
}

// handle is one active render. Its id is compared by expiry callbacks so a
// timer left over from an older render cannot tear down a newer one.
type handle struct {
	id    uuid.UUID
	kind  kind
	sound soundscape.ID
	node  *audio.Node
	voice *audio.Voice
	timer Timer
}

// teardown cancels the expiry timer, stops the voice and detaches the node.
func (h *handle) teardown() {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.voice.Stop()
	h.node.Disconnect()
}
