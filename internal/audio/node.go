package audio

import (
	"math"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Node is a mixing node in the graph. It sums its connected child nodes and
// voices and applies a fixed gain. A node is only audible while it is
// connected, directly or through other nodes, to the graph's destination.
//
// All methods are safe for concurrent use; mutations are serialized with the
// audio pull through the graph lock.
type Node struct {
	g     *Graph
	name  string
	gain  float64
	mixer *beep.Mixer
	chain beep.Streamer

	// out is the handle the parent's mixer holds. Setting its Streamer to nil
	// makes the parent drop it on the next pull.
	out      *beep.Ctrl
	parent   *Node
	children map[*Node]struct{}
	voices   map[*Voice]struct{}
}

func newNode(g *Graph, name string, gain float64) (*Node, error) {
	if math.IsNaN(gain) || math.IsInf(gain, 0) || gain < 0 {
		return nil, errors.Wrapf(ErrInvalidGain, "%v", gain)
	}

	n := &Node{
		g:        g,
		name:     name,
		gain:     gain,
		mixer:    &beep.Mixer{},
		children: make(map[*Node]struct{}),
		voices:   make(map[*Voice]struct{}),
	}
	n.chain = &effects.Volume{
		Streamer: beep.StreamerFunc(n.mix),
		Base:     2,
		Volume:   math.Log2(gain),
		Silent:   gain == 0,
	}
	return n, nil
}

// mix pulls the node's inputs. An idle node produces silence rather than
// draining, so the parent keeps it until it is disconnected.
func (n *Node) mix(samples [][2]float64) (int, bool) {
	filled, _ := n.mixer.Stream(samples)
	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// Name returns the label the node was created with.
func (n *Node) Name() string { return n.name }

// Gain returns the node's fixed gain.
func (n *Node) Gain() float64 { return n.gain }

// Connect routes the node's output into parent, detaching it from any
// previous parent first.
func (n *Node) Connect(parent *Node) error {
	if parent == nil {
		return errors.New("connect: nil parent")
	}
	if parent.g != n.g {
		return errors.New("connect: nodes belong to different graphs")
	}

	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	for p := parent; p != nil; p = p.parent {
		if p == n {
			return errors.Wrapf(ErrCycle, "%s -> %s", n.name, parent.name)
		}
	}

	n.detachLocked()
	n.out = &beep.Ctrl{Streamer: n.chain}
	parent.mixer.Add(n.out)
	parent.children[n] = struct{}{}
	n.parent = parent
	return nil
}

// Disconnect detaches the node from its parent. It is a no-op for a node
// that is not connected.
func (n *Node) Disconnect() {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	n.detachLocked()
}

func (n *Node) detachLocked() {
	if n.parent == nil {
		return
	}
	n.out.Streamer = nil
	delete(n.parent.children, n)
	n.parent = nil
	n.out = nil
}

// Connected reports whether the node currently has a parent.
func (n *Node) Connected() bool {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	return n.parent != nil
}

// Children returns the number of nodes connected to n.
func (n *Node) Children() int {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()
	return len(n.children)
}

// Voices returns the number of voices started on n that have not been
// stopped or finished.
func (n *Node) Voices() int {
	n.g.mu.Lock()
	defer n.g.mu.Unlock()

	count := 0
	for v := range n.voices {
		if v.Playing() {
			count++
		}
	}
	return count
}

// Play starts src on the node. A looping voice repeats until stopped; a
// one-shot voice finishes when the source runs out.
func (n *Node) Play(src *Source, loop bool) *Voice {
	v := &Voice{node: n}
	v.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(src.streamer(loop), beep.Callback(v.finish)),
	}

	n.g.mu.Lock()
	n.voices[v] = struct{}{}
	n.mixer.Add(v.ctrl)
	n.g.mu.Unlock()
	return v
}

// Voice is one source playing on a node.
type Voice struct {
	node *Node
	ctrl *beep.Ctrl
	done atomic.Bool
}

// finish runs inside the audio pull with the graph lock held.
func (v *Voice) finish() {
	v.done.Store(true)
	delete(v.node.voices, v)
}

// Stop silences the voice. Stopping twice is a no-op.
func (v *Voice) Stop() {
	v.node.g.mu.Lock()
	defer v.node.g.mu.Unlock()

	v.ctrl.Streamer = nil
	v.done.Store(true)
	delete(v.node.voices, v)
}

// Playing reports whether the voice has neither been stopped nor run out.
func (v *Voice) Playing() bool {
	return !v.done.Load()
}
