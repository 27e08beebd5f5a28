// Package audio owns the process-wide audio output graph: one output device,
// a destination bus and a master node at fixed gain. Consumers create their
// own transient nodes, connect them to the master node (or straight to the
// destination) and play sources through them.
//
// When the host has no usable audio output the graph initializes into an
// unavailable state and every playback operation becomes a silent no-op.
package audio
