// Package stream runs plateau filters against audio hosts.
//
// An Engine owns the stream configuration and an ordered list of hosts.
// Nodes created from it are attached to the first host that opens,
// normally the oto device host with a goroutine-driven fallback behind it.
// Both host kinds call the same render callback, which runs one pass of
// the spectral frame pipeline per block.
//
// Parameter updates go through a Mailbox: the control side computes the
// mask and publishes an immutable snapshot, and the render side swaps it
// in at the start of the next block. Extra band shapes added to a node are
// multiplied into that mask and travel the same way.
package stream
