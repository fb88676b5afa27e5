package stream

import "errors"

var (
	// ErrNoHost is returned by Attach when neither a real-time nor a
	// fallback host could be opened. The node stays Uninitialized and
	// renders silence.
	ErrNoHost = errors.New("stream: no audio host available")
	// ErrClosed is returned for operations on a disposed engine or a
	// destroyed node.
	ErrClosed = errors.New("stream: closed")
	// ErrInvalidState is returned when a lifecycle call does not fit the
	// node's current state.
	ErrInvalidState = errors.New("stream: invalid state transition")
	// ErrNotAttached is returned when a node is used with an engine it does
	// not belong to.
	ErrNotAttached = errors.New("stream: node not attached to this engine")
	// ErrInvalidShape is returned for a nil extra shape or an index outside
	// the shape list.
	ErrInvalidShape = errors.New("stream: invalid shape")
)
