package stream

import "fmt"

// State is the lifecycle state of a Node.
type State int32

const (
	// Uninitialized: no processor, or no host could be opened. Renders silence.
	Uninitialized State = iota
	// Ready: processor, window and default mask built; not rendering yet.
	Ready
	// Streaming: the host invokes the render callback once per block.
	Streaming
	// Suspended: the host stream is paused; state and overlap are kept.
	Suspended
	// Destroyed: detached from the engine. Terminal.
	Destroyed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Streaming:
		return "streaming"
	case Suspended:
		return "suspended"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
