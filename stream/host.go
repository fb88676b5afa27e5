package stream

import (
	"fmt"
	"sync"
)

// StreamConfig describes the audio stream a host opens.
type StreamConfig struct {
	SampleRate float64
	BlockSize  int
}

// RenderFunc fills out with the next block. len(out) is the configured
// block size. It is called from the host's rendering goroutine.
type RenderFunc func(out []float64)

// Host is an audio backend able to drive a RenderFunc.
type Host interface {
	Name() string
	// Realtime reports whether the host renders on a dedicated device
	// thread with a hard deadline.
	Realtime() bool
	Open(cfg StreamConfig, render RenderFunc) (Stream, error)
}

// Stream is an open host stream. After Close returns, render is not
// invoked again.
type Stream interface {
	Start() error
	Pause() error
	Close() error
}

// ManualHost renders only when Step is called. It stands in for a device in
// tests and offline tools, and can pose as either host kind.
type ManualHost struct {
	name     string
	realtime bool

	mu     sync.Mutex
	fail   error
	stream *manualStream
}

// NewManualHost creates a manual host.
func NewManualHost(name string, realtime bool) *ManualHost {
	return &ManualHost{name: name, realtime: realtime}
}

// Name implements Host.
func (h *ManualHost) Name() string { return h.name }

// Realtime implements Host.
func (h *ManualHost) Realtime() bool { return h.realtime }

// FailWith makes the next Open calls fail with err. A nil err clears it.
func (h *ManualHost) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.fail = err
}

// Open implements Host.
func (h *ManualHost) Open(cfg StreamConfig, render RenderFunc) (Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fail != nil {
		return nil, fmt.Errorf("stream: %s: %w", h.name, h.fail)
	}

	h.stream = &manualStream{cfg: cfg, render: render}

	return h.stream, nil
}

// Step renders one block into out if the current stream is running and
// reports whether it did. Otherwise out is zeroed.
func (h *ManualHost) Step(out []float64) bool {
	h.mu.Lock()
	s := h.stream
	h.mu.Unlock()

	if s == nil || !s.running() {
		clear(out)
		return false
	}

	s.render(out)

	return true
}

type manualStream struct {
	cfg    StreamConfig
	render RenderFunc

	mu      sync.Mutex
	started bool
	closed  bool
}

func (s *manualStream) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.started && !s.closed
}

func (s *manualStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	s.started = true

	return nil
}

func (s *manualStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = false

	return nil
}

func (s *manualStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}
