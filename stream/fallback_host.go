package stream

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// FallbackHost renders on an ordinary goroutine and hands each block to a
// Sink. It serves hosts without a device thread and offline recording. The
// block math is the same as on the real-time host; only the timing is
// looser.
//
// Streams opened from one host share its sink. Their writes are serialised
// and the sink is closed when the last open stream closes, after which Open
// fails with ErrClosed. A host created without a sink discards its output
// and never closes.
type FallbackHost struct {
	// Period between blocks. Zero paces at the block duration.
	Period time.Duration
	// Unpaced renders blocks back to back, for offline use.
	Unpaced bool
	Logger  *slog.Logger

	mu      sync.Mutex // guards sink writes and the fields below
	sink    Sink
	discard bool
	open    int
	closed  bool
}

// NewFallbackHost creates a fallback host writing to sink. A nil sink
// discards the output.
func NewFallbackHost(sink Sink) *FallbackHost {
	if sink == nil {
		return &FallbackHost{sink: DiscardSink{}, discard: true}
	}

	return &FallbackHost{sink: sink}
}

// Name implements Host.
func (h *FallbackHost) Name() string { return "fallback" }

// Realtime implements Host.
func (h *FallbackHost) Realtime() bool { return false }

// Open implements Host.
func (h *FallbackHost) Open(cfg StreamConfig, render RenderFunc) (Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, fmt.Errorf("stream: fallback sink: %w", ErrClosed)
	}

	period := h.Period
	if period <= 0 {
		period = time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second))
	}

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h.open++

	return &fallbackStream{
		host:    h,
		render:  render,
		block:   make([]float64, cfg.BlockSize),
		period:  period,
		unpaced: h.Unpaced,
		logger:  logger,
	}, nil
}

func (h *FallbackHost) write(block []float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	return h.sink.WriteBlock(block)
}

// release drops one open stream and closes the sink with the last one.
func (h *FallbackHost) release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.open--
	if h.open > 0 || h.discard {
		return nil
	}

	h.closed = true

	return h.sink.Close()
}

type fallbackStream struct {
	host    *FallbackHost
	render  RenderFunc
	block   []float64
	period  time.Duration
	unpaced bool
	logger  *slog.Logger

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	closed bool
}

func (s *fallbackStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.run(s.stop, s.done)

	return nil
}

func (s *fallbackStream) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if !s.unpaced {
		ticker := time.NewTicker(s.period)
		defer ticker.Stop()

		tick = ticker.C
	}

	failed := false

	for {
		if tick != nil {
			select {
			case <-stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-stop:
				return
			default:
			}
		}

		s.render(s.block)

		if err := s.host.write(s.block); err != nil && !failed {
			failed = true
			s.logger.Error("fallback sink write failed", "error", err)
		}
	}
}

// halt stops the render goroutine and waits for it. Callers hold s.mu.
func (s *fallbackStream) halt() {
	if s.stop == nil {
		return
	}

	close(s.stop)
	<-s.done

	s.stop = nil
	s.done = nil
}

func (s *fallbackStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.halt()

	return nil
}

func (s *fallbackStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.halt()
	s.closed = true

	return s.host.release()
}
