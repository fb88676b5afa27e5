package stream

import (
	"sync"
	"sync/atomic"
)

// Monitor keeps the most recent rendered samples for display. The render
// side only ever tries the lock, so a reader holding it costs one skipped
// block of history rather than a stalled callback.
type Monitor struct {
	mu      sync.Mutex
	ring    []float64
	pos     int
	filled  bool
	skipped atomic.Uint64
}

// NewMonitor creates a monitor holding the last size samples.
func NewMonitor(size int) *Monitor {
	if size < 1 {
		size = 1
	}

	return &Monitor{ring: make([]float64, size)}
}

// Size returns the history length.
func (m *Monitor) Size() int { return len(m.ring) }

// Skipped returns how many blocks were dropped because a reader held the
// history.
func (m *Monitor) Skipped() uint64 { return m.skipped.Load() }

func (m *Monitor) write(block []float64) {
	if !m.mu.TryLock() {
		m.skipped.Add(1)
		return
	}
	defer m.mu.Unlock()

	for len(block) > 0 {
		c := copy(m.ring[m.pos:], block)
		block = block[c:]
		m.pos += c

		if m.pos == len(m.ring) {
			m.pos = 0
			m.filled = true
		}
	}
}

// Snapshot copies the history, oldest first, into dst and returns the
// number of samples written. Before the ring has filled, only the samples
// rendered so far are copied.
func (m *Monitor) Snapshot(dst []float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.filled {
		return copy(dst, m.ring[:m.pos])
	}

	n := copy(dst, m.ring[m.pos:])
	n += copy(dst[n:], m.ring[:m.pos])

	return n
}
