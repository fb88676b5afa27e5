package stream

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-plateau/dsp/plateau"
)

// snapshot is an immutable parameter set with its mask. Once published it
// is never written again.
type snapshot struct {
	params plateau.Params
	shapes []plateau.Shape
	mask   []float64
	seq    uint64
}

// Mailbox carries parameter updates from control goroutines to the render
// callback.
//
// Post merges an update into the latest parameters, regenerates the mask if
// the band shape changed and publishes the result as a new snapshot. The
// render side swaps the pending snapshot out once per block, so updates
// posted within one block coalesce into one. It never waits on Post.
//
// Extra shapes added with AddShape are multiplied into the mask after the
// plateau curve. Their levels are folded into the mask; the plateau gain is
// applied by the processor.
type Mailbox struct {
	sampleRate float64
	bins       int

	mu     sync.Mutex // serialises writers
	latest *snapshot

	pending   atomic.Pointer[snapshot]
	posted    atomic.Uint64
	coalesced atomic.Uint64
}

// NewMailbox creates a mailbox whose initial snapshot holds p, the given
// extra shapes and their bins-point mask. Nil shapes are skipped.
func NewMailbox(p plateau.Params, sampleRate float64, bins int, shapes ...plateau.Shape) *Mailbox {
	p = p.Normalize()
	shapes = slices.DeleteFunc(slices.Clone(shapes), func(s plateau.Shape) bool { return s == nil })

	m := &Mailbox{sampleRate: sampleRate, bins: bins}
	m.latest = &snapshot{params: p, shapes: shapes, mask: m.render(p, shapes)}

	return m
}

func (m *Mailbox) render(p plateau.Params, shapes []plateau.Shape) []float64 {
	mask := plateau.Mask(p, m.sampleRate, m.bins)
	for _, s := range shapes {
		plateau.MultiplyInto(mask, s, m.sampleRate)
	}

	return mask
}

// current returns the latest published snapshot.
func (m *Mailbox) current() *snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.latest
}

// publish makes snap the latest and pending snapshot. Callers hold m.mu.
func (m *Mailbox) publish(snap *snapshot) {
	snap.seq = m.latest.seq + 1
	m.latest = snap
	m.posted.Add(1)

	if old := m.pending.Swap(snap); old != nil {
		m.coalesced.Add(1)
	}
}

// Post applies u on top of the most recently posted parameters. Width is
// clamped above FlatWidth. Post never blocks the render side.
func (m *Mailbox) Post(u plateau.Update) {
	if u.Empty() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, shapeChanged := u.Apply(m.latest.params)

	mask := m.latest.mask
	if shapeChanged {
		mask = m.render(next, m.latest.shapes)
	}

	m.publish(&snapshot{params: next, shapes: m.latest.shapes, mask: mask})
}

// AddShape appends s to the extra shapes and returns its index.
func (m *Mailbox) AddShape(s plateau.Shape) (int, error) {
	if s == nil {
		return -1, fmt.Errorf("%w: nil", ErrInvalidShape)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	shapes := append(slices.Clone(m.latest.shapes), s)
	m.publishShapes(shapes)

	return len(shapes) - 1, nil
}

// SetShape replaces the extra shape at index i.
func (m *Mailbox) SetShape(i int, s plateau.Shape) error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidShape)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIndex(i); err != nil {
		return err
	}

	shapes := slices.Clone(m.latest.shapes)
	shapes[i] = s
	m.publishShapes(shapes)

	return nil
}

// RemoveShape drops the extra shape at index i. Later shapes move down.
func (m *Mailbox) RemoveShape(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIndex(i); err != nil {
		return err
	}

	m.publishShapes(slices.Delete(slices.Clone(m.latest.shapes), i, i+1))

	return nil
}

// Shapes returns a copy of the extra shapes.
func (m *Mailbox) Shapes() []plateau.Shape {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.latest.shapes)
}

func (m *Mailbox) checkIndex(i int) error {
	if i < 0 || i >= len(m.latest.shapes) {
		return fmt.Errorf("%w: index %d of %d", ErrInvalidShape, i, len(m.latest.shapes))
	}

	return nil
}

// publishShapes publishes the latest parameters with a new shape list.
// Callers hold m.mu.
func (m *Mailbox) publishShapes(shapes []plateau.Shape) {
	p := m.latest.params
	m.publish(&snapshot{params: p, shapes: shapes, mask: m.render(p, shapes)})
}

// Params returns the most recently posted parameters. The render side may
// still be on an older set until its next block.
func (m *Mailbox) Params() plateau.Params {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.latest.params
}

// take returns the pending snapshot, or nil if nothing was posted since the
// last take.
func (m *Mailbox) take() *snapshot {
	return m.pending.Swap(nil)
}

// Posted returns how many updates were posted.
func (m *Mailbox) Posted() uint64 { return m.posted.Load() }

// Coalesced returns how many posted updates were superseded before the
// render side saw them.
func (m *Mailbox) Coalesced() uint64 { return m.coalesced.Load() }
