package window

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// Table is a precomputed, read-only window. It is safe to share between
// goroutines once built.
type Table struct {
	typ    Type
	coeffs []float64
}

// NewTable precomputes a window of the given type and length.
func NewTable(t Type, length int, opts ...Option) (*Table, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	return &Table{typ: t, coeffs: Generate(t, length, opts...)}, nil
}

// Type returns the window type.
func (t *Table) Type() Type { return t.typ }

// Len returns the window length.
func (t *Table) Len() int { return len(t.coeffs) }

// At returns coefficient i.
func (t *Table) At(i int) float64 { return t.coeffs[i] }

// Coeffs returns a copy of the coefficients.
func (t *Table) Coeffs() []float64 {
	return append([]float64(nil), t.coeffs...)
}

// ApplyTo multiplies the first Len() samples of buf by the window.
// Shorter buffers are windowed with the leading coefficients.
func (t *Table) ApplyTo(buf []float64) {
	n := min(len(buf), len(t.coeffs))
	if n == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf[:n], t.coeffs[:n])
}

// Cache holds the most recently requested table of one window type and
// rebuilds it only when a different length is asked for.
type Cache struct {
	typ  Type
	opts []Option

	mu    sync.Mutex
	table *Table
}

// NewCache creates an empty cache for windows of type t.
func NewCache(t Type, opts ...Option) *Cache {
	return &Cache{typ: t, opts: opts}
}

// Type returns the window type the cache builds.
func (c *Cache) Type() Type { return c.typ }

// Get returns the table of the given length, building it if the cached one
// has a different length.
func (c *Cache) Get(length int) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && c.table.Len() == length {
		return c.table, nil
	}

	tbl, err := NewTable(c.typ, length, c.opts...)
	if err != nil {
		return nil, err
	}

	c.table = tbl

	return tbl, nil
}
