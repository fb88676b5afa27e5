package fft

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrNotPowerOfTwo is returned when a transform size is not a power of two.
	ErrNotPowerOfTwo = errors.New("fft: size must be a power of two")
	// ErrLengthMismatch is returned when dst or src do not match the transform size.
	ErrLengthMismatch = errors.New("fft: buffer length does not match transform size")
)

// Transformer is a fixed-size complex transform usable from a block callback.
//
// dst and src may alias. Inverse is normalised by 1/N. Implementations must not
// allocate once constructed.
type Transformer interface {
	Size() int
	Forward(dst, src []complex128) error
	Inverse(dst, src []complex128) error
}

// Recursive is the radix-2 decimation-in-time transform with precomputed
// twiddles and scratch memory, so that steady-state calls do not allocate.
//
// Results match Forward and Inverse within floating-point rounding.
// A Recursive is not safe for concurrent use.
type Recursive struct {
	n       int
	twiddle []complex128 // exp(-2*pi*i*k/n), k in [0, n/2)
	scratch []complex128
}

// NewRecursive creates a recursive transformer of size n.
func NewRecursive(n int) (*Recursive, error) {
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}

	r := &Recursive{
		n:       n,
		twiddle: make([]complex128, n/2),
		scratch: make([]complex128, n),
	}

	for k := range r.twiddle {
		sin, cos := math.Sincos(-2 * math.Pi * float64(k) / float64(n))
		r.twiddle[k] = complex(cos, sin)
	}

	return r, nil
}

// Size returns the transform length.
func (r *Recursive) Size() int { return r.n }

// Forward computes the DFT of src into dst.
func (r *Recursive) Forward(dst, src []complex128) error {
	return r.run(dst, src, false)
}

// Inverse computes the normalised inverse DFT of src into dst.
func (r *Recursive) Inverse(dst, src []complex128) error {
	return r.run(dst, src, true)
}

func (r *Recursive) run(dst, src []complex128, inverse bool) error {
	if len(dst) != r.n || len(src) != r.n {
		return fmt.Errorf("%w: size %d, dst %d, src %d", ErrLengthMismatch, r.n, len(dst), len(src))
	}

	copy(r.scratch, src)
	r.combine(dst, r.scratch, r.n, 1, inverse)

	return nil
}

// combine transforms the n samples src[0], src[stride], ... into out[:n].
func (r *Recursive) combine(out, src []complex128, n, stride int, inverse bool) {
	if n == 1 {
		out[0] = src[0]
		return
	}

	half := n / 2
	r.combine(out[:half], src, half, 2*stride, inverse)
	r.combine(out[half:n], src[stride:], half, 2*stride, inverse)

	for k := range half {
		tw := r.twiddle[k*stride]
		if inverse {
			tw = complex(real(tw), -imag(tw))
		}

		e := out[k]
		o := tw * out[k+half]

		if inverse {
			out[k] = (e + o) * 0.5
			out[k+half] = (e - o) * 0.5
		} else {
			out[k] = e + o
			out[k+half] = e - o
		}
	}
}

// Plan adapts an algo-fft plan to the Transformer interface.
type Plan struct {
	n    int
	plan *algofft.Plan[complex128]
}

// NewPlan creates an algo-fft backed transformer of size n.
func NewPlan(n int) (*Plan, error) {
	if !IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft: failed to create plan: %w", err)
	}

	return &Plan{n: n, plan: plan}, nil
}

// Size returns the transform length.
func (p *Plan) Size() int { return p.n }

// Forward computes the DFT of src into dst.
func (p *Plan) Forward(dst, src []complex128) error {
	if len(dst) != p.n || len(src) != p.n {
		return fmt.Errorf("%w: size %d, dst %d, src %d", ErrLengthMismatch, p.n, len(dst), len(src))
	}

	return p.plan.Forward(dst, src)
}

// Inverse computes the normalised inverse DFT of src into dst.
func (p *Plan) Inverse(dst, src []complex128) error {
	if len(dst) != p.n || len(src) != p.n {
		return fmt.Errorf("%w: size %d, dst %d, src %d", ErrLengthMismatch, p.n, len(dst), len(src))
	}

	return p.plan.Inverse(dst, src)
}
