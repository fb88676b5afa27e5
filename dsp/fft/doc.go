// Package fft provides power-of-two complex transforms.
//
// Forward and Inverse are the reference recursive radix-2 implementation on
// [cplx.Complex] sequences. They allocate and are meant for analysis and
// tests.
//
// For block processing use a [Transformer]: [Recursive] runs the same
// algorithm over preallocated buffers, and [Plan] delegates to an algo-fft
// plan. Both normalise the inverse by 1/N, so swapping one for the other
// changes nothing but speed and rounding.
//
// Only power-of-two sizes are supported. The bare functions treat this as a
// caller precondition; constructors reject other sizes with
// [ErrNotPowerOfTwo].
package fft
