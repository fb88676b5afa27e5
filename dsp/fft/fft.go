package fft

import (
	"math"

	"github.com/cwbudde/algo-plateau/dsp/cplx"
)

// Forward returns the discrete Fourier transform of x.
//
// len(x) must be a power of two; callers guarantee this (see IsPowerOfTwo).
// The input is never padded or modified, a new slice is returned.
func Forward(x []cplx.Complex) []cplx.Complex {
	return recursive(x, false)
}

// Inverse returns the inverse discrete Fourier transform of x, normalised by
// 1/N so that Inverse(Forward(x)) reproduces x.
//
// len(x) must be a power of two; callers guarantee this.
func Inverse(x []cplx.Complex) []cplx.Complex {
	return recursive(x, true)
}

// recursive is the decimation-in-time radix-2 transform. The inverse applies
// a factor 0.5 at every combination level, which adds up to 1/N after
// log2(N) levels.
func recursive(x []cplx.Complex, inverse bool) []cplx.Complex {
	n := len(x)
	if n <= 1 {
		out := make([]cplx.Complex, n)
		copy(out, x)

		return out
	}

	half := n / 2
	even := make([]cplx.Complex, half)
	odd := make([]cplx.Complex, half)

	for i := range half {
		even[i] = x[2*i]
		odd[i] = x[2*i+1]
	}

	even = recursive(even, inverse)
	odd = recursive(odd, inverse)

	sign := -1.0
	if inverse {
		sign = 1
	}

	out := make([]cplx.Complex, n)

	for k := range half {
		twiddle := cplx.FromPolar(1, sign*2*math.Pi*float64(k)/float64(n))
		t := twiddle.Mul(odd[k])
		out[k] = even[k].Add(t)
		out[k+half] = even[k].Sub(t)

		if inverse {
			out[k] = out[k].Scale(0.5)
			out[k+half] = out[k+half].Scale(0.5)
		}
	}

	return out
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
