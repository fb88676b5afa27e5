package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave starting at phase 0.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Ones returns a slice of length n filled with 1.0, the all-pass mask.
func Ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}

	return out
}

// Blocks splits x into consecutive blocks of size n, dropping a trailing
// partial block. The blocks share x's backing array.
func Blocks(x []float64, n int) [][]float64 {
	if n <= 0 {
		return nil
	}

	out := make([][]float64, 0, len(x)/n)
	for i := 0; i+n <= len(x); i += n {
		out = append(out, x[i:i+n:i+n])
	}

	return out
}
