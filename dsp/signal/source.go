// Package signal provides block-filling test and input signals: white noise
// and a phase-continuous sine.
package signal

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Distribution selects the sample distribution of a NoiseSource.
type Distribution int

const (
	// Uniform draws samples from [-1, 1).
	Uniform Distribution = iota
	// StandardNormal draws samples from N(0, 1).
	StandardNormal
)

// String implements fmt.Stringer.
func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case StandardNormal:
		return "standard_normal"
	default:
		return fmt.Sprintf("Distribution(%d)", int(d))
	}
}

// ParseDistribution maps "uniform" and "standard_normal" (or "normal",
// "gaussian") to a Distribution.
func ParseDistribution(name string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uniform", "":
		return Uniform, nil
	case "standard_normal", "normal", "gaussian":
		return StandardNormal, nil
	default:
		return 0, fmt.Errorf("signal: unknown noise distribution %q", name)
	}
}

// NoiseSource is an endless white-noise stream. Fill does not allocate, so
// it can feed a block callback.
type NoiseSource struct {
	dist      Distribution
	amplitude float64
	rng       *rand.Rand
}

// NewNoiseSource creates a seeded noise stream.
func NewNoiseSource(dist Distribution, amplitude float64, seed int64) (*NoiseSource, error) {
	if amplitude < 0 || math.IsNaN(amplitude) {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f", amplitude)
	}
	if dist != Uniform && dist != StandardNormal {
		return nil, fmt.Errorf("signal: unknown noise distribution %d", int(dist))
	}

	return &NoiseSource{dist: dist, amplitude: amplitude, rng: rand.New(rand.NewSource(seed))}, nil
}

// Fill writes the next len(dst) samples.
func (n *NoiseSource) Fill(dst []float64) {
	if n.dist == StandardNormal {
		for i := range dst {
			dst[i] = n.rng.NormFloat64() * n.amplitude
		}
		return
	}

	for i := range dst {
		dst[i] = (n.rng.Float64()*2 - 1) * n.amplitude
	}
}

// Oscillator is a phase-continuous sine stream.
type Oscillator struct {
	amplitude float64
	step      float64
	phase     float64
}

// NewOscillator creates a sine stream at freqHz.
func NewOscillator(freqHz, amplitude, sampleRate float64) (*Oscillator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("signal: sine sample rate must be > 0: %f", sampleRate)
	}

	return &Oscillator{amplitude: amplitude, step: 2 * math.Pi * freqHz / sampleRate}, nil
}

// Fill writes the next len(dst) samples.
func (o *Oscillator) Fill(dst []float64) {
	for i := range dst {
		dst[i] = o.amplitude * math.Sin(o.phase)
		o.phase += o.step
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
}

// Reset rewinds the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}
