package spectrum

import (
	"fmt"
	"math"
)

// Goertzel measures a single DFT term over a run of samples. It is used to
// measure the filter's gain at one frequency without a full transform.
//
// Power and Magnitude cover all samples since the last Reset.
type Goertzel struct {
	frequency  float64
	sampleRate float64
	coeff      float64
	s0, s1     float64
	count      int
}

// NewGoertzel creates a detector for frequency, which must lie in
// [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return &Goertzel{
		frequency:  frequency,
		sampleRate: sampleRate,
		coeff:      2 * math.Cos(2*math.Pi*frequency/sampleRate),
	}, nil
}

// Reset clears the accumulated state.
func (g *Goertzel) Reset() {
	g.s0, g.s1 = 0, 0
	g.count = 0
}

// ProcessBlock feeds samples into the detector.
func (g *Goertzel) ProcessBlock(input []float64) {
	s0, s1 := g.s0, g.s1
	for _, x := range input {
		s0, s1 = x+g.coeff*s0-s1, s0
	}

	g.s0, g.s1 = s0, s1
	g.count += len(input)
}

// Power returns |X|^2 for the samples seen so far.
func (g *Goertzel) Power() float64 {
	return g.s0*g.s0 + g.s1*g.s1 - g.coeff*g.s0*g.s1
}

// Magnitude returns |X| for the samples seen so far.
func (g *Goertzel) Magnitude() float64 {
	return mathSqrt(math.Max(g.Power(), 0))
}

// Amplitude estimates the peak amplitude of a sinusoid at the tuned
// frequency: 2|X|/n.
func (g *Goertzel) Amplitude() float64 {
	if g.count == 0 {
		return 0
	}

	return 2 * g.Magnitude() / float64(g.count)
}

// Frequency returns the frequency the detector is tuned to.
func (g *Goertzel) Frequency() float64 { return g.frequency }

// ToneAmplitude returns the amplitude of the frequency component in input.
func ToneAmplitude(input []float64, frequency, sampleRate float64) (float64, error) {
	g, err := NewGoertzel(frequency, sampleRate)
	if err != nil {
		return 0, err
	}

	g.ProcessBlock(input)

	return g.Amplitude(), nil
}
