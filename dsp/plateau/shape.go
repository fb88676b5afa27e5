package plateau

import (
	"fmt"
	"math"
	"strings"
)

// Shape is a real gain curve over frequency. Value must be even in
// frequency so the rendered mask keeps the spectrum Hermitian.
type Shape interface {
	// Value returns the curve at freqHz without gain.
	Value(freqHz float64) float64
	// Level returns the linear gain applied on top of Value.
	Level() float64
	String() string
}

// Level implements Shape.
func (p Params) Level() float64 { return p.Gain }

// Gaussian is a bell around CenterFreq. Kurtosis above 1 flattens the top
// and steepens the sides, below 1 sharpens the peak. Skew tilts the bell
// through the error function and can raise the peak to at most 2.
type Gaussian struct {
	CenterFreq float64
	Width      float64
	Skew       float64
	Kurtosis   float64
	Gain       float64
}

// DefaultGaussian returns a symmetric bell 100 Hz wide at 1 kHz.
func DefaultGaussian() Gaussian {
	return Gaussian{CenterFreq: 1000, Width: 100, Kurtosis: 1, Gain: 1}
}

// Value implements Shape.
//
// With z = (|f| - CenterFreq) / Width the curve is
// exp(-(z^2)^Kurtosis / 2) * (1 + erf(Skew*z/sqrt(2))).
func (g Gaussian) Value(freqHz float64) float64 {
	z := (math.Abs(freqHz) - g.CenterFreq) / (g.Width + 1e-10)
	return math.Exp(-math.Pow(z*z, g.Kurtosis)/2) * (1 + math.Erf(g.Skew*z/math.Sqrt2))
}

// Level implements Shape.
func (g Gaussian) Level() float64 { return g.Gain }

func (g Gaussian) String() string {
	return formatShape("Gaussian", g.CenterFreq, g.Width, g.Gain)
}

// Parabolic is an inverted parabola reaching 0 at CenterFreq±Width. Unlike
// Params.Width, Width here is the half-span.
type Parabolic struct {
	CenterFreq float64
	Width      float64
	Gain       float64
}

// DefaultParabolic returns a parabola ±100 Hz around 1 kHz.
func DefaultParabolic() Parabolic {
	return Parabolic{CenterFreq: 1000, Width: 100, Gain: 1}
}

// Value implements Shape.
func (q Parabolic) Value(freqHz float64) float64 {
	if q.Width <= 0 {
		return 0
	}

	d := math.Abs(math.Abs(freqHz) - q.CenterFreq)
	if d > q.Width {
		return 0
	}

	r := d / q.Width

	return 1 - r*r
}

// Level implements Shape.
func (q Parabolic) Level() float64 { return q.Gain }

func (q Parabolic) String() string {
	return formatShape("Parabolic", q.CenterFreq, q.Width, q.Gain)
}

func formatShape(name string, center, width, gain float64) string {
	return fmt.Sprintf("%s %.0fHz ±%.0fHz (gain %.2f)", name, center, width, gain)
}

// Chain multiplies its shapes. Each member contributes Value*Level, so the
// chain itself has unit Level. An empty chain passes everything.
type Chain []Shape

// Value implements Shape.
func (c Chain) Value(freqHz float64) float64 {
	v := 1.0
	for _, s := range c {
		v *= s.Value(freqHz) * s.Level()
	}

	return v
}

// Level implements Shape.
func (c Chain) Level() float64 { return 1 }

func (c Chain) String() string {
	names := make([]string, len(c))
	for i, s := range c {
		names[i] = s.String()
	}

	return strings.Join(names, " * ")
}

// RenderInto fills dst with the len(dst)-bin curve of s without its level.
// The DC bin is always 0.
func RenderInto(dst []float64, s Shape, sampleRate float64) {
	n := len(dst)
	if n == 0 {
		return
	}

	for i := range dst {
		dst[i] = s.Value(BinFrequency(i, n, sampleRate))
	}

	dst[0] = 0
}

// MultiplyInto scales each bin of dst by Value*Level of s.
func MultiplyInto(dst []float64, s Shape, sampleRate float64) {
	n := len(dst)
	level := s.Level()

	for i := range dst {
		dst[i] *= s.Value(BinFrequency(i, n, sampleRate)) * level
	}
}
