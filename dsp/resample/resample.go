package resample

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidRate is returned for non-positive or non-finite rates.
	ErrInvalidRate = errors.New("resample: invalid sample rate")
	// ErrInvalidRatio is returned for non-positive up/down factors.
	ErrInvalidRatio = errors.New("resample: invalid ratio")
)

// Quality selects the anti-aliasing filter.
type Quality int

const (
	QualityFast Quality = iota
	QualityBalanced
	QualityBest
)

// String implements fmt.Stringer.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityBalanced:
		return "balanced"
	case QualityBest:
		return "best"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// profile holds the filter design for one quality level.
type profile struct {
	tapsPerBranch int
	cutoff        float64 // fraction of the narrower Nyquist band
	beta          float64 // Kaiser window
}

func (q Quality) profile() profile {
	switch q {
	case QualityFast:
		return profile{tapsPerBranch: 16, cutoff: 0.88, beta: 5}
	case QualityBest:
		return profile{tapsPerBranch: 64, cutoff: 0.96, beta: 9}
	default:
		return profile{tapsPerBranch: 32, cutoff: 0.92, beta: 7.5}
	}
}

// maxDenominator bounds the ratio approximation of arbitrary rates.
const maxDenominator = 4096

// Option configures a Converter.
type Option func(*Converter)

// WithQuality selects the filter quality. The default is QualityBalanced.
func WithQuality(q Quality) Option {
	return func(c *Converter) {
		c.quality = q
	}
}

// Converter resamples whole signals by a fixed rational ratio.
type Converter struct {
	up, down int
	quality  Quality
	bank     *filterBank
}

// New creates a converter from inRate to outRate.
func New(inRate, outRate float64, opts ...Option) (*Converter, error) {
	for _, r := range []float64{inRate, outRate} {
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("%w: %g", ErrInvalidRate, r)
		}
	}

	up, down := approximateRatio(outRate/inRate, maxDenominator)

	return NewRational(up, down, opts...)
}

// NewRational creates a converter for the ratio up/down.
func NewRational(up, down int, opts ...Option) (*Converter, error) {
	if up <= 0 || down <= 0 {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidRatio, up, down)
	}

	g := gcd(up, down)

	c := &Converter{up: up / g, down: down / g, quality: QualityBalanced}
	for _, opt := range opts {
		opt(c)
	}

	c.bank = designFilterBank(c.up, c.down, c.quality.profile())

	return c, nil
}

// Ratio returns the reduced conversion ratio.
func (c *Converter) Ratio() (up, down int) { return c.up, c.down }

// Quality returns the filter quality.
func (c *Converter) Quality() Quality { return c.quality }

// OutputLen returns the number of samples Convert produces for n inputs.
func (c *Converter) OutputLen(n int) int {
	if n <= 0 {
		return 0
	}

	return (n*c.up + c.down - 1) / c.down
}

// Convert resamples input. The filter delay is compensated, so output
// sample m lines up with input time m*down/up.
func (c *Converter) Convert(input []float64) []float64 {
	out := make([]float64, c.OutputLen(len(input)))

	delay := c.bank.delay

	for m := range out {
		t := m*c.down + delay
		i, phase := t/c.up, t%c.up

		var y float64
		for k, h := range c.bank.branches[phase] {
			idx := i - k
			if idx < 0 {
				break
			}

			if idx < len(input) {
				y += h * input[idx]
			}
		}

		out[m] = y
	}

	return out
}

// Convert is a one-shot helper for New followed by Convert.
func Convert(input []float64, inRate, outRate float64, opts ...Option) ([]float64, error) {
	c, err := New(inRate, outRate, opts...)
	if err != nil {
		return nil, err
	}

	return c.Convert(input), nil
}
