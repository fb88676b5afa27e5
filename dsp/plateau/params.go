package plateau

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-plateau/dsp/core"
)

// MinTransition is the smallest gap in Hz kept between FlatWidth and Width.
const MinTransition = 1.0

// Params describes a plateau band: a flat unity region FlatWidth Hz wide
// centred on CenterFreq, raised-cosine skirts out to Width Hz, and a linear
// output Gain.
type Params struct {
	CenterFreq float64
	Width      float64
	FlatWidth  float64
	Gain       float64
}

// DefaultParams returns the parameters a new filter starts with.
func DefaultParams() Params {
	return Params{
		CenterFreq: 1000,
		Width:      200,
		FlatWidth:  100,
		Gain:       1,
	}
}

// Normalize enforces Width > FlatWidth by raising Width to FlatWidth+1.
// Invalid orderings are corrected, never reported.
func (p Params) Normalize() Params {
	if p.Width <= p.FlatWidth {
		p.Width = p.FlatWidth + MinTransition
	}

	return p
}

// SameShape reports whether p and o produce the same mask. Gain is ignored.
func (p Params) SameShape(o Params) bool {
	return p.CenterFreq == o.CenterFreq && p.Width == o.Width && p.FlatWidth == o.FlatWidth
}

// GainDB returns the gain in dB, floored at core.SilenceDB.
func (p Params) GainDB() float64 {
	return core.GainToDB(p.Gain)
}

// String implements fmt.Stringer.
func (p Params) String() string {
	return fmt.Sprintf("Plateau %.0fHz ±%.0fHz (flat %.0fHz, gain %.2f)", p.CenterFreq, p.Width, p.FlatWidth, p.Gain)
}

// Bounds are the limits a control surface keeps parameters in. The filter
// itself assumes values inside them.
type Bounds struct {
	MinCenterFreq, MaxCenterFreq float64
	MinWidth, MaxWidth           float64
	MinFlatWidth, MaxFlatWidth   float64
	MinGain, MaxGain             float64
}

// DefaultBounds returns the control-surface limits.
func DefaultBounds() Bounds {
	return Bounds{
		MinCenterFreq: 20,
		MaxCenterFreq: 20000,
		MinWidth:      1,
		MaxWidth:      10000,
		MinFlatWidth:  0,
		MaxFlatWidth:  9999,
		MinGain:       0,
		MaxGain:       10,
	}
}

// Clamp limits every field of p to the bounds, maps NaN to the lower limit
// and then normalises the width ordering.
func (b Bounds) Clamp(p Params) Params {
	p.CenterFreq = clampField(p.CenterFreq, b.MinCenterFreq, b.MaxCenterFreq)
	p.Width = clampField(p.Width, b.MinWidth, b.MaxWidth)
	p.FlatWidth = clampField(p.FlatWidth, b.MinFlatWidth, b.MaxFlatWidth)
	p.Gain = clampField(p.Gain, b.MinGain, b.MaxGain)

	return p.Normalize()
}

func clampField(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}

	return core.Clamp(v, lo, hi)
}
