package plateau

import "math"

// Value evaluates the plateau curve at freqHz, ignoring gain.
//
// Inside FlatWidth/2 of the centre the curve is 1; between FlatWidth/2 and
// Width/2 it follows 0.5*(1 + cos(pi*(d - FlatWidth/2)/(Width/2 - FlatWidth/2)))
// with d the distance to the centre; beyond Width/2 it is 0. Negative
// frequencies are folded onto positive ones.
func (p Params) Value(freqHz float64) float64 {
	p = p.Normalize()

	absDiff := math.Abs(math.Abs(freqHz) - p.CenterFreq)
	flatHalf := p.FlatWidth / 2
	halfWidth := p.Width / 2

	switch {
	case absDiff < flatHalf:
		return 1
	case absDiff < halfWidth:
		return 0.5 * (1 + math.Cos(math.Pi*(absDiff-flatHalf)/(halfWidth-flatHalf)))
	default:
		return 0
	}
}

// BinFrequency returns the signed frequency of bin i in an n-point transform:
// i*sampleRate/n up to n/2, (i-n)*sampleRate/n above.
func BinFrequency(i, n int, sampleRate float64) float64 {
	if i <= n/2 {
		return float64(i) * sampleRate / float64(n)
	}

	return float64(i-n) * sampleRate / float64(n)
}

// Mask returns the n-bin gain curve for p. Gain is not applied.
func Mask(p Params, sampleRate float64, n int) []float64 {
	if n <= 0 {
		return nil
	}

	mask := make([]float64, n)
	MaskInto(mask, p, sampleRate)

	return mask
}

// MaskInto fills dst with the len(dst)-bin gain curve for p.
//
// Bin i and bin len(dst)-i hold the same physical frequency and receive the
// same value. The DC bin is always 0.
func MaskInto(dst []float64, p Params, sampleRate float64) {
	RenderInto(dst, p.Normalize(), sampleRate)
}
