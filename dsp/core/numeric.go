package core

import "math"

// SilenceDB is the level at or below which a gain in dB maps to exact silence.
const SilenceDB = -120.0

// denormalFloor is the magnitude below which FlushDenormals returns 0.
const denormalFloor = 1e-30

// Clamp limits value to [lo, hi]. The bounds may be given in either order.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	return math.Min(hi, math.Max(lo, value))
}

// NearlyEqual reports whether a and b agree within eps, absolutely or
// relative to the larger magnitude. A non-positive eps means 1e-12.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = 1e-12
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	return diff <= eps*math.Max(math.Abs(a), math.Abs(b))
}

// FlushDenormals returns 0 for values too small to matter in an overlap
// state, x otherwise.
func FlushDenormals(x float64) float64 {
	if math.Abs(x) < denormalFloor {
		return 0
	}

	return x
}

// DBToGain converts a level in dB (20*log10) to a linear factor. Levels at
// or below SilenceDB, and NaN, give 0.
func DBToGain(db float64) float64 {
	if db <= SilenceDB || math.IsNaN(db) {
		return 0
	}

	return math.Pow(10, db/20)
}

// GainToDB converts a linear factor to dB, floored at SilenceDB.
func GainToDB(gain float64) float64 {
	if gain <= 0 || math.IsNaN(gain) {
		return SilenceDB
	}

	return math.Max(SilenceDB, 20*math.Log10(gain))
}
