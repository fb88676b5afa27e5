package spectrum

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// MinMagnitude is the floor applied before converting a magnitude to dB.
const MinMagnitude = 1e-10

// MagnitudeFromParts computes sqrt(re[k]^2 + im[k]^2) into dst. All three
// slices must have the same length. It does not allocate.
func MagnitudeFromParts(dst, re, im []float64) {
	vecmath.Magnitude(dst, re, im)
}

// MagnitudeToDB converts linear magnitudes to dB in place, flooring at
// MinMagnitude and clamping to [minDB, maxDB]. NaN maps to minDB.
func MagnitudeToDB(mag []float64, minDB, maxDB float64) {
	for i, m := range mag {
		if math.IsNaN(m) {
			mag[i] = minDB
			continue
		}

		db := 20 * mathLog10(math.Max(m, MinMagnitude))
		mag[i] = math.Min(maxDB, math.Max(minDB, db))
	}
}
