package plateau

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned by Response for an unusable frequency grid.
var ErrInvalidRange = errors.New("plateau: invalid response range")

// Point is one sample of the frequency response.
type Point struct {
	Freq float64
	Gain float64
}

// Response evaluates Value(f)*Level() of s at numPoints linearly spaced
// frequencies in [minFreq, maxFreq]. It is a direct evaluation of the curve
// and involves no transform. A frequency of exactly 0 reports 0, as the DC
// bin does.
func Response(s Shape, minFreq, maxFreq float64, numPoints int) ([]Point, error) {
	if numPoints < 1 {
		return nil, fmt.Errorf("%w: numPoints must be >= 1, got %d", ErrInvalidRange, numPoints)
	}

	if math.IsNaN(minFreq) || math.IsNaN(maxFreq) || minFreq > maxFreq {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, minFreq, maxFreq)
	}

	level := s.Level()
	out := make([]Point, numPoints)

	step := 0.0
	if numPoints > 1 {
		step = (maxFreq - minFreq) / float64(numPoints-1)
	}

	for i := range out {
		f := minFreq + float64(i)*step
		if i == numPoints-1 && numPoints > 1 {
			f = maxFreq
		}

		g := 0.0
		if f != 0 {
			g = s.Value(f) * level
		}

		out[i] = Point{Freq: f, Gain: g}
	}

	return out, nil
}
