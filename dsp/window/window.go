package window

import (
	"math"
	"strings"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeFlatTop
)

var names = map[Type]string{
	TypeRectangular: "rectangular",
	TypeHann:        "hann",
	TypeHamming:     "hamming",
	TypeBlackman:    "blackman",
	TypeFlatTop:     "flattop",
}

// String returns the settings-file name of t.
func (t Type) String() string {
	if s, ok := names[t]; ok {
		return s
	}

	return "unknown"
}

// ParseType resolves a window name as used in settings files.
func ParseType(name string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangular", "rect", "none":
		return TypeRectangular, true
	case "hann", "hanning":
		return TypeHann, true
	case "hamming":
		return TypeHamming, true
	case "blackman":
		return TypeBlackman, true
	case "flattop", "flat-top":
		return TypeFlatTop, true
	default:
		return TypeRectangular, false
	}
}

// Cosine-sum coefficients a_k of w(x) = sum a_k*cos(2*pi*k*x).
var cosineSums = map[Type][]float64{
	TypeHann:     {0.5, -0.5},
	TypeHamming:  {0.54, -0.46},
	TypeBlackman: {0.42, -0.5, 0.08},
	TypeFlatTop:  {0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368},
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic divides by N instead of N-1, the form used for FFT framing.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length, or nil for
// length < 1.
//
// The default symmetric form evaluates position i/(length-1), so a Hann
// window is w[i] = 0.5*(1 - cos(2*pi*i/(length-1))). A length-1 window
// evaluates position 0.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length < 1 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	den := float64(length - 1)
	if cfg.periodic {
		den = float64(length)
	}

	coeffs, ok := cosineSums[t]

	out := make([]float64, length)
	for i := range out {
		if !ok {
			out[i] = 1
			continue
		}

		x := 0.0
		if den > 0 {
			x = float64(i) / den
		}

		out[i] = cosineSum(x, coeffs)
	}

	return out
}

func cosineSum(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, a := range coeffs {
		sum += a * math.Cos(float64(k)*phase)
	}

	return sum
}

// RMS returns sqrt(mean(w^2)), the amplitude normalisation used by the
// spectrum analyser.
func RMS(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	sumSquares := 0.0
	for _, c := range coeffs {
		sumSquares += c * c
	}

	return math.Sqrt(sumSquares / float64(len(coeffs)))
}
