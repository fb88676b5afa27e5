package resample

import "math"

// filterBank is a windowed-sinc prototype split into up polyphase branches.
// Branch p holds taps p, p+up, p+2up, ...
type filterBank struct {
	branches [][]float64
	// delay is the prototype group delay in upsampled samples.
	delay int
}

func designFilterBank(up, down int, p profile) *filterBank {
	// The prototype spans tapsPerBranch periods of the narrower band. An
	// odd length keeps the group delay on a whole sample.
	n := p.tapsPerBranch*max(up, down) | 1
	fc := 0.5 / float64(max(up, down)) * p.cutoff
	center := float64(n-1) / 2

	proto := make([]float64, n)
	sum := 0.0

	for i := range proto {
		t := float64(i) - center
		proto[i] = 2 * fc * sinc(2*fc*t) * kaiser(i, n, p.beta)
		sum += proto[i]
	}

	// Unity DC gain after zero stuffing.
	scale := float64(up) / sum

	branches := make([][]float64, up)
	for ph := range branches {
		for i := ph; i < n; i += up {
			branches[ph] = append(branches[ph], proto[i]*scale)
		}
	}

	return &filterBank{branches: branches, delay: (n - 1) / 2}
}

// approximateRatio finds the continued-fraction convergent of v with a
// denominator of at most maxDen.
func approximateRatio(v float64, maxDen int) (num, den int) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1, 1
	}

	p0, q0 := 1.0, 0.0
	p1, q1 := math.Floor(v), 1.0

	for x := v; ; {
		frac := x - math.Floor(x)
		if frac < 1e-12 {
			break
		}

		x = 1 / frac
		a := math.Floor(x)

		p2, q2 := a*p1+p0, a*q1+q0
		if q2 > float64(maxDen) {
			break
		}

		p0, q0, p1, q1 = p1, q1, p2, q2
	}

	num, den = int(math.Round(p1)), int(math.Round(q1))
	if num <= 0 || den <= 0 {
		return 1, 1
	}

	g := gcd(num, den)

	return num / g, den / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	if a < 0 {
		return -a
	}

	return max(a, 1)
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}

	return math.Sin(math.Pi*x) / (math.Pi * x)
}

func kaiser(i, n int, beta float64) float64 {
	if n <= 1 || beta == 0 {
		return 1
	}

	t := 2*float64(i)/float64(n-1) - 1

	return besselI0(beta*math.Sqrt(math.Max(0, 1-t*t))) / besselI0(beta)
}

// besselI0 evaluates the zeroth-order modified Bessel function by its
// power series.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4

	for k := 1; k < 64; k++ {
		term *= q / float64(k*k)
		sum += term

		if term < 1e-16*sum {
			break
		}
	}

	return sum
}
