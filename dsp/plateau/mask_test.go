package plateau

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-plateau/internal/testutil"
)

func nearestBin(freq, sampleRate float64, n int) int {
	return int(math.Round(freq * float64(n) / sampleRate))
}

func TestMaskEightPointScenario(t *testing.T) {
	p := Params{CenterFreq: 1000, Width: 200, FlatWidth: 100, Gain: 1}

	got := Mask(p, 8000, 8)
	want := []float64{0, 1, 0, 0, 0, 0, 0, 1}

	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestBinFrequency(t *testing.T) {
	want := []float64{0, 1000, 2000, 3000, 4000, -3000, -2000, -1000}
	for i, w := range want {
		if got := BinFrequency(i, 8, 8000); got != w {
			t.Fatalf("bin %d: got %v, want %v", i, got, w)
		}
	}
}

func TestMaskRegionBoundaries(t *testing.T) {
	const (
		sampleRate = 44100.0
		n          = 2048
	)

	p := Params{CenterFreq: 10000, Width: 5000, FlatWidth: 2000, Gain: 1}
	mask := Mask(p, sampleRate, n)

	// Bin spacing is ~21.5 Hz, so bins adjacent to a region edge sit up to
	// half a bin inside the taper.
	const edgeTol = 1e-3

	cases := []struct {
		name string
		freq float64
		want float64
	}{
		{"centre", 10000, 1},
		{"flat edge below", 9000, 1},
		{"flat edge above", 11000, 1},
		{"outer edge below", 7500, 0},
		{"outer edge above", 12500, 0},
		{"taper midpoint", 10000 + 1750, 0.5},
		{"far away", 2000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k := nearestBin(tc.freq, sampleRate, n)
			tol := edgeTol
			if tc.name == "taper midpoint" {
				// The slope at the midpoint is pi/3000 per Hz.
				tol = 0.04
			}

			if got := mask[k]; math.Abs(got-tc.want) > tol {
				t.Fatalf("bin %d (%.1f Hz): got %v, want %v", k, BinFrequency(k, n, sampleRate), got, tc.want)
			}
		})
	}
}

func TestMaskExactRegions(t *testing.T) {
	p := Params{CenterFreq: 10000, Width: 5000, FlatWidth: 2000}

	for _, f := range []float64{9001, 9500, 10000, 10999} {
		if got := p.Value(f); got != 1 {
			t.Fatalf("Value(%v) = %v, want exactly 1", f, got)
		}
	}

	for _, f := range []float64{0, 7500, 12500, 15000, 20000} {
		if got := p.Value(f); got != 0 {
			t.Fatalf("Value(%v) = %v, want exactly 0", f, got)
		}
	}

	// Taper starts at unity and decreases monotonically to zero.
	prev := p.Value(11000)
	if prev != 1 {
		t.Fatalf("Value(11000) = %v, want 1 at taper start", prev)
	}

	for f := 11010.0; f < 12500; f += 10 {
		v := p.Value(f)
		if v > prev || v < 0 {
			t.Fatalf("taper not monotonic at %v Hz: %v after %v", f, v, prev)
		}
		prev = v
	}
}

func TestMaskDCIsZero(t *testing.T) {
	// A band straddling DC would otherwise pass bin 0.
	p := Params{CenterFreq: 20, Width: 400, FlatWidth: 200, Gain: 1}

	mask := Mask(p, 44100, 1024)
	if mask[0] != 0 {
		t.Fatalf("mask[0] = %v, want 0", mask[0])
	}

	if mask[1] != 1 {
		t.Fatalf("mask[1] = %v, want 1", mask[1])
	}
}

func TestMaskSymmetry(t *testing.T) {
	const n = 512

	p := Params{CenterFreq: 3000, Width: 2500, FlatWidth: 700}
	mask := Mask(p, 48000, n)

	for i := 1; i < n/2; i++ {
		if mask[i] != mask[n-i] {
			t.Fatalf("bin %d = %v, bin %d = %v", i, mask[i], n-i, mask[n-i])
		}
	}
}

func TestMaskRange(t *testing.T) {
	p := Params{CenterFreq: 5000, Width: 3000, FlatWidth: 0}
	mask := Mask(p, 44100, 2048)

	testutil.RequireFinite(t, mask)

	for i, v := range mask {
		if v < 0 || v > 1 {
			t.Fatalf("bin %d: %v outside [0, 1]", i, v)
		}
	}
}

func TestMaskIgnoresGain(t *testing.T) {
	a := Params{CenterFreq: 1000, Width: 400, FlatWidth: 100, Gain: 1}
	b := a
	b.Gain = 0.25

	testutil.RequireSliceNearlyEqual(t, Mask(a, 44100, 256), Mask(b, 44100, 256), 0)
}

func TestMaskEmpty(t *testing.T) {
	if m := Mask(DefaultParams(), 44100, 0); m != nil {
		t.Fatalf("expected nil mask, got %v", m)
	}

	MaskInto(nil, DefaultParams(), 44100)
}

func TestMaskClampsInvalidWidth(t *testing.T) {
	bad := Params{CenterFreq: 1000, Width: 100, FlatWidth: 300}
	fixed := Params{CenterFreq: 1000, Width: 301, FlatWidth: 300}

	testutil.RequireSliceNearlyEqual(t, Mask(bad, 44100, 4096), Mask(fixed, 44100, 4096), 0)
}

func BenchmarkMaskInto(b *testing.B) {
	dst := make([]float64, 2048)
	p := DefaultParams()

	for b.Loop() {
		MaskInto(dst, p, 44100)
	}
}
