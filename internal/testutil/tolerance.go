package testutil

import (
	"math"
	"testing"
)

// MaxAbsDiff returns the largest |a[i]-b[i]| and its index over the common
// prefix of a and b. The index is -1 when the prefix is empty.
func MaxAbsDiff(a, b []float64) (diff float64, at int) {
	at = -1
	for i := range min(len(a), len(b)) {
		if d := math.Abs(a[i] - b[i]); at < 0 || d > diff || math.IsNaN(d) {
			diff, at = d, i
			if math.IsNaN(d) {
				break
			}
		}
	}

	return diff, at
}

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair differs by more than eps. The worst sample is reported.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	requireSameLen(t, got, want)

	diff, at := MaxAbsDiff(got, want)
	if at >= 0 && !(diff <= eps) {
		t.Fatalf("index %d: got %v, want %v (diff %g > eps %g)", at, got[at], want[at], diff, eps)
	}
}

// RequireBitIdentical fails t unless got and want hold the same float bits.
func RequireBitIdentical(t testing.TB, got, want []float64) {
	t.Helper()
	requireSameLen(t, got, want)

	for i := range got {
		if math.Float64bits(got[i]) != math.Float64bits(want[i]) {
			t.Fatalf("index %d: got %v, want %v (bits differ)", i, got[i], want[i])
		}
	}
}

// RequireAllZero fails t if any sample is not exactly zero.
func RequireAllZero(t testing.TB, data []float64) {
	t.Helper()

	for i, v := range data {
		if v != 0 {
			t.Fatalf("index %d of %d: got %v, want silence", i, len(data), v)
		}
	}
}

// RequireFinite fails t if any sample is NaN or Inf.
func RequireFinite(t testing.TB, data []float64) {
	t.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

func requireSameLen(t testing.TB, got, want []float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
}
