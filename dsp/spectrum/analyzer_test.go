package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-plateau/dsp/window"
	"github.com/cwbudde/algo-plateau/internal/testutil"
)

func TestAnalyzerRectangularSine(t *testing.T) {
	// 8 Hz bins; 1000 Hz is bin 125.
	a, err := NewAnalyzer(8192, 1024, WithWindowType(window.TypeRectangular))
	if err != nil {
		t.Fatal(err)
	}

	freqs, db, err := a.Analyze(testutil.DeterministicSine(1000, 8192, 1, 1024))
	if err != nil {
		t.Fatal(err)
	}

	if len(freqs) != 513 || len(db) != 513 {
		t.Fatalf("got %d/%d bins, want 513", len(freqs), len(db))
	}

	if freqs[125] != 1000 || freqs[512] != 4096 {
		t.Fatalf("unexpected frequency axis %v %v", freqs[125], freqs[512])
	}

	if math.Abs(db[125]) > 1e-6 {
		t.Fatalf("full-scale sine reads %v dB, want 0", db[125])
	}

	f, level := a.Peak()
	if f != 1000 || level != db[125] {
		t.Fatalf("Peak = %v Hz %v dB", f, level)
	}
}

func TestAnalyzerHannSine(t *testing.T) {
	a, err := NewAnalyzer(8192, 1024)
	if err != nil {
		t.Fatal(err)
	}

	_, db, err := a.Analyze(testutil.DeterministicSine(1000, 8192, 1, 1024))
	if err != nil {
		t.Fatal(err)
	}

	// Coherent gain over RMS of a Hann window is sqrt(2/3).
	if math.Abs(db[125]-20*math.Log10(math.Sqrt(2.0/3))) > 0.05 {
		t.Fatalf("Hann peak %v dB", db[125])
	}

	if f, _ := a.Peak(); f != 1000 {
		t.Fatalf("Peak at %v Hz", f)
	}
}

func TestAnalyzerSilenceAndPadding(t *testing.T) {
	a, err := NewAnalyzer(44100, 256, WithRange(-60, 6))
	if err != nil {
		t.Fatal(err)
	}

	_, db, err := a.Analyze(make([]float64, 10))
	if err != nil {
		t.Fatal(err)
	}

	for k, v := range db {
		if v != -60 {
			t.Fatalf("bin %d: %v, want floor -60", k, v)
		}
	}
}

func TestAnalyzerDecay(t *testing.T) {
	a, err := NewAnalyzer(8192, 1024, WithWindowType(window.TypeRectangular), WithDecay(1))
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := a.Analyze(testutil.DeterministicSine(1000, 8192, 1, 1024)); err != nil {
		t.Fatal(err)
	}

	_, db, err := a.Analyze(nil)
	if err != nil {
		t.Fatal(err)
	}

	// Range 90 dB, rate 1: a falling bin loses 3 dB per frame.
	if math.Abs(db[125]-(-3)) > 1e-6 {
		t.Fatalf("decayed peak %v, want -3", db[125])
	}

	a.Reset()

	_, db, err = a.Analyze(nil)
	if err != nil {
		t.Fatal(err)
	}

	if db[125] != DefaultMinDB {
		t.Fatalf("after Reset got %v", db[125])
	}
}

func TestNewAnalyzerInvalid(t *testing.T) {
	cases := []struct {
		name string
		rate float64
		size int
		opts []AnalyzerOption
	}{
		{"not power of two", 44100, 1000, nil},
		{"too small", 44100, 2, nil},
		{"zero rate", 0, 1024, nil},
		{"inverted range", 44100, 1024, []AnalyzerOption{WithRange(0, -90)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewAnalyzer(tc.rate, tc.size, tc.opts...); !errors.Is(err, ErrInvalidAnalyzer) {
				t.Fatalf("got %v", err)
			}
		})
	}
}
