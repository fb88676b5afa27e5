package spectral

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-plateau/dsp/fft"
	"github.com/cwbudde/algo-plateau/dsp/plateau"
	"github.com/cwbudde/algo-plateau/dsp/window"
	"github.com/cwbudde/algo-plateau/internal/testutil"
)

// countingTransformer records how often each transform direction runs.
type countingTransformer struct {
	fft.Transformer
	forward, inverse int
}

func (c *countingTransformer) Forward(dst, src []complex128) error {
	c.forward++
	return c.Transformer.Forward(dst, src)
}

func (c *countingTransformer) Inverse(dst, src []complex128) error {
	c.inverse++
	return c.Transformer.Inverse(dst, src)
}

func mustNew(t testing.TB, sampleRate float64, blockSize, fftSize int, opts ...Option) *Processor {
	t.Helper()

	p, err := New(sampleRate, blockSize, fftSize, opts...)
	if err != nil {
		t.Fatalf("New(%v, %d, %d): %v", sampleRate, blockSize, fftSize, err)
	}

	return p
}

func allPass(n int) []float64 {
	return testutil.Ones(n)
}

func rms(x []float64) float64 {
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(x)))
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		block, fft int
	}{
		{"fft not power of two", 44100, 512, 1000},
		{"block zero", 44100, 0, 1024},
		{"block above fft", 44100, 2048, 1024},
		{"zero rate", 0, 512, 1024},
		{"nan rate", math.NaN(), 512, 1024},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.sampleRate, tc.block, tc.fft)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewTransformerSizeMismatch(t *testing.T) {
	tr, err := fft.NewRecursive(512)
	if err != nil {
		t.Fatal(err)
	}

	_, err = New(44100, 256, 1024, WithTransformer(tr))
	if !errors.Is(err, ErrTransformerSize) {
		t.Fatalf("got %v, want ErrTransformerSize", err)
	}
}

func TestAccessors(t *testing.T) {
	p := mustNew(t, 48000, 256, 1024)

	if p.BlockSize() != 256 || p.FFTSize() != 1024 || p.SampleRate() != 48000 {
		t.Fatalf("unexpected accessors %d %d %v", p.BlockSize(), p.FFTSize(), p.SampleRate())
	}

	if got := p.Overlap(); len(got) != 1024 {
		t.Fatalf("overlap length %d", len(got))
	}
}

func TestProcessBlockLengthErrors(t *testing.T) {
	p := mustNew(t, 44100, 64, 128)
	mask := allPass(128)

	if err := p.ProcessBlockTo(make([]float64, 63), make([]float64, 64), mask, 1); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short dst: %v", err)
	}

	if err := p.ProcessBlockTo(make([]float64, 64), make([]float64, 65), mask, 1); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("long src: %v", err)
	}

	if err := p.ProcessBlockTo(make([]float64, 64), make([]float64, 64), mask[:64], 1); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short mask: %v", err)
	}
}

// With a unity mask the transform pair is the identity, so every output
// block is the input weighted by the squared window and nothing spills
// into the overlap buffer.
func TestAllPassIdentity(t *testing.T) {
	for _, tc := range []struct{ block, fft int }{{1024, 2048}, {256, 256}, {100, 512}} {
		p := mustNew(t, 44100, tc.block, tc.fft)
		mask := allPass(tc.fft)

		w := window.Generate(window.TypeHann, tc.block)

		input := testutil.DeterministicNoise(7, 1, tc.block*6)
		out := make([]float64, tc.block)
		want := make([]float64, tc.block)

		for start := 0; start < len(input); start += tc.block {
			blk := input[start : start+tc.block]
			if err := p.ProcessBlockTo(out, blk, mask, 1); err != nil {
				t.Fatalf("ProcessBlockTo: %v", err)
			}

			for i := range want {
				want[i] = blk[i] * w[i] * w[i]
			}

			testutil.RequireSliceNearlyEqual(t, out, want, 1e-12)
		}

		for i, v := range p.Overlap() {
			if math.Abs(v) > 1e-12 {
				t.Fatalf("block %d fft %d: overlap[%d] = %v", tc.block, tc.fft, i, v)
			}
		}
	}
}

func TestGainIsLinear(t *testing.T) {
	mask := plateau.Mask(plateau.Params{CenterFreq: 2000, Width: 3000, FlatWidth: 1000}, 44100, 512)
	input := testutil.DeterministicNoise(3, 0.5, 256*4)

	full := mustNew(t, 44100, 256, 512)
	half := mustNew(t, 44100, 256, 512)

	a := make([]float64, 256)
	b := make([]float64, 256)

	for start := 0; start < len(input); start += 256 {
		blk := input[start : start+256]
		if err := full.ProcessBlockTo(a, blk, mask, 1); err != nil {
			t.Fatal(err)
		}

		if err := half.ProcessBlockTo(b, blk, mask, 0.5); err != nil {
			t.Fatal(err)
		}

		for i := range a {
			if math.Abs(b[i]-0.5*a[i]) > 1e-12 {
				t.Fatalf("sample %d: %v vs half of %v", start+i, b[i], a[i])
			}
		}
	}
}

func TestPassbandAndStopband(t *testing.T) {
	const (
		sampleRate = 44100.0
		block      = 1024
		size       = 2048
	)

	params := plateau.Params{CenterFreq: 1000, Width: 400, FlatWidth: 200, Gain: 1}
	mask := plateau.Mask(params, sampleRate, size)

	w := window.Generate(window.TypeHann, block)

	run := func(freq float64) (out, ref []float64) {
		p := mustNew(t, sampleRate, block, size)
		in := testutil.DeterministicSine(freq, sampleRate, 1, block*4)
		dst := make([]float64, block)

		for start := 0; start < len(in); start += block {
			if err := p.ProcessBlockTo(dst, in[start:start+block], mask, 1); err != nil {
				t.Fatal(err)
			}
		}

		// Compare the last block against the doubly windowed input.
		last := in[len(in)-block:]
		ref = make([]float64, block)
		for i := range ref {
			ref[i] = last[i] * w[i] * w[i]
		}

		return dst, ref
	}

	out, ref := run(1000)
	diff := make([]float64, block)
	for i := range diff {
		diff[i] = out[i] - ref[i]
	}

	if r := rms(diff) / rms(ref); r > 0.05 {
		t.Fatalf("passband error ratio %v", r)
	}

	out, ref = run(5000)
	if r := rms(out) / rms(ref); r > 1e-3 {
		t.Fatalf("stopband leakage ratio %v", r)
	}
}

func TestGainZeroFastPath(t *testing.T) {
	rec, err := fft.NewRecursive(512)
	if err != nil {
		t.Fatal(err)
	}

	counter := &countingTransformer{Transformer: rec}
	p := mustNew(t, 44100, 256, 512, WithTransformer(counter))
	mask := plateau.Mask(plateau.DefaultParams(), 44100, 512)
	dst := make([]float64, 256)

	if err := p.ProcessBlockTo(dst, testutil.DeterministicNoise(1, 1, 256), mask, 1); err != nil {
		t.Fatal(err)
	}

	if counter.forward != 1 || counter.inverse != 1 {
		t.Fatalf("expected one transform pair, got %d/%d", counter.forward, counter.inverse)
	}

	for range 5 {
		if err := p.ProcessBlockTo(dst, testutil.DeterministicNoise(2, 10, 256), mask, 0); err != nil {
			t.Fatal(err)
		}

		for i, v := range dst {
			if v != 0 || math.Signbit(v) {
				t.Fatalf("dst[%d] = %v, want +0", i, v)
			}
		}
	}

	if counter.forward != 1 || counter.inverse != 1 {
		t.Fatalf("gain 0 ran the transform: %d/%d", counter.forward, counter.inverse)
	}

	for i, v := range p.Overlap() {
		if v != 0 {
			t.Fatalf("overlap[%d] = %v after gain 0", i, v)
		}
	}
}

func TestMissingInputKeepsOverlap(t *testing.T) {
	p := mustNew(t, 44100, 256, 1024)
	mask := plateau.Mask(plateau.Params{CenterFreq: 3000, Width: 800, FlatWidth: 200}, 44100, 1024)
	dst := make([]float64, 256)

	if err := p.ProcessBlockTo(dst, testutil.DeterministicNoise(5, 1, 256), mask, 1); err != nil {
		t.Fatal(err)
	}

	before := p.Overlap()

	for i := range dst {
		dst[i] = 42
	}

	if err := p.ProcessBlockTo(dst, nil, mask, 1); err != nil {
		t.Fatal(err)
	}

	for i, v := range dst {
		if v != 0 {
			t.Fatalf("dst[%d] = %v, want 0 for missing input", i, v)
		}
	}

	testutil.RequireSliceNearlyEqual(t, p.Overlap(), before, 0)
}

func TestReset(t *testing.T) {
	p := mustNew(t, 44100, 128, 512)
	mask := plateau.Mask(plateau.Params{CenterFreq: 5000, Width: 2000, FlatWidth: 500}, 44100, 512)
	dst := make([]float64, 128)

	if err := p.ProcessBlockTo(dst, testutil.DeterministicNoise(9, 1, 128), mask, 1); err != nil {
		t.Fatal(err)
	}

	p.Reset()

	for i, v := range p.Overlap() {
		if v != 0 {
			t.Fatalf("overlap[%d] = %v after Reset", i, v)
		}
	}
}

func TestPlanMatchesRecursive(t *testing.T) {
	plan, err := fft.NewPlan(1024)
	if err != nil {
		t.Fatal(err)
	}

	a := mustNew(t, 44100, 512, 1024)
	b := mustNew(t, 44100, 512, 1024, WithTransformer(plan))
	mask := plateau.Mask(plateau.Params{CenterFreq: 4000, Width: 3000, FlatWidth: 1000}, 44100, 1024)

	input := testutil.DeterministicNoise(11, 1, 512*8)
	outA := make([]float64, 512)
	outB := make([]float64, 512)

	for start := 0; start < len(input); start += 512 {
		blk := input[start : start+512]
		if err := a.ProcessBlockTo(outA, blk, mask, 0.8); err != nil {
			t.Fatal(err)
		}

		if err := b.ProcessBlockTo(outB, blk, mask, 0.8); err != nil {
			t.Fatal(err)
		}

		testutil.RequireSliceNearlyEqual(t, outB, outA, 1e-9)
	}
}

func TestWithWindow(t *testing.T) {
	p := mustNew(t, 44100, 64, 64, WithWindow(window.TypeRectangular))
	input := testutil.DeterministicNoise(4, 1, 64)

	out, err := p.ProcessBlock(input, allPass(64), 1)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, out, input, 1e-12)
}

func TestWithWindowTable(t *testing.T) {
	tbl, err := window.NewTable(window.TypeHann, 128)
	if err != nil {
		t.Fatal(err)
	}

	shared := mustNew(t, 44100, 128, 256, WithWindowTable(tbl))
	own := mustNew(t, 44100, 128, 256)
	mask := plateau.Mask(plateau.DefaultParams(), 44100, 256)
	input := testutil.DeterministicNoise(9, 1, 128)

	a, _ := shared.ProcessBlock(input, mask, 1)
	b, _ := own.ProcessBlock(input, mask, 1)
	testutil.RequireBitIdentical(t, a, b)

	if _, err := New(44100, 64, 256, WithWindowTable(tbl)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("mismatched table error = %v", err)
	}

	// A later WithWindow drops the shared table.
	p := mustNew(t, 44100, 64, 64, WithWindowTable(tbl), WithWindow(window.TypeRectangular))
	out, _ := p.ProcessBlock(input[:64], allPass(64), 1)
	testutil.RequireSliceNearlyEqual(t, out, input[:64], 1e-12)
}

func TestProcessBlockToNoAllocs(t *testing.T) {
	p := mustNew(t, 44100, 1024, 2048)
	mask := plateau.Mask(plateau.DefaultParams(), 44100, 2048)
	src := testutil.DeterministicNoise(1, 1, 1024)
	dst := make([]float64, 1024)

	allocs := testing.AllocsPerRun(20, func() {
		_ = p.ProcessBlockTo(dst, src, mask, 1)
	})

	if allocs != 0 {
		t.Fatalf("ProcessBlockTo allocated %v times per block", allocs)
	}
}
