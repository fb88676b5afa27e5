package stream

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-plateau/dsp/resample"
	"github.com/cwbudde/algo-plateau/dsp/signal"
	"github.com/cwbudde/algo-plateau/dsp/spectrum"
	"github.com/cwbudde/algo-plateau/internal/testutil"
	"github.com/go-audio/audio"
)

func TestSliceSource(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	t.Run("once", func(t *testing.T) {
		s := NewSliceSource(data, false)
		dst := make([]float64, 3)

		if !s.ReadBlock(dst) {
			t.Fatal("first block missing")
		}

		testutil.RequireSliceNearlyEqual(t, dst, []float64{1, 2, 3}, 0)

		if !s.ReadBlock(dst) {
			t.Fatal("partial block missing")
		}

		testutil.RequireSliceNearlyEqual(t, dst, []float64{4, 5, 0}, 0)

		if s.ReadBlock(dst) {
			t.Fatal("exhausted source reported input")
		}

		s.Rewind()

		if !s.ReadBlock(dst) || dst[0] != 1 {
			t.Fatalf("after Rewind: %v", dst)
		}
	})

	t.Run("loop", func(t *testing.T) {
		s := NewSliceSource(data, true)
		dst := make([]float64, 4)

		s.ReadBlock(dst)
		s.ReadBlock(dst)
		testutil.RequireSliceNearlyEqual(t, dst, []float64{5, 1, 2, 3}, 0)

		// A block longer than the data wraps more than once.
		long := make([]float64, 12)
		s.ReadBlock(long)
		testutil.RequireSliceNearlyEqual(t, long, []float64{4, 5, 1, 2, 3, 4, 5, 1, 2, 3, 4, 5}, 0)
	})

	t.Run("empty", func(t *testing.T) {
		if NewSliceSource(nil, true).ReadBlock(make([]float64, 2)) {
			t.Fatal("empty source reported input")
		}
	})
}

func TestGeneratorSources(t *testing.T) {
	noise, err := NewNoiseSource(signal.Uniform, 0.5, 3)
	if err != nil {
		t.Fatalf("NewNoiseSource: %v", err)
	}

	block := make([]float64, 256)
	if !noise.ReadBlock(block) {
		t.Fatal("noise source reported missing input")
	}

	for i, v := range block {
		if math.Abs(v) > 0.5 {
			t.Fatalf("noise[%d] = %v exceeds amplitude", i, v)
		}
	}

	sine, err := NewSineSource(1000, 0.25, 8000)
	if err != nil {
		t.Fatalf("NewSineSource: %v", err)
	}

	sine.ReadBlock(block)
	testutil.RequireSliceNearlyEqual(t, block, testutil.DeterministicSine(1000, 8000, 0.25, len(block)), 1e-9)

	if _, err := NewSineSource(1000, 1, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	sink, err := CreateWAVSink(path, 8000)
	if err != nil {
		t.Fatalf("CreateWAVSink: %v", err)
	}

	data := testutil.DeterministicSine(440, 8000, 0.5, 2*testBlock)
	for _, block := range testutil.Blocks(data, testBlock) {
		if err := sink.WriteBlock(block); err != nil {
			t.Fatalf("WriteBlock: %v", err)
		}
	}

	// Out-of-range samples clip.
	if err := sink.WriteBlock([]float64{2, -2}); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	src, err := OpenWAVSource(path, false)
	if err != nil {
		t.Fatalf("OpenWAVSource: %v", err)
	}

	if src.SampleRate() != 8000 || src.Channels() != 1 || src.BitDepth() != 16 {
		t.Fatalf("format = %d Hz, %d ch, %d bit", src.SampleRate(), src.Channels(), src.BitDepth())
	}

	if src.Len() != len(data)+2 {
		t.Fatalf("Len = %d, want %d", src.Len(), len(data)+2)
	}

	got := make([]float64, len(data)+2)
	if !src.ReadBlock(got) {
		t.Fatal("ReadBlock reported missing input")
	}

	testutil.RequireSliceNearlyEqual(t, got[:len(data)], data, 1e-4)

	if math.Abs(got[len(data)]-1) > 1e-4 || math.Abs(got[len(data)+1]+1) > 1e-4 {
		t.Fatalf("clipped samples = %v", got[len(data):])
	}
}

func TestOpenWAVSourceErrors(t *testing.T) {
	if _, err := OpenWAVSource(filepath.Join(t.TempDir(), "missing.wav"), false); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMixDown(t *testing.T) {
	buf := &audio.IntBuffer{Data: []int{16384, -16384, 32767, 32767}}

	got := mixDown(buf, 2, 16)
	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 32767.0 / 32768}, 1e-12)

	// 8-bit is unsigned around 128.
	u8 := &audio.IntBuffer{Data: []int{128, 255, 0}}
	got = mixDown(u8, 1, 8)
	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 127.0 / 128, -1}, 1e-12)
}

func TestWAVSinkWithoutDitherRounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.wav")

	sink, err := CreateWAVSink(path, 8000, WithoutDither())
	if err != nil {
		t.Fatalf("CreateWAVSink: %v", err)
	}

	in := []float64{0, 0.5, -0.25, 1}
	if err := sink.WriteBlock(in); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	src, err := OpenWAVSource(path, false)
	if err != nil {
		t.Fatalf("OpenWAVSource: %v", err)
	}

	got := make([]float64, len(in))
	src.ReadBlock(got)

	want := []float64{0, 16384.0 / 32768, -8192.0 / 32768, 32767.0 / 32768}
	testutil.RequireSliceNearlyEqual(t, got, want, 0)
}

func TestWAVSourceResample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wav")

	sink, err := CreateWAVSink(path, 16000, WithDitherSeed(5))
	if err != nil {
		t.Fatalf("CreateWAVSink: %v", err)
	}

	if err := sink.WriteBlock(testutil.DeterministicSine(500, 16000, 0.5, 16000)); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	src, err := OpenWAVSource(path, true)
	if err != nil {
		t.Fatalf("OpenWAVSource: %v", err)
	}

	if err := src.Resample(8000, resample.QualityBalanced); err != nil {
		t.Fatalf("Resample: %v", err)
	}

	if src.SampleRate() != 8000 || src.Len() != 8000 {
		t.Fatalf("after Resample: %d samples at %d Hz", src.Len(), src.SampleRate())
	}

	got := make([]float64, 8000)
	src.ReadBlock(got)

	amp, err := spectrum.ToneAmplitude(got[1000:7000], 500, 8000)
	if err != nil {
		t.Fatalf("ToneAmplitude: %v", err)
	}

	if math.Abs(amp-0.5) > 0.01 {
		t.Fatalf("500 Hz amplitude = %v, want 0.5", amp)
	}

	if err := src.Resample(8000, resample.QualityFast); err != nil || src.Len() != 8000 {
		t.Fatalf("same-rate Resample changed the source: %v", err)
	}
}
