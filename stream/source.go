package stream

import (
	"fmt"
	"os"

	"github.com/cwbudde/algo-plateau/dsp/resample"
	"github.com/cwbudde/algo-plateau/dsp/signal"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Source supplies input blocks to a node. ReadBlock fills dst and reports
// false when no input is available for this block; the node then treats
// the block as missing. It is called from the render goroutine and must not
// block.
type Source interface {
	ReadBlock(dst []float64) bool
}

// NoiseSource is an endless white-noise input.
type NoiseSource struct {
	gen *signal.NoiseSource
}

// NewNoiseSource creates a seeded noise input.
func NewNoiseSource(dist signal.Distribution, amplitude float64, seed int64) (*NoiseSource, error) {
	gen, err := signal.NewNoiseSource(dist, amplitude, seed)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	return &NoiseSource{gen: gen}, nil
}

// ReadBlock implements Source.
func (s *NoiseSource) ReadBlock(dst []float64) bool {
	s.gen.Fill(dst)
	return true
}

// SineSource is an endless sine input.
type SineSource struct {
	osc *signal.Oscillator
}

// NewSineSource creates a sine input.
func NewSineSource(freqHz, amplitude, sampleRate float64) (*SineSource, error) {
	osc, err := signal.NewOscillator(freqHz, amplitude, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	return &SineSource{osc: osc}, nil
}

// ReadBlock implements Source.
func (s *SineSource) ReadBlock(dst []float64) bool {
	s.osc.Fill(dst)
	return true
}

// SliceSource plays back samples held in memory. Without looping it reports
// missing input once the data is exhausted; a final partial block is padded
// with zeros.
type SliceSource struct {
	data []float64
	pos  int
	loop bool
}

// NewSliceSource creates a source over data.
func NewSliceSource(data []float64, loop bool) *SliceSource {
	return &SliceSource{data: data, loop: loop}
}

// ReadBlock implements Source.
func (s *SliceSource) ReadBlock(dst []float64) bool {
	if len(s.data) == 0 {
		return false
	}

	if s.pos >= len(s.data) {
		if !s.loop {
			return false
		}

		s.pos = 0
	}

	n := 0
	for n < len(dst) {
		c := copy(dst[n:], s.data[s.pos:])
		n += c
		s.pos += c

		if s.pos < len(s.data) {
			continue
		}

		if !s.loop {
			clear(dst[n:])
			break
		}

		s.pos = 0
	}

	return true
}

// Rewind restarts playback from the first sample.
func (s *SliceSource) Rewind() {
	s.pos = 0
}

// Len returns the number of samples.
func (s *SliceSource) Len() int { return len(s.data) }

// WAVSource plays a WAV file, mixed down to mono.
type WAVSource struct {
	*SliceSource

	sampleRate int
	channels   int
	bitDepth   int
}

// OpenWAVSource decodes the whole file at path into memory.
func OpenWAVSource(path string, loop bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stream: open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("stream: %s: invalid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("stream: reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		return nil, fmt.Errorf("stream: %s: no channels", path)
	}

	return &WAVSource{
		SliceSource: NewSliceSource(mixDown(buf, channels, int(dec.BitDepth)), loop),
		sampleRate:  int(dec.SampleRate),
		channels:    channels,
		bitDepth:    int(dec.BitDepth),
	}, nil
}

// SampleRate returns the rate of the samples ReadBlock delivers.
func (s *WAVSource) SampleRate() int { return s.sampleRate }

// Channels returns the channel count of the file before mixdown.
func (s *WAVSource) Channels() int { return s.channels }

// Resample converts the decoded samples to rate and rewinds. It is a no-op
// when the file is already at rate.
func (s *WAVSource) Resample(rate float64, q resample.Quality) error {
	if rate == float64(s.sampleRate) {
		return nil
	}

	out, err := resample.Convert(s.data, float64(s.sampleRate), rate, resample.WithQuality(q))
	if err != nil {
		return fmt.Errorf("stream: %w", err)
	}

	s.SliceSource = NewSliceSource(out, s.loop)
	s.sampleRate = int(rate)

	return nil
}

// BitDepth returns the file's sample bit depth.
func (s *WAVSource) BitDepth() int { return s.bitDepth }

// mixDown averages interleaved integer frames into float samples in [-1, 1].
func mixDown(buf *audio.IntBuffer, channels, bitDepth int) []float64 {
	scale := 1 / float64(int64(1)<<(bitDepth-1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)

	for i := range out {
		sum := 0
		for c := range channels {
			sum += buf.Data[i*channels+c] - offset
		}

		out[i] = float64(sum) / float64(channels) * scale
	}

	return out
}
