package stream

import (
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sink consumes rendered blocks on the fallback host.
type Sink interface {
	WriteBlock(block []float64) error
	Close() error
}

// DiscardSink drops every block.
type DiscardSink struct{}

// WriteBlock implements Sink.
func (DiscardSink) WriteBlock([]float64) error { return nil }

// Close implements Sink.
func (DiscardSink) Close() error { return nil }

// WAVSinkOption configures a WAVSink.
type WAVSinkOption func(*WAVSink)

// WithDitherSeed seeds the TPDF dither added before 16-bit quantisation.
func WithDitherSeed(seed int64) WAVSinkOption {
	return func(s *WAVSink) {
		s.dither = vecmath.NewDitherState(seed)
	}
}

// WithoutDither quantises by plain rounding.
func WithoutDither() WAVSinkOption {
	return func(s *WAVSink) {
		s.dither = nil
	}
}

// WAVSink records mono 16-bit PCM to a file. Samples get ±1 LSB TPDF
// dither unless WithoutDither is given.
type WAVSink struct {
	file   *os.File
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	scaled []float64
	dither *vecmath.DitherState
}

// CreateWAVSink creates or truncates path.
func CreateWAVSink(path string, sampleRate int, opts ...WAVSinkOption) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("stream: create wav: %w", err)
	}

	s := &WAVSink{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
		dither: vecmath.NewDitherState(1),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// WriteBlock implements Sink. Samples are clipped to [-1, 1].
func (s *WAVSink) WriteBlock(block []float64) error {
	s.scaled = core.EnsureLen(s.scaled, len(block))
	if cap(s.buf.Data) < len(block) {
		s.buf.Data = make([]int, len(block))
	}

	s.buf.Data = s.buf.Data[:len(block)]

	for i, v := range block {
		s.scaled[i] = math.Max(-1, math.Min(1, v)) * math.MaxInt16
	}

	if s.dither != nil {
		vecmath.AddDitherTPDF(s.scaled, 1, s.dither)
	}

	for i, v := range s.scaled {
		s.buf.Data[i] = int(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("stream: write wav: %w", err)
	}

	return nil
}

// Close finalises the header and closes the file.
func (s *WAVSink) Close() error {
	encErr := s.enc.Close()
	fileErr := s.file.Close()

	if encErr != nil {
		return fmt.Errorf("stream: finalise wav: %w", encErr)
	}

	return fileErr
}
