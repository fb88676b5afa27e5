package spectral

import (
	"fmt"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/fft"
	"github.com/cwbudde/algo-plateau/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

// Option configures a Processor.
type Option func(*options)

type options struct {
	transform  fft.Transformer
	windowType window.Type
	table      *window.Table
}

// WithTransformer replaces the default recursive transform. Its Size must
// equal the processor's FFT size.
func WithTransformer(t fft.Transformer) Option {
	return func(o *options) {
		if t != nil {
			o.transform = t
		}
	}
}

// WithWindow selects the analysis/synthesis window. The default is Hann.
func WithWindow(t window.Type) Option {
	return func(o *options) {
		o.windowType = t
		o.table = nil
	}
}

// WithWindowTable shares a prebuilt window. Its length must equal the
// block size.
func WithWindowTable(tbl *window.Table) Option {
	return func(o *options) {
		o.table = tbl
	}
}

// Processor runs the windowed FFT, mask, inverse FFT and overlap-add chain
// on fixed-size blocks of a mono stream.
//
// The window table has one coefficient per block sample. It weights the
// input before the forward transform and the first blockSize samples of
// the inverse transform. The remaining fftSize-blockSize samples are carried
// in the overlap buffer and added to the next block.
//
// All buffers are allocated in New; ProcessBlockTo does not allocate.
// A Processor is not safe for concurrent use.
type Processor struct {
	sampleRate float64
	blockSize  int
	fftSize    int

	transform fft.Transformer
	window    *window.Table

	frame    []float64
	spectrum []complex128
	overlap  []float64
}

// New creates a processor for blockSize-sample blocks transformed at
// fftSize points. fftSize must be a power of two and blockSize in
// [1, fftSize].
func New(sampleRate float64, blockSize, fftSize int, opts ...Option) (*Processor, error) {
	cfg := core.ProcessorConfig{SampleRate: sampleRate, BlockSize: blockSize, FFTSize: fftSize}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	o := options{windowType: window.TypeHann}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.transform == nil {
		rec, err := fft.NewRecursive(fftSize)
		if err != nil {
			return nil, fmt.Errorf("spectral: %w", err)
		}

		o.transform = rec
	}

	if o.transform.Size() != fftSize {
		return nil, fmt.Errorf("%w: %d != %d", ErrTransformerSize, o.transform.Size(), fftSize)
	}

	tbl := o.table
	if tbl == nil {
		var err error
		if tbl, err = window.NewTable(o.windowType, blockSize); err != nil {
			return nil, fmt.Errorf("spectral: window: %w", err)
		}
	}

	if tbl.Len() != blockSize {
		return nil, fmt.Errorf("%w: window has %d coefficients, want %d", ErrLengthMismatch, tbl.Len(), blockSize)
	}

	return &Processor{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		fftSize:    fftSize,
		transform:  o.transform,
		window:     tbl,
		frame:      make([]float64, fftSize),
		spectrum:   make([]complex128, fftSize),
		overlap:    make([]float64, fftSize),
	}, nil
}

// NewFromConfig creates a processor from a core.ProcessorConfig.
func NewFromConfig(cfg core.ProcessorConfig, opts ...Option) (*Processor, error) {
	return New(cfg.SampleRate, cfg.BlockSize, cfg.FFTSize, opts...)
}

// ProcessBlockTo filters one block of src into dst, weighting every bin by
// mask[i]*gain.
//
// dst and src hold BlockSize samples and mask holds FFTSize gains.
// A nil src is a missing block: dst is zeroed and the overlap state is left
// as it is. A gain of exactly 0 zeroes dst and the overlap state without
// running either transform.
func (p *Processor) ProcessBlockTo(dst, src, mask []float64, gain float64) error {
	if len(dst) != p.blockSize {
		return fmt.Errorf("%w: dst has %d samples, want %d", ErrLengthMismatch, len(dst), p.blockSize)
	}

	if src == nil {
		clear(dst)
		return nil
	}

	if len(src) != p.blockSize {
		return fmt.Errorf("%w: src has %d samples, want %d", ErrLengthMismatch, len(src), p.blockSize)
	}

	if len(mask) != p.fftSize {
		return fmt.Errorf("%w: mask has %d bins, want %d", ErrLengthMismatch, len(mask), p.fftSize)
	}

	if gain == 0 {
		clear(dst)
		clear(p.overlap)

		return nil
	}

	b := p.blockSize

	// Analysis window over the occupied samples, zero padding after.
	core.ZeroPad(p.frame, src)
	p.window.ApplyTo(p.frame[:b])

	for i, v := range p.frame {
		p.spectrum[i] = complex(v, 0)
	}

	if err := p.transform.Forward(p.spectrum, p.spectrum); err != nil {
		return fmt.Errorf("spectral: forward: %w", err)
	}

	for i, c := range p.spectrum {
		g := mask[i] * gain
		p.spectrum[i] = complex(real(c)*g, imag(c)*g)
	}

	if err := p.transform.Inverse(p.spectrum, p.spectrum); err != nil {
		return fmt.Errorf("spectral: inverse: %w", err)
	}

	for i, c := range p.spectrum {
		p.frame[i] = real(c)
	}

	// Synthesis window, then overlap-add.
	p.window.ApplyTo(p.frame[:b])
	copy(dst, p.frame[:b])
	vecmath.AddBlockInPlace(dst, p.overlap[:b])

	core.SlideOverlap(p.overlap, p.frame, b)

	return nil
}

// ProcessBlock is ProcessBlockTo with a freshly allocated output block.
func (p *Processor) ProcessBlock(src, mask []float64, gain float64) ([]float64, error) {
	out := make([]float64, p.blockSize)
	if err := p.ProcessBlockTo(out, src, mask, gain); err != nil {
		return nil, err
	}

	return out, nil
}

// Reset clears the overlap state.
func (p *Processor) Reset() {
	clear(p.overlap)
}

// Overlap returns a copy of the overlap state.
func (p *Processor) Overlap() []float64 {
	return append([]float64(nil), p.overlap...)
}

// BlockSize returns the block size.
func (p *Processor) BlockSize() int {
	return p.blockSize
}

// FFTSize returns the FFT size.
func (p *Processor) FFTSize() int {
	return p.fftSize
}

// SampleRate returns the sample rate in Hz.
func (p *Processor) SampleRate() float64 {
	return p.sampleRate
}
