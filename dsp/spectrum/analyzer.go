package spectrum

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-plateau/dsp/core"
	"github.com/cwbudde/algo-plateau/dsp/fft"
	"github.com/cwbudde/algo-plateau/dsp/window"
)

// ErrInvalidAnalyzer is returned by NewAnalyzer for unusable settings.
var ErrInvalidAnalyzer = errors.New("spectrum: invalid analyzer settings")

// Default display range in dB.
const (
	DefaultMinDB = -90.0
	DefaultMaxDB = 0.0
)

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*analyzerConfig)

type analyzerConfig struct {
	windowType   window.Type
	minDB, maxDB float64
	decay        float64
}

// WithWindowType selects the analysis window. The default is Hann.
func WithWindowType(t window.Type) AnalyzerOption {
	return func(c *analyzerConfig) { c.windowType = t }
}

// WithRange sets the dB range the output is clamped to.
func WithRange(minDB, maxDB float64) AnalyzerOption {
	return func(c *analyzerConfig) {
		c.minDB = minDB
		c.maxDB = maxDB
	}
}

// WithDecay enables peak decay. rate in [0, 1] is the fraction of the dB
// range, divided by 30, that a falling bin may drop per frame.
func WithDecay(rate float64) AnalyzerOption {
	return func(c *analyzerConfig) { c.decay = core.Clamp(rate, 0, 1) }
}

// Analyzer turns blocks of samples into a single-sided magnitude spectrum
// in dB, for display next to the filter response.
//
// Input is truncated or zero-padded to the analyzer size and windowed. The
// window is normalised by its RMS so a full-scale sine reads close to 0 dB
// regardless of the window type. Non-DC bins are doubled to account for
// the folded negative frequencies.
//
// An Analyzer is not safe for concurrent use.
type Analyzer struct {
	sampleRate float64
	size       int
	cfg        analyzerConfig

	transform fft.Transformer
	window    []float64

	buf    []complex128
	re, im []float64
	freqs  []float64
	db     []float64
	prev   []float64
	primed bool
}

// NewAnalyzer creates an analyzer with a power-of-two transform size.
func NewAnalyzer(sampleRate float64, size int, opts ...AnalyzerOption) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidAnalyzer, sampleRate)
	}

	cfg := analyzerConfig{windowType: window.TypeHann, minDB: DefaultMinDB, maxDB: DefaultMaxDB}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if size < 4 {
		return nil, fmt.Errorf("%w: size %d below 4", ErrInvalidAnalyzer, size)
	}

	if !(cfg.minDB < cfg.maxDB) {
		return nil, fmt.Errorf("%w: dB range [%v, %v]", ErrInvalidAnalyzer, cfg.minDB, cfg.maxDB)
	}

	plan, err := fft.NewPlan(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAnalyzer, err)
	}

	w := window.Generate(cfg.windowType, size)
	if norm := window.RMS(w); norm > 0 {
		for i := range w {
			w[i] /= norm
		}
	}

	bins := size/2 + 1
	a := &Analyzer{
		sampleRate: sampleRate,
		size:       size,
		cfg:        cfg,
		transform:  plan,
		window:     w,
		buf:        make([]complex128, size),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		freqs:      make([]float64, bins),
		db:         make([]float64, bins),
		prev:       make([]float64, bins),
	}

	for k := range a.freqs {
		a.freqs[k] = float64(k) * sampleRate / float64(size)
	}

	return a, nil
}

// Size returns the transform size.
func (a *Analyzer) Size() int { return a.size }

// Frequencies returns the bin centre frequencies, 0 to sampleRate/2.
func (a *Analyzer) Frequencies() []float64 {
	return append([]float64(nil), a.freqs...)
}

// Analyze computes the spectrum of samples. The returned slices are owned by
// the analyzer and overwritten by the next call.
func (a *Analyzer) Analyze(samples []float64) (freqs, db []float64, err error) {
	n := min(len(samples), a.size)
	for i := range n {
		a.buf[i] = complex(samples[i]*a.window[i], 0)
	}

	for i := n; i < a.size; i++ {
		a.buf[i] = 0
	}

	if err := a.transform.Forward(a.buf, a.buf); err != nil {
		return nil, nil, fmt.Errorf("spectrum: analyze: %w", err)
	}

	for k := range a.re {
		a.re[k] = real(a.buf[k])
		a.im[k] = imag(a.buf[k])
	}

	MagnitudeFromParts(a.db, a.re, a.im)

	scale := 1 / float64(a.size)
	a.db[0] *= scale
	for k := 1; k < len(a.db); k++ {
		a.db[k] *= 2 * scale
	}

	MagnitudeToDB(a.db, a.cfg.minDB, a.cfg.maxDB)
	a.applyDecay()

	return a.freqs, a.db, nil
}

func (a *Analyzer) applyDecay() {
	if a.cfg.decay <= 0 {
		return
	}

	if a.primed {
		step := a.cfg.decay * (a.cfg.maxDB - a.cfg.minDB) / 30
		for k, prev := range a.prev {
			if prev > a.db[k] {
				a.db[k] = math.Max(a.db[k], prev-step)
			}
		}
	}

	copy(a.prev, a.db)
	a.primed = true
}

// Peak returns the frequency and level of the loudest bin of the last
// analysis, skipping DC.
func (a *Analyzer) Peak() (freq, db float64) {
	best := 1
	for k := 2; k < len(a.db); k++ {
		if a.db[k] > a.db[best] {
			best = k
		}
	}

	return a.freqs[best], a.db[best]
}

// Reset forgets the decay history.
func (a *Analyzer) Reset() {
	a.primed = false
	clear(a.prev)
}
