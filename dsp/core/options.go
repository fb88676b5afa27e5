package core

import (
	"fmt"
	"math"
)

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	FFTSize    int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 44100,
		BlockSize:  1024,
		FFTSize:    2048,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithFFTSize sets the transform size used by spectral processors.
func WithFFTSize(fftSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if fftSize > 0 {
			cfg.FFTSize = fftSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks that the configuration can drive a spectral processor:
// a finite positive sample rate, a power-of-two FFT size and a block size
// in [1, FFTSize].
func (cfg ProcessorConfig) Validate() error {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return fmt.Errorf("sample rate must be > 0: %f", cfg.SampleRate)
	}
	if cfg.FFTSize <= 0 || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two: %d", cfg.FFTSize)
	}
	if cfg.BlockSize <= 0 || cfg.BlockSize > cfg.FFTSize {
		return fmt.Errorf("block size must be in [1, %d]: %d", cfg.FFTSize, cfg.BlockSize)
	}
	return nil
}

// BlockDuration returns the wall-clock time budget of one block in seconds.
func (cfg ProcessorConfig) BlockDuration() float64 {
	return float64(cfg.BlockSize) / cfg.SampleRate
}
