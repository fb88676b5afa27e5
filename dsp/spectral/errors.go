package spectral

import "errors"

var (
	// ErrInvalidConfig is returned by New for unusable sizes or rates.
	ErrInvalidConfig = errors.New("spectral: invalid configuration")
	// ErrLengthMismatch is returned when a block or mask has the wrong length.
	ErrLengthMismatch = errors.New("spectral: length mismatch")
	// ErrTransformerSize is returned when a custom transformer does not match
	// the FFT size.
	ErrTransformerSize = errors.New("spectral: transformer size does not match fft size")
)
