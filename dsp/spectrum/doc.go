// Package spectrum measures the filtered signal: an [Analyzer] for dB
// magnitude spectra and a [Goertzel] detector for single frequencies.
//
// Building with -tags fastmath swaps the dB and magnitude math for the
// approximations in algo-approx.
package spectrum
