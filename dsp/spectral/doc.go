// Package spectral implements block-wise frequency-domain filtering with
// overlap-add reconstruction.
//
// A [Processor] takes fixed-size real blocks, windows and zero-pads them to
// a power-of-two FFT size, multiplies every bin by a caller-supplied gain
// curve, transforms back and stitches consecutive blocks together. The gain
// curve is usually a [plateau] mask, but any symmetric per-bin curve works.
//
// The processor does not know about parameters or scheduling; it is the
// shared core behind both the real-time and the fallback stream hosts.
package spectral
