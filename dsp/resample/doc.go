// Package resample converts decoded audio between sample rates with a
// windowed-sinc polyphase FIR.
//
// The rate ratio is approximated by a reduced fraction up/down. Each output
// sample is computed directly from one polyphase branch of the prototype
// low-pass, so a whole file converts in one pass without streaming state.
//
//	quality          length        nominal stopband
//	QualityFast      16·max(u,d)   ~55 dB
//	QualityBalanced  32·max(u,d)   ~75 dB
//	QualityBest      64·max(u,d)   ~90 dB
package resample
