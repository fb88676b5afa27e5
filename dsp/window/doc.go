// Package window generates analysis and synthesis windows.
//
// The spectral filter uses a symmetric Hann window,
// w[i] = 0.5*(1 - cos(2*pi*i/(N-1))), held in a [Table] that is computed once
// per length. The remaining types serve the spectrum analyser.
package window
