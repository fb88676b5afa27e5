// Package plateau defines the plateau band shape: a flat unity-gain centre
// with raised-cosine skirts.
//
// [Params] holds the band description, [Update] is the sparse change record
// a control surface sends, [Mask] renders the curve onto the bins of an
// N-point transform and [Response] samples it analytically for plotting.
//
// [Gaussian] and [Parabolic] are further band shapes. Every shape satisfies
// [Shape], and a [Chain] multiplies several of them into one curve.
//
// Width must exceed FlatWidth, otherwise the taper has no room. The package
// never rejects such input: [Params.Normalize] lifts Width to FlatWidth+1.
package plateau
