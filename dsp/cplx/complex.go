package cplx

import "math"

// Complex is an immutable complex sample. Every operation returns a new value.
type Complex struct {
	Re float64
	Im float64
}

// New returns re + i*im.
func New(re, im float64) Complex {
	return Complex{Re: re, Im: im}
}

// FromPolar returns r*(cos(theta) + i*sin(theta)).
func FromPolar(r, theta float64) Complex {
	sin, cos := math.Sincos(theta)
	return Complex{Re: r * cos, Im: r * sin}
}

// FromComplex128 converts a builtin complex value.
func FromComplex128(c complex128) Complex {
	return Complex{Re: real(c), Im: imag(c)}
}

// Complex128 converts c to the builtin complex type.
func (c Complex) Complex128() complex128 {
	return complex(c.Re, c.Im)
}

// Add returns c + o.
func (c Complex) Add(o Complex) Complex {
	return Complex{Re: c.Re + o.Re, Im: c.Im + o.Im}
}

// Sub returns c - o.
func (c Complex) Sub(o Complex) Complex {
	return Complex{Re: c.Re - o.Re, Im: c.Im - o.Im}
}

// Mul returns the complex product c * o.
func (c Complex) Mul(o Complex) Complex {
	return Complex{
		Re: c.Re*o.Re - c.Im*o.Im,
		Im: c.Re*o.Im + c.Im*o.Re,
	}
}

// Scale multiplies both parts by k.
func (c Complex) Scale(k float64) Complex {
	return Complex{Re: c.Re * k, Im: c.Im * k}
}

// Conj returns the complex conjugate.
func (c Complex) Conj() Complex {
	return Complex{Re: c.Re, Im: -c.Im}
}

// Abs returns the magnitude sqrt(re^2 + im^2).
func (c Complex) Abs() float64 {
	return math.Sqrt(c.Re*c.Re + c.Im*c.Im)
}

// FromReal converts a real slice into complex samples with zero imaginary part.
func FromReal(x []float64) []Complex {
	out := make([]Complex, len(x))
	for i, v := range x {
		out[i] = Complex{Re: v}
	}

	return out
}

// Real extracts the real parts of x.
func Real(x []Complex) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v.Re
	}

	return out
}
