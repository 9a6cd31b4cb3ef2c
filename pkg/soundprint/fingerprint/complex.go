// Package fingerprint implements the time-frequency analysis and
// combinatorial hashing pipeline: FFT, spectrogram, peak picking and
// fingerprint generation.
package fingerprint

import "math"

// Complex is a double-precision complex sample used internally by the FFT.
// It intentionally avoids the standard library's complex128 so that the
// transform below reads as an explicit, auditable implementation of the
// Cooley-Tukey recursion rather than a wrapper around a built-in type.
type Complex struct {
	Re, Im float64
}

// Polar builds a complex number from magnitude r and angle theta (radians).
func Polar(r, theta float64) Complex {
	return Complex{Re: r * math.Cos(theta), Im: r * math.Sin(theta)}
}

func (c Complex) Add(o Complex) Complex {
	return Complex{Re: c.Re + o.Re, Im: c.Im + o.Im}
}

func (c Complex) Sub(o Complex) Complex {
	return Complex{Re: c.Re - o.Re, Im: c.Im - o.Im}
}

func (c Complex) Mul(o Complex) Complex {
	return Complex{
		Re: c.Re*o.Re - c.Im*o.Im,
		Im: c.Re*o.Im + c.Im*o.Re,
	}
}

// Magnitude returns |c|.
func (c Complex) Magnitude() float64 {
	return math.Hypot(c.Re, c.Im)
}

// Phase returns the angle of c in radians.
func (c Complex) Phase() float64 {
	return math.Atan2(c.Im, c.Re)
}
