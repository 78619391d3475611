package segment

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadWidth indicates a segment width whose inverse cannot be normalized.
// Unlike small coefficients, an over-wide or non-finite segment has no
// denormal fallback: it is a caller error.
var ErrBadWidth = errors.New("segment width out of range")

// FromFloat builds a normalized segment from the offline fitter's output:
// four floating-point coefficients over the local parameter t in [0, 1),
// cubic term first, and the segment width in input-domain units.
//
// Each coefficient is normalized floating-mantissa-style: the shift is
// chosen so the most significant set bit of the mantissa lands at a fixed
// position. Coefficients too small to normalize within the shift range are
// stored denormal (sentinel shift, unnormalized mantissa at maximum
// precision); coefficients too large saturate the mantissa at the coarsest
// representable precision. The trailing two coefficients are unsigned on the
// wire; tiny negative fitting noise is clamped to zero.
func FromFloat(coeffs [4]float64, width float64) (Normalized, error) {
	var n Normalized

	for i, c := range coeffs {
		if i >= 2 && c < 0 {
			c = 0
		}
		n.Coeffs[i], n.Shifts[i] = normalizeCoeff(c, i)
	}

	if width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
		return Normalized{}, fmt.Errorf("%w: %v", ErrBadWidth, width)
	}
	inv := 1.0 / width
	fr, exp := math.Frexp(inv)
	m := int64(math.Round(fr * float64(int64(1)<<invWidthBits)))
	if m == 1<<invWidthBits {
		m >>= 1
		exp++
	}
	frac := int(invWidthBits) - exp
	if frac < 0 || frac > 63 {
		return Normalized{}, fmt.Errorf("%w: %v", ErrBadWidth, width)
	}
	n.InvWidth = uint64(m)
	n.InvWidthShift = uint32(frac)

	return n, nil
}

// normalizeCoeff converts one coefficient to a mantissa/shift pair.
func normalizeCoeff(v float64, i int) (int64, int32) {
	if v == 0 {
		return 0, sentinelShift(i)
	}

	neg := v < 0
	fr, exp := math.Frexp(math.Abs(v))
	magBits := coeffMagBits[i]

	m := int64(math.Round(fr * float64(int64(1)<<magBits)))
	if m == 1<<magBits {
		m >>= 1
		exp++
	}

	frac := int(magBits) - exp
	s := frac - coeffFracBase

	switch {
	case s > maxNormShift:
		// Denormal: unnormalized mantissa at maximum precision, no
		// implicit leading-bit position.
		m = int64(math.Round(math.Abs(v) * math.Ldexp(1, denormFracBits)))
		if neg {
			m = -m
		}
		return m, sentinelShift(i)
	case s < minNormShift:
		// Representation error path: saturate at the coarsest scale.
		m = int64(1)<<magBits - 1
		if neg {
			m = -m
		}
		return m, int32(minNormShift)
	}

	if neg {
		m = -m
	}
	return m, int32(s)
}

// CoeffFloat reconstructs coefficient i as a float, for analysis and tests.
func (n *Normalized) CoeffFloat(i int) float64 {
	return math.Ldexp(float64(n.Coeffs[i]), -int(n.FracBits(i)))
}

// InvWidthFloat reconstructs the inverse width as a float.
func (n *Normalized) InvWidthFloat() float64 {
	return math.Ldexp(float64(n.InvWidth), -int(n.InvWidthShift))
}
