package fixed

import "github.com/tphakala/go-pointer-accel/internal/mathutil"

// Exp2 computes 2^v for a fixed-point exponent. The exponent is split into
// an integer part n (rounded toward negative infinity, so the fractional
// remainder is always in [0, 1)) and a fractional part t; 2^t is evaluated
// with a degree-5 minimax polynomial at Q0.62 through a fixed-length Horner
// loop, and the result is scaled by 2^n into the output precision in a
// single final shift.
//
// The result is monotonic in v over the full domain: the polynomial is
// strictly increasing on [0, 1) and its endpoints meet the power-of-two
// steps between octaves. Overflow saturates to the positive extreme and
// underflow flushes to zero; the function never wraps.
func Exp2(v int64, fracBits, outFrac uint) int64 {
	if !fracOK(fracBits, outFrac) {
		return badFrac(false)
	}

	// Integer part via flooring shift; fractional remainder in [0, 2^frac).
	intPart := v >> fracBits
	fracPart := v - intPart<<fracBits

	if intPart >= exp2MaxIntPart {
		return mathutil.SatS64(false)
	}

	// Fractional part widened to the polynomial precision. fracBits is at
	// most 63 and fracPart is non-negative, so the widening is exact.
	var t int64
	if fracBits <= exp2Frac {
		t = fracPart << (exp2Frac - fracBits)
	} else {
		t = fracPart >> (fracBits - exp2Frac)
	}

	// Horner evaluation at Q0.62; each step is one fused multiply-add.
	acc := int64(exp2C5)
	acc = Fma(acc, exp2Frac, t, exp2Frac, exp2C4, exp2Frac, exp2Frac)
	acc = Fma(acc, exp2Frac, t, exp2Frac, exp2C3, exp2Frac, exp2Frac)
	acc = Fma(acc, exp2Frac, t, exp2Frac, exp2C2, exp2Frac, exp2Frac)
	acc = Fma(acc, exp2Frac, t, exp2Frac, exp2C1, exp2Frac, exp2Frac)
	acc = Fma(acc, exp2Frac, t, exp2Frac, exp2C0, exp2Frac, exp2Frac)

	// Single output scaling: acc is 2^t at Q0.62, the result is
	// acc * 2^(intPart + outFrac - 62).
	shift := intPart + int64(outFrac) - exp2Frac
	mag := mathutil.Uint128{Lo: uint64(acc)}
	switch {
	case shift >= rawBits:
		return mathutil.SatS64(false)
	case shift >= 0:
		shifted, lost := mag.Shl(uint(shift))
		if lost || !shifted.Fits64() {
			return mathutil.SatS64(false)
		}
		mag = shifted
	case shift <= -wideBits:
		return 0
	default:
		mag = mag.ShrRound(uint(-shift))
	}
	return mathutil.CombineMagnitude(mag.Lo, false)
}
