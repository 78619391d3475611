// Package fixed implements arbitrary-precision fixed-point arithmetic on a
// 64-bit raw value with a runtime fractional-bit count.
//
// The fractional-bit count (Q format) is a call-site parameter, not a type
// parameter: the same raw int64 may carry Q8.24 input deltas, Q0.62
// polynomial terms, and Q40.24 outputs, because spline coefficients use
// different precisions at different polynomial powers.
//
// Every operation is pure, allocation-free, and total: no input can trap,
// wrap, or produce an unrepresentable result. Out-of-range intermediate
// values saturate toward the sign of the true mathematical result, and an
// invalid fractional-bit count (64 or more) is resolved the same way through
// a dedicated slow path. Rounding rules are explicit per operation: ToInt
// truncates toward zero, narrowing rescales round to nearest with ties away
// from zero, and Div truncates its final shift toward zero.
package fixed

import (
	"github.com/tphakala/go-pointer-accel/internal/mathutil"
	"github.com/tphakala/go-pointer-accel/internal/widediv"
)

// badFrac resolves an invalid fractional-bit count. The contract is
// saturation toward the sign of the intended result, never a fault.
func badFrac(negative bool) int64 {
	return mathutil.SatS64(negative)
}

// fracOK reports whether every given fractional-bit count is representable.
func fracOK(fracs ...uint) bool {
	for _, f := range fracs {
		if f > MaxFracBits {
			return false
		}
	}
	return true
}

// FromInt converts an integer to fixed point at the given precision,
// saturating when the scaled value exceeds the representable range.
func FromInt(v int64, fracBits uint) int64 {
	if !fracOK(fracBits) {
		return badFrac(v < 0)
	}
	if v == 0 {
		return 0
	}
	mag, neg := mathutil.SplitMagnitude(v)
	if mathutil.BitLen64(mag)+fracBits > rawBits {
		return mathutil.SatS64(neg)
	}
	return mathutil.CombineMagnitude(mag<<fracBits, neg)
}

// ToInt converts a fixed-point value to an integer, rounding toward zero.
//
// This deliberately deviates from a plain arithmetic right shift, which
// rounds toward negative infinity: the raw value -1 at 61 fractional bits is
// the real number -2^-61, and converts to 0, not -1. The truncation bias is
// applied only on the negative side.
func ToInt(v int64, fracBits uint) int64 {
	if !fracOK(fracBits) {
		return badFrac(v < 0)
	}
	if v < 0 {
		v += int64(1)<<fracBits - 1
	}
	return v >> fracBits
}

// Rescale converts v from one precision to another. Widening shifts are
// exact and saturate on overflow; narrowing shifts round to nearest with
// ties away from zero.
func Rescale(v int64, fromFrac, toFrac uint) int64 {
	if !fracOK(fromFrac, toFrac) {
		return badFrac(v < 0)
	}
	if v == 0 || fromFrac == toFrac {
		return v
	}
	mag, neg := mathutil.SplitMagnitude(v)
	if toFrac > fromFrac {
		shift := toFrac - fromFrac
		if mathutil.BitLen64(mag)+shift > rawBits {
			return mathutil.SatS64(neg)
		}
		return mathutil.CombineMagnitude(mag<<shift, neg)
	}
	shift := fromFrac - toFrac
	mag = (mag + 1<<(shift-1)) >> shift
	return mathutil.CombineMagnitude(mag, neg)
}

// Add sums two fixed-point values with independent precisions. Both operands
// are rescaled to the highest precision involved, summed with saturation,
// then rescaled to the output precision.
func Add(a int64, aFrac uint, b int64, bFrac uint, outFrac uint) int64 {
	if !fracOK(aFrac, bFrac, outFrac) {
		magB, negB := mathutil.SplitMagnitude(b)
		return badFrac(sumSign(a, aFrac, magB, negB, bFrac))
	}
	common := max(aFrac, bFrac, outFrac)
	sum := mathutil.SatAddS64(Rescale(a, aFrac, common), Rescale(b, bFrac, common))
	return Rescale(sum, common, outFrac)
}

// Sub subtracts b from a with independent precisions, following the same
// rescale-saturate-rescale sequence as Add.
func Sub(a int64, aFrac uint, b int64, bFrac uint, outFrac uint) int64 {
	if !fracOK(aFrac, bFrac, outFrac) {
		// Split rather than negate: -b wraps for the minimum value and
		// would invert the saturation direction.
		magB, negB := mathutil.SplitMagnitude(b)
		return badFrac(sumSign(a, aFrac, magB, !negB, bFrac))
	}
	common := max(aFrac, bFrac, outFrac)
	diff := mathutil.SatSubS64(Rescale(a, aFrac, common), Rescale(b, bFrac, common))
	return Rescale(diff, common, outFrac)
}

// sumSign reports whether a/2^aFrac + s*bMag/2^bFrac is negative, where s is
// -1 when bNeg is set. The second operand arrives in sign-magnitude form so
// Sub can flip it without negating a raw value. Used only to pick the
// saturation direction on slow paths; precisions are clamped first.
func sumSign(a int64, aFrac uint, bMag uint64, bNeg bool, bFrac uint) bool {
	aFrac = min(aFrac, MaxFracBits)
	bFrac = min(bFrac, MaxFracBits)
	magA, negA := mathutil.SplitMagnitude(a)
	wideA, _ := (mathutil.Uint128{Lo: magA}).Shl(MaxFracBits - aFrac)
	wideB, _ := (mathutil.Uint128{Lo: bMag}).Shl(MaxFracBits - bFrac)
	return signNeg(wideA, negA, wideB, bNeg)
}

// signNeg reports whether the sum of two sign-magnitude values is negative.
// An exact zero sum is non-negative.
func signNeg(aMag mathutil.Uint128, aNeg bool, bMag mathutil.Uint128, bNeg bool) bool {
	if aNeg == bNeg {
		return aNeg && !(aMag.IsZero() && bMag.IsZero())
	}
	switch aMag.Cmp(bMag) {
	case 1:
		return aNeg
	case -1:
		return bNeg
	}
	return false
}

// Mul multiplies two fixed-point values. The product is first widened to a
// full double-width intermediate with no precision loss, then shifted to the
// output precision: left shifts are exact zero-fill and saturate when bits
// would be lost, right shifts round to nearest with ties away from zero.
// Shift magnitudes that would be undefined at the hardware level (64+ left,
// 128+ right) are intercepted and resolved by sign-directed saturation.
func Mul(a int64, aFrac uint, b int64, bFrac uint, outFrac uint) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	neg := (a < 0) != (b < 0)
	if !fracOK(aFrac, bFrac, outFrac) {
		return badFrac(neg)
	}

	magA, _ := mathutil.SplitMagnitude(a)
	magB, _ := mathutil.SplitMagnitude(b)
	product := mathutil.Mul64(magA, magB)

	shift := int(outFrac) - int(aFrac) - int(bFrac)
	switch {
	case shift >= rawBits:
		return mathutil.SatS64(neg)
	case shift >= 0:
		shifted, lost := product.Shl(uint(shift))
		if lost {
			return mathutil.SatS64(neg)
		}
		product = shifted
	case shift <= -wideBits:
		return mathutil.SatS64(neg)
	default:
		product = product.ShrRound(uint(-shift))
	}

	if !product.Fits64() {
		return mathutil.SatS64(neg)
	}
	return mathutil.CombineMagnitude(product.Lo, neg)
}

// preShift returns the optimal pre-shift for a division: the largest left
// shift of the dividend that keeps the widened dividend's high half strictly
// below the divisor, maximizing quotient precision without overflow.
func preShift(dividendMag, divisorMag uint64) uint {
	return preShiftBase + mathutil.Clz64(dividendMag) - mathutil.Clz64(divisorMag) - 1
}

// Div divides two fixed-point values with independent precisions.
//
// The dividend is pre-shifted by the optimal amount derived from the
// operands' leading-zero counts, divided through the widening-division
// dispatcher (whose hardware-strategy precondition the pre-shift establishes
// by construction), and the quotient's final right shift truncates toward
// zero. Division by zero saturates to the signed extreme matching the
// dividend's sign; a final left shift that provably saturates short-circuits
// before any division is performed.
func Div(dividend int64, dividendFrac uint, divisor int64, divisorFrac uint, outFrac uint) int64 {
	neg := (dividend < 0) != (divisor < 0)
	if !fracOK(dividendFrac, divisorFrac, outFrac) {
		return badFrac(neg)
	}
	if divisor == 0 {
		if dividend == 0 {
			return 0
		}
		return mathutil.SatS64(dividend < 0)
	}
	if dividend == 0 {
		return 0
	}

	magU, _ := mathutil.SplitMagnitude(dividend)
	magD, _ := mathutil.SplitMagnitude(divisor)

	shift := preShift(magU, magD)
	finalShift := int(shift) - (int(divisorFrac) - int(dividendFrac) + int(outFrac))

	// The quotient always carries at least 63 significant bits, so a left
	// shift of two or more cannot fit the signed range. Saturate before
	// dividing.
	if finalShift <= -leftShiftSaturates {
		return mathutil.SatS64(neg)
	}

	wide, _ := (mathutil.Uint128{Lo: magU}).Shl(shift)
	res := widediv.Div128(widediv.Default, wide.Hi, wide.Lo, magD)
	quo := res.QuoLo

	switch {
	case finalShift >= rawBits:
		quo = 0
	case finalShift >= 0:
		quo >>= uint(finalShift) // round toward zero
	default:
		shifted, lost := (mathutil.Uint128{Lo: quo}).Shl(uint(-finalShift))
		if lost || !shifted.Fits64() {
			return mathutil.SatS64(neg)
		}
		quo = shifted.Lo
	}
	return mathutil.CombineMagnitude(quo, neg)
}

// Fma computes multiplicand*multiplier + addend with a single rounding: the
// product is kept at full double-width precision, the addend is rescaled to
// the product's precision exactly, and only the final conversion to the
// output precision rounds. In edge cases this is strictly more accurate than
// composing Mul and Add, each of which rounds.
func Fma(multiplicand int64, mFrac uint, multiplier int64, rFrac uint, addend int64, aFrac uint, outFrac uint) int64 {
	if !fracOK(mFrac, rFrac, aFrac, outFrac) {
		return badFrac(fmaSign(multiplicand, mFrac, multiplier, rFrac, addend, aFrac))
	}

	productFrac := mFrac + rFrac

	magM, negM := mathutil.SplitMagnitude(multiplicand)
	magR, negR := mathutil.SplitMagnitude(multiplier)
	productMag := mathutil.Mul64(magM, magR)
	productNeg := negM != negR

	// Rescale the addend to the product's precision inside the widening
	// intermediate. The widening direction is exact; the narrowing
	// direction only occurs when the addend is more precise than the
	// combined product precision.
	addMag128 := mathutil.Uint128{}
	magA, negA := mathutil.SplitMagnitude(addend)
	if productFrac >= aFrac {
		var lost bool
		addMag128, lost = (mathutil.Uint128{Lo: magA}).Shl(productFrac - aFrac)
		if lost {
			return mathutil.SatS64(negA)
		}
	} else {
		addMag128 = (mathutil.Uint128{Lo: magA}).ShrRound(aFrac - productFrac)
	}

	sumMag, sumNeg := signedAdd128(productMag, productNeg, addMag128, negA)

	// One rounding step: align the exact sum to the output precision.
	if outFrac >= productFrac {
		shifted, lost := sumMag.Shl(outFrac - productFrac)
		if lost {
			return mathutil.SatS64(sumNeg)
		}
		sumMag = shifted
	} else {
		sumMag = sumMag.ShrRound(productFrac - outFrac)
	}

	if !sumMag.Fits64() {
		return mathutil.SatS64(sumNeg)
	}
	return mathutil.CombineMagnitude(sumMag.Lo, sumNeg)
}

// fmaSign reports whether multiplicand*multiplier + addend is negative,
// comparing the full-width product against the frac-aligned addend. A
// dominant addend outweighs the product's sign. Used only to pick the
// saturation direction on the invalid-precision slow path; precisions are
// clamped first.
func fmaSign(multiplicand int64, mFrac uint, multiplier int64, rFrac uint, addend int64, aFrac uint) bool {
	mFrac = min(mFrac, MaxFracBits)
	rFrac = min(rFrac, MaxFracBits)
	aFrac = min(aFrac, MaxFracBits)

	magM, negM := mathutil.SplitMagnitude(multiplicand)
	magR, negR := mathutil.SplitMagnitude(multiplier)
	product := mathutil.Mul64(magM, magR)
	productNeg := negM != negR
	productFrac := mFrac + rFrac

	magA, negA := mathutil.SplitMagnitude(addend)
	if productFrac >= aFrac {
		wideA, lost := (mathutil.Uint128{Lo: magA}).Shl(productFrac - aFrac)
		if lost {
			// The aligned addend exceeds 128 bits; no product can.
			return negA
		}
		return signNeg(product, productNeg, wideA, negA)
	}
	wideP, lost := product.Shl(aFrac - productFrac)
	if lost {
		return productNeg
	}
	return signNeg(wideP, productNeg, mathutil.Uint128{Lo: magA}, negA)
}

// signedAdd128 adds two sign-magnitude 128-bit values. A carry out of the
// magnitude addition saturates the magnitude, preserving the sign.
func signedAdd128(aMag mathutil.Uint128, aNeg bool, bMag mathutil.Uint128, bNeg bool) (mathutil.Uint128, bool) {
	if aNeg == bNeg {
		sum, carry := aMag.Add(bMag)
		if carry {
			sum = mathutil.Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
		}
		return sum, aNeg
	}
	if aMag.Cmp(bMag) >= 0 {
		diff, _ := aMag.Sub(bMag)
		return diff, aNeg && !diff.IsZero()
	}
	diff, _ := bMag.Sub(aMag)
	return diff, bNeg
}
