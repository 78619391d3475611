package fixed

import "github.com/tphakala/go-pointer-accel/internal/mathutil"

// Isqrt computes the square root of a non-negative fixed-point value,
// rounding down. The input is rescaled into the widening intermediate so
// that the integer square root of the intermediate is exactly the output at
// the requested precision: floor(sqrt(v * 2^(2*outFrac - fracBits))).
//
// The digit-by-digit iteration runs a fixed 64 rounds regardless of input,
// so evaluation time is input-independent. The result is monotonic in the
// input over the full non-negative domain (exact floor square roots cannot
// invert order) and saturates instead of wrapping when the rescale
// overflows. Negative inputs are outside the domain and yield zero.
func Isqrt(v int64, fracBits, outFrac uint) int64 {
	if !fracOK(fracBits, outFrac) {
		return badFrac(false)
	}
	if v <= 0 {
		return 0
	}

	shift := 2*int(outFrac) - int(fracBits)
	wide := mathutil.Uint128{Lo: uint64(v)}
	if shift >= 0 {
		var lost bool
		wide, lost = wide.Shl(uint(shift))
		if lost {
			return mathutil.SatS64(false)
		}
	} else {
		wide = wide.Shr(uint(-shift))
	}

	return mathutil.CombineMagnitude(sqrt128(wide), false)
}

// sqrt128 returns floor(sqrt(x)) for a 128-bit radicand using the restoring
// digit-by-digit method: two radicand bits are consumed per round, and each
// round appends one result bit.
func sqrt128(x mathutil.Uint128) uint64 {
	var root uint64
	var rem mathutil.Uint128

	for round := range isqrtRounds {
		// Bring down the next two radicand bits.
		topBits := x.Shr(uint(2 * (isqrtRounds - 1 - round))).Lo & 0x3
		rem, _ = rem.Shl(2)
		rem, _ = rem.Add(mathutil.Uint128{Lo: topBits})

		// Trial subtrahend: (root << 2) | 1, i.e. 2*root + 1 in the
		// doubled-bit domain.
		trial, _ := (mathutil.Uint128{Lo: root}).Shl(2)
		trial, _ = trial.Add(mathutil.Uint128{Lo: 1})

		if trial.Cmp(rem) <= 0 {
			rem, _ = rem.Sub(trial)
			root = root<<1 | 1
		} else {
			root <<= 1
		}
	}
	return root
}
