// Package mathutil provides the small set of integer primitives the
// fixed-point core is built on: leading-zero counts, saturating arithmetic,
// and 128-bit helper operations.
//
// The evaluation packages (fixed, widediv, segment, spline) are written
// against these functions only, so porting to a host with different native
// primitives means adapting this one package.
package mathutil

import (
	"math"
	"math/bits"
)

// Clz64 returns the number of leading zero bits in x; Clz64(0) == 64.
func Clz64(x uint64) uint {
	return uint(bits.LeadingZeros64(x))
}

// Clz32 returns the number of leading zero bits in x; Clz32(0) == 32.
func Clz32(x uint32) uint {
	return uint(bits.LeadingZeros32(x))
}

// BitLen64 returns the minimum number of bits required to represent x.
func BitLen64(x uint64) uint {
	return uint(bits.Len64(x))
}

// SatAddS64 returns a+b, clamped to [math.MinInt64, math.MaxInt64].
// The saturation direction follows the sign of the true sum.
func SatAddS64(a, b int64) int64 {
	sum := a + b
	// Overflow iff both operands share a sign the sum does not.
	if (a^sum)&(b^sum) < 0 {
		if a < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return sum
}

// SatSubS64 returns a-b, clamped to [math.MinInt64, math.MaxInt64].
func SatSubS64(a, b int64) int64 {
	diff := a - b
	// Overflow iff the operands differ in sign and the result has b's sign.
	if (a^b)&(a^diff) < 0 {
		if a < 0 {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	return diff
}

// SatS64 returns the signed extreme in the given direction: MinInt64 when
// negative is true, MaxInt64 otherwise.
func SatS64(negative bool) int64 {
	if negative {
		return math.MinInt64
	}
	return math.MaxInt64
}

// SplitMagnitude decomposes v into an unsigned magnitude and a sign flag.
// The magnitude of math.MinInt64 (1<<63) is representable in uint64, so the
// decomposition is exact for every int64.
func SplitMagnitude(v int64) (mag uint64, negative bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// CombineMagnitude reassembles a signed value from a magnitude and sign,
// saturating when the magnitude exceeds the signed range.
func CombineMagnitude(mag uint64, negative bool) int64 {
	if negative {
		if mag > 1<<63 {
			return math.MinInt64
		}
		return -int64(mag)
	}
	if mag > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(mag)
}
