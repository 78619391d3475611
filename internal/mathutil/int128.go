package mathutil

import "math/bits"

// Uint128 is an unsigned 128-bit value used as the widening intermediate for
// fixed-point multiply, divide, and fused multiply-add. It is a plain value
// type; all operations return new values.
type Uint128 struct {
	Hi, Lo uint64
}

// Mul64 returns the full 128-bit product of a and b.
func Mul64(a, b uint64) Uint128 {
	hi, lo := bits.Mul64(a, b)
	return Uint128{Hi: hi, Lo: lo}
}

// IsZero reports whether x is zero.
func (x Uint128) IsZero() bool {
	return x.Hi == 0 && x.Lo == 0
}

// Cmp returns -1, 0, or +1 comparing x against y.
func (x Uint128) Cmp(y Uint128) int {
	switch {
	case x.Hi < y.Hi:
		return -1
	case x.Hi > y.Hi:
		return 1
	case x.Lo < y.Lo:
		return -1
	case x.Lo > y.Lo:
		return 1
	}
	return 0
}

// Add returns x+y and a carry-out flag.
func (x Uint128) Add(y Uint128) (Uint128, bool) {
	lo, carry := bits.Add64(x.Lo, y.Lo, 0)
	hi, carry := bits.Add64(x.Hi, y.Hi, carry)
	return Uint128{Hi: hi, Lo: lo}, carry != 0
}

// Sub returns x-y and a borrow-out flag (set when y > x).
func (x Uint128) Sub(y Uint128) (Uint128, bool) {
	lo, borrow := bits.Sub64(x.Lo, y.Lo, 0)
	hi, borrow := bits.Sub64(x.Hi, y.Hi, borrow)
	return Uint128{Hi: hi, Lo: lo}, borrow != 0
}

// Shl returns x<<n and reports whether any set bit was shifted out.
// Shift counts of 128 or more always yield zero (overflow if x was nonzero).
func (x Uint128) Shl(n uint) (Uint128, bool) {
	switch {
	case n == 0:
		return x, false
	case n >= 128:
		return Uint128{}, !x.IsZero()
	case n >= 64:
		lost := x.Hi != 0 || x.Lo>>(128-n) != 0
		return Uint128{Hi: x.Lo << (n - 64)}, lost
	}
	lost := x.Hi>>(64-n) != 0
	return Uint128{
		Hi: x.Hi<<n | x.Lo>>(64-n),
		Lo: x.Lo << n,
	}, lost
}

// Shr returns x>>n, truncating. Shift counts of 128 or more yield zero.
func (x Uint128) Shr(n uint) Uint128 {
	switch {
	case n == 0:
		return x
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Lo: x.Hi >> (n - 64)}
	}
	return Uint128{
		Hi: x.Hi >> n,
		Lo: x.Lo>>n | x.Hi<<(64-n),
	}
}

// ShrRound returns x>>n rounded to nearest, ties away from zero (a half-unit
// bias is added before truncating). The carry-out of the bias addition is
// folded back in, so the result is exact even when x is near the top of the
// 128-bit range. Shift counts of 129 or more yield zero; a count of exactly
// 128 can still round up to one.
func (x Uint128) ShrRound(n uint) Uint128 {
	if n == 0 {
		return x
	}
	if n > 128 {
		return Uint128{}
	}
	var bias Uint128
	if n <= 64 {
		bias = Uint128{Lo: 1 << (n - 1)}
	} else {
		bias = Uint128{Hi: 1 << (n - 65)}
	}
	sum, carry := x.Add(bias)
	shifted := sum.Shr(n)
	if carry {
		// The 129th bit lands at position 128-n of the result.
		top, _ := (Uint128{Lo: 1}).Shl(128 - n)
		shifted, _ = shifted.Add(top)
	}
	return shifted
}

// BitLen returns the minimum number of bits required to represent x.
func (x Uint128) BitLen() uint {
	if x.Hi != 0 {
		return 64 + BitLen64(x.Hi)
	}
	return BitLen64(x.Lo)
}

// Fits64 reports whether x is representable in a uint64.
func (x Uint128) Fits64() bool {
	return x.Hi == 0
}
