package fixed

// Precision limits
const (
	// MaxFracBits is the largest valid fractional-bit count. A frac_bits of
	// 64 or more cannot be represented in the 64-bit raw storage and is
	// routed through the invalid-precision slow path.
	MaxFracBits = 63

	// rawBits is the width of the raw storage type.
	rawBits = 64

	// wideBits is the width of the widening intermediate.
	wideBits = 128
)

// Division pre-shift constants
const (
	// preShiftBase is the base term of the optimal pre-shift:
	// shift = preShiftBase + clz(dividend) - clz(divisor) - 1.
	preShiftBase = 64

	// leftShiftSaturates is the smallest post-division left-shift magnitude
	// that provably saturates: the quotient always carries at least 63
	// significant bits after the optimal pre-shift, so shifting left by two
	// or more cannot fit the signed range.
	leftShiftSaturates = 2
)

// exp2 polynomial constants, Q0.62.
//
// Degree-5 minimax approximation of 2^t on [0, 1), monotonic over the full
// interval with a maximum absolute error of 1.7e-7. The packing round-trip
// and monotonicity tests are the authoritative check on these values.
const (
	exp2Frac = 62

	exp2C0 = 4611685743549480960 // 0.99999994
	exp2C1 = 3196604382997118976 // 0.69315308
	exp2C2 = 1107513048769232896 // 0.24015361
	exp2C3 = 257453447962427392  // 0.055826318
	exp2C4 = 41456012183470080   // 0.0089893397
	exp2C5 = 8658794192044032    // 0.0018775767

	// exp2MaxIntPart is the largest integer exponent that cannot overflow
	// the output scaling shift; anything above saturates outright.
	exp2MaxIntPart = 64
)

// isqrt iteration constants
const (
	// isqrtRounds is the fixed digit-by-digit iteration count: two dividend
	// bits are consumed per round, covering the full 128-bit intermediate.
	isqrtRounds = 64
)
