package fixed

import "github.com/tphakala/go-pointer-accel/internal/mathutil"

// Test hooks into unexported helpers.

// PreShiftForTest exposes the optimal division pre-shift selection.
func PreShiftForTest(dividendMag, divisorMag uint64) uint {
	return preShift(dividendMag, divisorMag)
}

// Sqrt128ForTest exposes the 128-bit integer square root.
func Sqrt128ForTest(hi, lo uint64) uint64 {
	return sqrt128(mathutil.Uint128{Hi: hi, Lo: lo})
}
