package spline

import (
	"github.com/tphakala/go-pointer-accel/internal/fixed"
	"github.com/tphakala/go-pointer-accel/internal/segment"
)

// localParam converts an offset into a segment to the local parameter
// t = offset * invWidth in Q0.32. The product is clamped just below 1.0:
// rounding at the far edge of a segment must not escape the unit interval.
func localParam(offset uint32, n *segment.Normalized) int64 {
	t := fixed.Mul(int64(offset), InputFracBits, int64(n.InvWidth), uint(n.InvWidthShift), TFracBits)
	if t >= 1<<TFracBits {
		t = 1<<TFracBits - 1
	}
	return t
}

// evalCubic evaluates the decoded cubic at t via Horner's method.
//
// Each coefficient carries its own precision, so every step re-aligns the
// accumulator to the next coefficient's scale: the fused multiply-add takes
// the full-width product of the accumulator and t, folds the next
// coefficient in at its native precision, and rounds once to that precision.
// The last step rounds straight to the output precision instead, so the
// final alignment and the output conversion share a single rounding.
func evalCubic(n *segment.Normalized, t int64) int64 {
	f0 := n.FracBits(0)
	f1 := n.FracBits(1)
	f2 := n.FracBits(2)
	f3 := n.FracBits(3)

	acc := fixed.Fma(n.Coeffs[0], f0, t, TFracBits, n.Coeffs[1], f1, f1)
	acc = fixed.Fma(acc, f1, t, TFracBits, n.Coeffs[2], f2, f2)
	return fixed.Fma(acc, f2, t, TFracBits, n.Coeffs[3], f3, OutFracBits)
}

// evalTangent computes the cubic's derivative with respect to t at the given
// parameter, at the precision of the quadratic coefficient. Used by octave
// extrapolation to continue the curve past the domain end.
func evalTangent(n *segment.Normalized, t int64) int64 {
	f0 := n.FracBits(0)
	f1 := n.FracBits(1)
	f2 := n.FracBits(2)

	// Mantissas are at most 46 significant bits, so the small integer
	// scaling cannot overflow the raw value.
	d := fixed.Fma(3*n.Coeffs[0], f0, t, TFracBits, 2*n.Coeffs[1], f1, f1)
	return fixed.Fma(d, f1, t, TFracBits, n.Coeffs[2], f2, f2)
}
