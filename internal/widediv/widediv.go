// Package widediv implements widening integer division: a double-width
// dividend divided by a single-width divisor, producing a double-width
// quotient and single-width remainder.
//
// Two interchangeable strategies share one contract. The hardware strategy
// wraps the platform's narrowing divide, whose precondition is that the high
// half of the dividend is strictly less than the divisor; violating it faults.
// The long-division strategy splits the dividend and performs two divisions
// that each satisfy that precondition by construction. The dispatcher checks
// the precondition once and routes accordingly, so the hardware strategy can
// never fault through this package's entry points.
package widediv

import "math/bits"

// Result holds the quotient and remainder of a single-width division.
// Invariant: dividend == Quo*divisor + Rem with 0 <= Rem < divisor.
type Result struct {
	Quo, Rem uint64
}

// Result128 holds a double-width quotient and its remainder.
// Invariant: (hi:lo) == (QuoHi:QuoLo)*divisor + Rem with 0 <= Rem < divisor.
type Result128 struct {
	QuoHi, QuoLo uint64
	Rem          uint64
}

// Fits64 reports whether the quotient is representable in a single width.
func (r Result128) Fits64() bool {
	return r.QuoHi == 0
}

// Divider is the narrowing-divide capability: it divides the double-width
// dividend hi:lo by divisor, returning a single-width quotient and remainder.
//
// Precondition: hi < divisor (which also implies divisor != 0). The quotient
// is then guaranteed to fit in 64 bits. Implementations are allowed to fault
// when the precondition is violated; callers must route through Div128, which
// establishes it.
type Divider interface {
	Div64(hi, lo, divisor uint64) (quo, rem uint64)
}

// Native is the portable Divider backed by the platform's 128-by-64 divide.
// It panics if the precondition is violated, matching the fault semantics of
// the underlying instruction.
type Native struct{}

// Div64 implements Divider.
func (Native) Div64(hi, lo, divisor uint64) (quo, rem uint64) {
	return bits.Div64(hi, lo, divisor)
}

// Default is the Divider used by the package-level convenience wrappers.
var Default Divider = Native{}

// LongDiv128 divides hi:lo by divisor using the division identity
//
//	hi:lo = (hi/d)*2^64 + ((hi mod d):lo)/d
//
// The first step is a plain single-width divide; the second step's high half
// is hi mod d, which is strictly less than d, so the narrowing divide's
// precondition holds by construction. Valid for any dividend as long as
// divisor is nonzero.
func LongDiv128(d Divider, hi, lo, divisor uint64) Result128 {
	quoHi := hi / divisor
	remHi := hi % divisor
	quoLo, rem := d.Div64(remHi, lo, divisor)
	return Result128{QuoHi: quoHi, QuoLo: quoLo, Rem: rem}
}

// Div128 divides hi:lo by divisor, dispatching to whichever strategy cannot
// fault:
//
//   - hi == 0: plain single-width divide.
//   - hi < divisor: the narrowing divide's precondition already holds, so the
//     hardware strategy is used directly and its single-width quotient is
//     widened.
//   - otherwise: long division.
//
// A zero divisor saturates the quotient to all ones rather than faulting;
// the fixed-point layer intercepts division by zero before reaching this
// package, so that path is a programmer-error backstop, not an API.
func Div128(d Divider, hi, lo, divisor uint64) Result128 {
	if divisor == 0 {
		return Result128{QuoHi: ^uint64(0), QuoLo: ^uint64(0)}
	}
	if hi == 0 {
		return Result128{QuoLo: lo / divisor, Rem: lo % divisor}
	}
	if hi < divisor {
		quo, rem := d.Div64(hi, lo, divisor)
		return Result128{QuoLo: quo, Rem: rem}
	}
	return LongDiv128(d, hi, lo, divisor)
}

// Div64 divides a single-width dividend by divisor using the hardware
// strategy directly, per the dispatch rule for same-width operands.
func Div64(dividend, divisor uint64) Result {
	if divisor == 0 {
		return Result{Quo: ^uint64(0)}
	}
	return Result{Quo: dividend / divisor, Rem: dividend % divisor}
}
