package widediv

import "math/bits"

// Result64 holds a double-width quotient over the 32-bit width pair.
type Result64 struct {
	QuoHi, QuoLo uint32
	Rem          uint32
}

// Quo returns the quotient as a single 64-bit value.
func (r Result64) Quo() uint64 {
	return uint64(r.QuoHi)<<32 | uint64(r.QuoLo)
}

// Divider32 is the narrowing-divide capability at the 32-bit width pair:
// it divides hi:lo by divisor with the precondition hi < divisor.
type Divider32 interface {
	Div32(hi, lo, divisor uint32) (quo, rem uint32)
}

// Native32 is the portable Divider32 backed by the platform's 64-by-32
// divide. It panics if the precondition is violated.
type Native32 struct{}

// Div32 implements Divider32.
func (Native32) Div32(hi, lo, divisor uint32) (quo, rem uint32) {
	return bits.Div32(hi, lo, divisor)
}

// Default32 is the Divider32 used by the package-level wrappers.
var Default32 Divider32 = Native32{}

// LongDiv64 divides hi:lo by divisor via two precondition-safe single-width
// divisions. Valid for any dividend as long as divisor is nonzero.
func LongDiv64(d Divider32, hi, lo, divisor uint32) Result64 {
	quoHi := hi / divisor
	remHi := hi % divisor
	quoLo, rem := d.Div32(remHi, lo, divisor)
	return Result64{QuoHi: quoHi, QuoLo: quoLo, Rem: rem}
}

// Div64x32 divides hi:lo by divisor with the same dispatch rules as Div128,
// at the 32-bit width pair.
func Div64x32(d Divider32, hi, lo, divisor uint32) Result64 {
	if divisor == 0 {
		return Result64{QuoHi: ^uint32(0), QuoLo: ^uint32(0)}
	}
	if hi == 0 {
		return Result64{QuoLo: lo / divisor, Rem: lo % divisor}
	}
	if hi < divisor {
		quo, rem := d.Div32(hi, lo, divisor)
		return Result64{QuoLo: quo, Rem: rem}
	}
	return LongDiv64(d, hi, lo, divisor)
}
