// Package segment implements the bit-exact wire codec for packed cubic
// spline segments.
//
// A packed segment is exactly 32 bytes: four 64-bit words carrying four
// polynomial coefficient mantissas (45 bits signed for the two leading
// coefficients, 45 and 46 bits unsigned for the trailing two), four signed
// relative shifts (6 bits each, 7 for the last), a 44-bit unsigned
// inverse-width mantissa scattered across the low bits of all four words,
// and a 6-bit inverse-width shift. Every bit of the record is assigned.
//
// Packing and unpacking are table-driven with explicit per-field masks and
// shifts, so the layout is independent of any implementation-defined
// bit-field ordering and round-trips exactly for all representable inputs.
package segment

import (
	"errors"
	"fmt"
)

// Packed is the 32-byte wire form of one cubic segment. It has no semantic
// meaning without the codec.
type Packed [packedWords]uint64

// Normalized is the decoded, evaluation-ready form of a segment: coefficient
// mantissas ordered from the cubic term down to the constant term, each with
// its own relative shift, plus the normalized inverse segment width. It is
// derived deterministically from a Packed and never persisted.
type Normalized struct {
	// Coeffs holds the four mantissas, highest polynomial power first.
	// Coeffs[0] and Coeffs[1] are signed; Coeffs[2] and Coeffs[3] are
	// non-negative by the wire format.
	Coeffs [4]int64

	// Shifts holds the per-coefficient relative shifts. A value equal to
	// the field's sentinel marks a denormal mantissa stored at maximum
	// precision without normalization.
	Shifts [4]int32

	// InvWidth is the unsigned inverse-width mantissa; InvWidthShift is
	// its fractional-bit count. There is no denormal path for the width:
	// an unrepresentable segment width is a caller error at pack time.
	InvWidth      uint64
	InvWidthShift uint32
}

// ErrFieldRange indicates a value that does not fit its wire field.
var ErrFieldRange = errors.New("segment field out of range")

// fieldSpec locates one bit field inside the packed record.
type fieldSpec struct {
	word   int
	lsb    uint
	width  uint
	signed bool
}

// Wire layout. Words 0-2 carry one signed/unsigned coefficient mantissa, its
// shift, and a 13-bit inverse-width fragment each; word 3 carries the wider
// constant-term mantissa, its 7-bit shift, the inverse-width shift, and the
// final 5-bit fragment. Fragments reassemble most-significant-first in word
// order.
var (
	coeffFields = [4]fieldSpec{
		{word: 0, lsb: 19, width: 45, signed: true},
		{word: 1, lsb: 19, width: 45, signed: true},
		{word: 2, lsb: 19, width: 45, signed: false},
		{word: 3, lsb: 18, width: 46, signed: false},
	}
	shiftFields = [4]fieldSpec{
		{word: 0, lsb: 13, width: 6, signed: true},
		{word: 1, lsb: 13, width: 6, signed: true},
		{word: 2, lsb: 13, width: 6, signed: true},
		{word: 3, lsb: 11, width: 7, signed: true},
	}
	invShiftField = fieldSpec{word: 3, lsb: 5, width: 6, signed: false}
	invFragFields = [4]fieldSpec{
		{word: 0, lsb: 0, width: 13, signed: false},
		{word: 1, lsb: 0, width: 13, signed: false},
		{word: 2, lsb: 0, width: 13, signed: false},
		{word: 3, lsb: 0, width: 5, signed: false},
	}
)

// fits reports whether v is representable in the field.
func (f fieldSpec) fits(v int64) bool {
	if f.signed {
		limit := int64(1) << (f.width - 1)
		return v >= -limit && v < limit
	}
	return v >= 0 && v < int64(1)<<f.width
}

// insert writes v into the field within p. The caller has validated range.
func (f fieldSpec) insert(p *Packed, v int64) {
	mask := uint64(1)<<f.width - 1
	p[f.word] |= (uint64(v) & mask) << f.lsb
}

// extract reads the field from p, sign-extending narrow signed fields with
// an arithmetic right shift.
func (f fieldSpec) extract(p *Packed) int64 {
	raw := p[f.word] >> f.lsb
	if f.signed {
		return int64(raw<<(64-f.width)) >> (64 - f.width)
	}
	return int64(raw & (uint64(1)<<f.width - 1))
}

// Pack encodes a normalized segment into its 32-byte wire form. Every field
// is range-checked; a mantissa or shift that does not fit its wire field is
// reported, never truncated.
func Pack(n *Normalized) (Packed, error) {
	var p Packed

	for i, f := range coeffFields {
		if !f.fits(n.Coeffs[i]) {
			return Packed{}, fmt.Errorf("%w: coefficient %d mantissa %d", ErrFieldRange, i, n.Coeffs[i])
		}
		f.insert(&p, n.Coeffs[i])
	}
	for i, f := range shiftFields {
		if !f.fits(int64(n.Shifts[i])) {
			return Packed{}, fmt.Errorf("%w: coefficient %d shift %d", ErrFieldRange, i, n.Shifts[i])
		}
		f.insert(&p, int64(n.Shifts[i]))
	}
	if n.InvWidth >= 1<<invWidthBits {
		return Packed{}, fmt.Errorf("%w: inverse width mantissa %d", ErrFieldRange, n.InvWidth)
	}
	if !invShiftField.fits(int64(n.InvWidthShift)) {
		return Packed{}, fmt.Errorf("%w: inverse width shift %d", ErrFieldRange, n.InvWidthShift)
	}
	invShiftField.insert(&p, int64(n.InvWidthShift))

	// Scatter the inverse-width mantissa, most significant fragment first.
	remaining := uint(invWidthBits)
	for _, f := range invFragFields {
		remaining -= f.width
		f.insert(&p, int64(n.InvWidth>>remaining)&(int64(1)<<f.width-1))
	}

	return p, nil
}

// Unpack decodes a packed segment. It is the exact inverse of Pack for all
// 256-bit patterns; no bits leak across field boundaries.
func Unpack(p *Packed) Normalized {
	var n Normalized

	for i, f := range coeffFields {
		n.Coeffs[i] = f.extract(p)
	}
	for i, f := range shiftFields {
		n.Shifts[i] = int32(f.extract(p))
	}
	n.InvWidthShift = uint32(invShiftField.extract(p))

	var inv uint64
	for _, f := range invFragFields {
		inv = inv<<f.width | uint64(f.extract(p))
	}
	n.InvWidth = inv

	return n
}

// FracBits returns the fractional-bit count of coefficient i, resolving the
// denormal sentinel to maximum precision.
func (n *Normalized) FracBits(i int) uint {
	s := n.Shifts[i]
	if s == sentinelShift(i) {
		return denormFracBits
	}
	return uint(coeffFracBase + s)
}

// sentinelShift returns the denormal marker for coefficient i: the most
// negative value of its shift field.
func sentinelShift(i int) int32 {
	return -(int32(1) << (shiftFields[i].width - 1))
}
