package spline

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-pointer-accel/internal/fixed"
	"github.com/tphakala/go-pointer-accel/internal/mathutil"
	"github.com/tphakala/go-pointer-accel/internal/segment"
)

// ErrGeometry indicates octave parameters that do not describe a valid
// power-of-two segment layout.
var ErrGeometry = errors.New("invalid octave geometry")

// OctaveTable is an immutable spline whose segment boundaries follow a
// power-of-two geometry, so locating a segment needs no stored index.
//
// Below the origin (raw input 1<<originLog2) lies a subnormal zone of
// 1<<segsLog2 uniform minimum-width segments, giving uniform resolution
// down to zero. Above it, each octave [origin<<k, origin<<(k+1)) holds
// 1<<segsLog2 segments whose width doubles octave to octave. The segment
// index and local parameter fall out of the input's leading-zero count in
// constant time.
type OctaveTable struct {
	packed []segment.Packed

	originLog2 uint
	segsLog2   uint
	octaves    uint
}

// NewOctaveTable builds an octave-addressed spline. packed must hold one
// segment per geometric slot: (octaves+1) << segsLog2 in total, subnormal
// zone first, then each octave in order.
func NewOctaveTable(originLog2, segsLog2, octaves uint, packed []segment.Packed) (*OctaveTable, error) {
	if segsLog2 > originLog2 {
		return nil, fmt.Errorf("%w: %d segments per octave cannot split a 2^%d origin",
			ErrGeometry, 1<<segsLog2, originLog2)
	}
	if octaves < 1 || originLog2+octaves > octaveTopMax {
		return nil, fmt.Errorf("%w: origin 2^%d with %d octaves", ErrGeometry, originLog2, octaves)
	}
	want := int(octaves+1) << segsLog2
	if want > MaxSegments {
		return nil, fmt.Errorf("%w: %d", ErrSegmentCount, want)
	}
	if len(packed) != want {
		return nil, fmt.Errorf("%w: %d segments for geometry needing %d",
			ErrSegmentCount, len(packed), want)
	}

	return &OctaveTable{
		packed:     append([]segment.Packed(nil), packed...),
		originLog2: originLog2,
		segsLog2:   segsLog2,
		octaves:    octaves,
	}, nil
}

// Segments returns the segment count.
func (o *OctaveTable) Segments() int { return len(o.packed) }

// Packed returns the packed segment records, subnormal zone first. The
// slice is shared; callers must not modify it.
func (o *OctaveTable) Packed() []segment.Packed { return o.packed }

// Max returns the exclusive domain end; inputs at or beyond it take the
// extrapolation path.
func (o *OctaveTable) Max() uint32 { return 1 << (o.originLog2 + o.octaves) }

// Knots materializes the implicit knot sequence, one more entry than there
// are segments. The evaluator never needs it; it exists for the offline
// fitter and for cross-checking against the explicit-knot table.
func (o *OctaveTable) Knots() []uint32 {
	return OctaveKnots(o.originLog2, o.segsLog2, o.octaves)
}

// OctaveKnots computes the knot sequence the octave geometry implies, so the
// offline fitter can fit segments to a geometry before its table exists.
func OctaveKnots(originLog2, segsLog2, octaves uint) []uint32 {
	perZone := uint32(1) << segsLog2
	knots := make([]uint32, 0, int(octaves+1)<<segsLog2+1)

	width := uint32(1) << (originLog2 - segsLog2)
	x := uint32(0)
	for s := uint32(0); s < perZone; s++ {
		knots = append(knots, x)
		x += width
	}
	for k := uint(0); k < octaves; k++ {
		width = uint32(1) << (originLog2 + k - segsLog2)
		for s := uint32(0); s < perZone; s++ {
			knots = append(knots, x)
			x += width
		}
	}
	return append(knots, x)
}

// locate derives the segment index and local Q0.32 parameter for an
// in-domain input from its leading-zero count. No table is consulted.
func (o *OctaveTable) locate(x uint32) (int, int64) {
	if x < 1<<o.originLog2 {
		w := o.originLog2 - o.segsLog2
		return int(x >> w), scaleParam(uint64(x)&(1<<w-1), w)
	}

	msb := 31 - mathutil.Clz32(x)
	w := msb - o.segsLog2
	off := uint64(x) - 1<<msb
	idx := int(msb-o.originLog2+1)<<o.segsLog2 + int(off>>w)
	return idx, scaleParam(off&(1<<w-1), w)
}

// scaleParam widens a remainder below 2^w to the Q0.32 local parameter.
// Exact: segment widths are powers of two here.
func scaleParam(rem uint64, w uint) int64 {
	return int64(rem << (TFracBits - w))
}

// Evaluate maps x through the spline. In-domain inputs locate, decode, and
// evaluate exactly like the explicit-knot table. Inputs past the last
// octave extrapolate linearly along the final segment's exact tangent:
// unlike the clamped table, octave splines make no flatness promise at the
// domain end.
//
// x is Q8.24; the result is signed with OutFracBits fractional bits.
func (o *OctaveTable) Evaluate(x uint32) int64 {
	if x >= o.Max() {
		return o.extrapolate(x)
	}
	idx, t := o.locate(x)
	n := segment.Unpack(&o.packed[idx])
	return evalCubic(&n, t)
}

// extrapolate continues the curve past the domain end: the value at the end
// of the last segment plus its tangent there, scaled to input units through
// the segment's inverse width, times the overshoot.
func (o *OctaveTable) extrapolate(x uint32) int64 {
	n := segment.Unpack(&o.packed[len(o.packed)-1])
	tEnd := int64(1)<<TFracBits - 1

	end := evalCubic(&n, tEnd)
	slope := fixed.Mul(evalTangent(&n, tEnd), n.FracBits(2),
		int64(n.InvWidth), uint(n.InvWidthShift), TFracBits)

	over := int64(x) - int64(1)<<(o.originLog2+o.octaves)
	return fixed.Fma(slope, TFracBits, over, InputFracBits, end, OutFracBits, OutFracBits)
}
