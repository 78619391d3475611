// Package spline maps fixed-point inputs to packed cubic segments and
// evaluates them, entirely in integer arithmetic.
//
// Two interchangeable locating strategies are provided. Table performs a
// hinted two-level k-ary search over explicit knot positions and works for
// any monotone knot sequence. OctaveTable derives the segment index and
// local parameter arithmetically from the input's leading-zero count and
// needs no stored index, but requires the power-of-two octave geometry it
// defines.
//
// A constructed table is immutable and safe for concurrent readers. A Hint
// is not: it belongs to exactly one input stream.
package spline

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-pointer-accel/internal/segment"
)

var (
	// ErrKnots indicates a knot sequence that is not strictly increasing
	// from zero or does not match the segment count.
	ErrKnots = errors.New("invalid knot sequence")

	// ErrSegmentCount indicates a segment count outside [1, MaxSegments].
	ErrSegmentCount = errors.New("invalid segment count")
)

// Table is an immutable spline with explicit knots and a two-level k-ary
// search index. The index is built once at construction: l0 narrows to one
// of nine children, l1 to one of 81 buckets, and base maps each bucket to
// its segment range for a final bounded linear scan. A cold lookup touches
// at most three cache lines regardless of segment count.
type Table struct {
	knots  []uint32
	packed []segment.Packed

	l0   [karyKeys]uint32
	l1   [karyFanout][karyKeys]uint32
	base [karyBuckets + 1]uint16
}

// Hint caches the segment found by the previous lookup on one input stream.
// Smooth input lands in the same segment or a neighbor almost always, which
// skips the k-ary descent entirely. The zero value is a valid empty hint.
//
// A Hint must not be shared across concurrent callers.
type Hint struct {
	last  uint16
	valid bool
}

// NewTable builds a spline from a knot sequence and its packed segments.
// knots must have exactly one more element than packed, start at zero, and
// be strictly increasing; knots[i] and knots[i+1] bound segment i.
func NewTable(knots []uint32, packed []segment.Packed) (*Table, error) {
	n := len(packed)
	if n < 1 || n > MaxSegments {
		return nil, fmt.Errorf("%w: %d", ErrSegmentCount, n)
	}
	if len(knots) != n+1 {
		return nil, fmt.Errorf("%w: %d knots for %d segments", ErrKnots, len(knots), n)
	}
	if knots[0] != 0 {
		return nil, fmt.Errorf("%w: first knot %d, want 0", ErrKnots, knots[0])
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] <= knots[i-1] {
			return nil, fmt.Errorf("%w: knot %d (%d) not above knot %d (%d)",
				ErrKnots, i, knots[i], i-1, knots[i-1])
		}
	}

	t := &Table{
		knots:  append([]uint32(nil), knots...),
		packed: append([]segment.Packed(nil), packed...),
	}

	// Bucket b owns segments [base[b], base[b+1]). The proportional split
	// keeps every bucket within maxBucketScan segments.
	for b := 0; b <= karyBuckets; b++ {
		t.base[b] = uint16(b * n / karyBuckets)
	}

	// Separator keys are the knots at child/bucket start positions. With
	// fewer segments than buckets some keys repeat; the greater-or-equal
	// descent below still selects the last bucket whose start is at or
	// below the input.
	for j := 0; j < karyKeys; j++ {
		t.l0[j] = t.knots[t.base[(j+1)*karyFanout]]
	}
	for c := 0; c < karyFanout; c++ {
		for j := 0; j < karyKeys; j++ {
			t.l1[c][j] = t.knots[t.base[c*karyFanout+j+1]]
		}
	}

	return t, nil
}

// Segments returns the segment count.
func (t *Table) Segments() int { return len(t.packed) }

// Knots returns the knot sequence. The slice is shared; callers must not
// modify it.
func (t *Table) Knots() []uint32 { return t.knots }

// Packed returns the packed segment records. The slice is shared; callers
// must not modify it.
func (t *Table) Packed() []segment.Packed { return t.packed }

// Max returns the exclusive domain end: the last knot.
func (t *Table) Max() uint32 { return t.knots[len(t.packed)] }

// contains reports whether x falls in segment i.
func (t *Table) contains(i int, x uint32) bool {
	return t.knots[i] <= x && x < t.knots[i+1]
}

// Lookup returns the index of the segment containing x, so that
// knots[i] <= x < knots[i+1]. Inputs at or beyond the last knot are clamped
// into the final segment.
//
// A non-nil hint is consulted first and updated on return. The hint never
// changes the result, only the path taken to it.
func (t *Table) Lookup(x uint32, h *Hint) int {
	n := len(t.packed)
	if x >= t.knots[n] {
		x = t.knots[n] - 1
	}

	if h != nil && h.valid {
		i := int(h.last)
		switch {
		case t.contains(i, x):
			return i
		case i+1 < n && t.contains(i+1, x):
			h.last = uint16(i + 1)
			return i + 1
		case i > 0 && t.contains(i-1, x):
			h.last = uint16(i - 1)
			return i - 1
		}
	}

	// Two-level descent. All eight keys are compared unconditionally at
	// each level: the trip count is fixed and the branches are uniform.
	c := 0
	for j, key := range t.l0 {
		if x >= key {
			c = j + 1
		}
	}
	d := 0
	for j, key := range t.l1[c] {
		if x >= key {
			d = j + 1
		}
	}

	b := c*karyFanout + d
	idx := int(t.base[b])
	for i := idx + 1; i < int(t.base[b+1]); i++ {
		if x >= t.knots[i] {
			idx = i
		}
	}

	if h != nil {
		h.last = uint16(idx)
		h.valid = true
	}
	return idx
}

// Evaluate maps x through the spline: locate the segment, decode it, and
// evaluate the cubic at the local parameter. Inputs beyond the domain end
// are clamped to the last representable sample; the final segments are
// fitted flat, so clamping is seamless.
//
// x is Q8.24; the result is signed with OutFracBits fractional bits.
func (t *Table) Evaluate(x uint32, h *Hint) int64 {
	n := len(t.packed)
	if x >= t.knots[n] {
		x = t.knots[n] - 1
	}
	idx := t.Lookup(x, h)
	seg := segment.Unpack(&t.packed[idx])
	return evalCubic(&seg, localParam(x-t.knots[idx], &seg))
}
