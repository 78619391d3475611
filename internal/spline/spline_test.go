package spline

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-pointer-accel/internal/segment"
)

const (
	// Fuzz trial counts
	lookupTrials = 10000
	hintTrials   = 10000

	// Deterministic seeds so failures reproduce
	lookupSeed = 0x5b110001
	hintSeed   = 0x5b110002
	knotSeed   = 0x5b110003

	// Raw Q8.24 scale
	oneCount = 1 << InputFracBits

	// Octave test geometry: origin 1.0, 4 segments per octave, 5 octaves
	// above the origin, domain end 32.0.
	testOriginLog2 = 24
	testSegsLog2   = 2
	testOctaves    = 5
)

// packCurve builds one packed segment of the curve described by the local
// cubic coefficients over a segment of the given width in counts.
func packCurve(t testing.TB, coeffs [4]float64, width float64) segment.Packed {
	t.Helper()
	n, err := segment.FromFloat(coeffs, width)
	require.NoError(t, err)
	p, err := segment.Pack(&n)
	require.NoError(t, err)
	return p
}

// linearTable builds an explicit-knot spline for y = slope*x over uniform
// quarter-count segments covering [0, 4).
func linearTable(t testing.TB, slope float64) *Table {
	t.Helper()
	const (
		segments = 16
		widthRaw = oneCount / 4
	)

	knots := make([]uint32, segments+1)
	packed := make([]segment.Packed, segments)
	for i := range packed {
		knots[i] = uint32(i * widthRaw)
		x0 := float64(knots[i]) / oneCount
		w := float64(widthRaw) / oneCount
		packed[i] = packCurve(t, [4]float64{0, 0, slope * w, slope * x0}, w)
	}
	knots[segments] = segments * widthRaw

	tbl, err := NewTable(knots, packed)
	require.NoError(t, err)
	return tbl
}

// identityOctave builds an octave spline for y = x over the test geometry.
func identityOctave(t testing.TB) *OctaveTable {
	t.Helper()
	knots := octaveKnotsFor(testOriginLog2, testSegsLog2, testOctaves)
	packed := make([]segment.Packed, len(knots)-1)
	for i := range packed {
		x0 := float64(knots[i]) / oneCount
		w := float64(knots[i+1]-knots[i]) / oneCount
		packed[i] = packCurve(t, [4]float64{0, 0, w, x0}, w)
	}
	o, err := NewOctaveTable(testOriginLog2, testSegsLog2, testOctaves, packed)
	require.NoError(t, err)
	return o
}

// octaveKnotsFor computes the knot sequence of the geometry independently of
// OctaveTable.Knots, so the two can be checked against each other.
func octaveKnotsFor(originLog2, segsLog2, octaves uint) []uint32 {
	var knots []uint32
	x := uint64(0)
	appendZone := func(width uint64) {
		for s := 0; s < 1<<segsLog2; s++ {
			knots = append(knots, uint32(x))
			x += width
		}
	}
	appendZone(1 << (originLog2 - segsLog2))
	for k := uint(0); k < octaves; k++ {
		appendZone(1 << (originLog2 + k - segsLog2))
	}
	return append(knots, uint32(x))
}

// randomTable builds a spline with a random strictly increasing knot
// sequence and flat segments; only the index structure matters to lookups.
func randomTable(t testing.TB, rng *rand.Rand, segments int) *Table {
	t.Helper()
	knots := make([]uint32, segments+1)
	for i := 1; i <= segments; i++ {
		knots[i] = knots[i-1] + 1 + uint32(rng.Uint64N(1<<23))
	}
	packed := make([]segment.Packed, segments)
	for i := range packed {
		w := float64(knots[i+1]-knots[i]) / oneCount
		packed[i] = packCurve(t, [4]float64{0, 0, 0, 1}, w)
	}
	tbl, err := NewTable(knots, packed)
	require.NoError(t, err)
	return tbl
}

func TestNewTable_Validation(t *testing.T) {
	flat := func(w float64) segment.Packed { return packCurve(t, [4]float64{0, 0, 0, 1}, w) }
	one := []segment.Packed{flat(1)}

	tests := []struct {
		name   string
		knots  []uint32
		packed []segment.Packed
		err    error
	}{
		{"no_segments", []uint32{0}, nil, ErrSegmentCount},
		{"too_many_segments", make([]uint32, MaxSegments+2), make([]segment.Packed, MaxSegments+1), ErrSegmentCount},
		{"knot_count_mismatch", []uint32{0, 1, 2}, one, ErrKnots},
		{"first_knot_nonzero", []uint32{1, 2}, one, ErrKnots},
		{"non_monotonic", []uint32{0, 5, 5}, []segment.Packed{flat(1), flat(1)}, ErrKnots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.knots, tt.packed)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewOctaveTable_Validation(t *testing.T) {
	good := identityOctave(t)
	count := good.Segments()
	packed := make([]segment.Packed, count)
	copy(packed, good.packed)

	tests := []struct {
		name       string
		originLog2 uint
		segsLog2   uint
		octaves    uint
		packed     []segment.Packed
		err        error
	}{
		{"segments_finer_than_origin", 2, 3, 5, packed, ErrGeometry},
		{"zero_octaves", testOriginLog2, testSegsLog2, 0, packed, ErrGeometry},
		{"domain_end_unrepresentable", 28, 2, 5, packed, ErrGeometry},
		{"segment_count_mismatch", testOriginLog2, testSegsLog2, testOctaves, packed[:count-1], ErrSegmentCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOctaveTable(tt.originLog2, tt.segsLog2, tt.octaves, tt.packed)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestLookup_Invariant_Kary fuzzes the containment invariant: the returned
// segment i always satisfies knots[i] <= x < knots[i+1] for in-domain x.
func TestLookup_Invariant_Kary(t *testing.T) {
	rng := rand.New(rand.NewPCG(lookupSeed, 0))

	for _, segments := range []int{1, 3, 16, 81, 100, MaxSegments} {
		tbl := randomTable(t, rng, segments)
		vMax := tbl.Max()

		for range lookupTrials {
			x := uint32(rng.Uint64N(uint64(vMax)))
			i := tbl.Lookup(x, nil)
			require.LessOrEqual(t, tbl.knots[i], x, "segments=%d x=%d i=%d", segments, x, i)
			require.Less(t, x, tbl.knots[i+1], "segments=%d x=%d i=%d", segments, x, i)
		}

		// Boundary pins: every knot starts its own segment.
		for i := 0; i < segments; i++ {
			require.Equal(t, i, tbl.Lookup(tbl.knots[i], nil))
		}
		require.Equal(t, segments-1, tbl.Lookup(vMax-1, nil))
		require.Equal(t, segments-1, tbl.Lookup(vMax, nil), "clamped")
	}
}

// TestLookup_Invariant_Octave checks the same containment invariant for the
// closed-form octave locator against the materialized knot sequence.
func TestLookup_Invariant_Octave(t *testing.T) {
	o := identityOctave(t)
	knots := o.Knots()
	require.Equal(t, octaveKnotsFor(testOriginLog2, testSegsLog2, testOctaves), knots)

	rng := rand.New(rand.NewPCG(lookupSeed, 1))
	for range lookupTrials {
		x := uint32(rng.Uint64N(uint64(o.Max())))
		i, tp := o.locate(x)
		require.LessOrEqual(t, knots[i], x, "x=%d i=%d", x, i)
		require.Less(t, x, knots[i+1], "x=%d i=%d", x, i)
		require.GreaterOrEqual(t, tp, int64(0))
		require.Less(t, tp, int64(1)<<TFracBits)
	}

	for i := 0; i < o.Segments(); i++ {
		gotIdx, gotT := o.locate(knots[i])
		require.Equal(t, i, gotIdx)
		require.Zero(t, gotT, "segment start has t=0")
	}
}

// TestLookup_HintPure verifies the hint is a pure optimization: for every
// input, the hinted lookup returns exactly what a from-scratch search does.
func TestLookup_HintPure(t *testing.T) {
	rng := rand.New(rand.NewPCG(hintSeed, 0))
	tbl := randomTable(t, rng, 100)
	vMax := uint64(tbl.Max())

	var hint Hint
	x := uint32(0)
	for range hintTrials {
		// Mostly small steps so the hint hits, with occasional far jumps
		// to force full descents from a stale hint.
		if rng.Uint64N(16) == 0 {
			x = uint32(rng.Uint64N(vMax))
		} else {
			x += uint32(rng.Uint64N(1 << 20))
			if uint64(x) >= vMax {
				x = 0
			}
		}

		want := tbl.Lookup(x, nil)
		got := tbl.Lookup(x, &hint)
		require.Equal(t, want, got, "x=%d", x)
		require.True(t, hint.valid)
		require.Equal(t, uint16(want), hint.last, "hint tracks the result")
	}
}

// TestEvaluate_Linear pins the whole pipeline on y = 2x, which the segment
// format represents exactly: lookup, decode, local parameter, and Horner
// must compose with no rounding error at all.
func TestEvaluate_Linear(t *testing.T) {
	tbl := linearTable(t, 2.0)
	rng := rand.New(rand.NewPCG(lookupSeed, 2))

	var hint Hint
	for range lookupTrials {
		x := uint32(rng.Uint64N(uint64(tbl.Max())))
		assert.Equal(t, int64(2)*int64(x), tbl.Evaluate(x, &hint), "x=%d", x)
	}
	assert.Equal(t, int64(0), tbl.Evaluate(0, nil))
}

// TestEvaluate_ClampsBeyondDomain checks that out-of-domain inputs behave as
// if clamped to the last representable sample.
func TestEvaluate_ClampsBeyondDomain(t *testing.T) {
	tbl := linearTable(t, 2.0)
	vMax := tbl.Max()

	want := tbl.Evaluate(vMax-1, nil)
	for _, x := range []uint32{vMax, vMax + 1, vMax << 1, ^uint32(0)} {
		assert.Equal(t, want, tbl.Evaluate(x, nil), "x=%d", x)
	}
}

// TestOctave_EvaluateIdentity pins the octave pipeline on y = x, exact in
// the segment format across the subnormal zone and every octave.
func TestOctave_EvaluateIdentity(t *testing.T) {
	o := identityOctave(t)
	rng := rand.New(rand.NewPCG(lookupSeed, 3))

	for range lookupTrials {
		x := uint32(rng.Uint64N(uint64(o.Max())))
		assert.Equal(t, int64(x), o.Evaluate(x), "x=%d", x)
	}
	assert.Equal(t, int64(0), o.Evaluate(0))
}

// TestOctave_ExtrapolatesLinearly checks that inputs past the last octave
// continue along the final segment's tangent. On the identity curve the
// tangent is exactly one, so extrapolation reproduces the input.
func TestOctave_ExtrapolatesLinearly(t *testing.T) {
	o := identityOctave(t)
	vMax := o.Max()

	for _, x := range []uint32{vMax, vMax + 1, vMax + oneCount, vMax << 2, ^uint32(0)} {
		assert.Equal(t, int64(x), o.Evaluate(x), "x=%d", x)
	}
}

func BenchmarkEvaluate_KaryHinted(b *testing.B) {
	tbl := linearTable(b, 2.0)
	var hint Hint
	x := uint32(0)

	for b.Loop() {
		_ = tbl.Evaluate(x, &hint)
		x += 1 << 12
		if x >= tbl.Max() {
			x = 0
		}
	}
}

func BenchmarkEvaluate_Octave(b *testing.B) {
	o := identityOctave(b)
	x := uint32(0)

	for b.Loop() {
		_ = o.Evaluate(x)
		x += 1 << 12
		if x >= o.Max() {
			x = 0
		}
	}
}
