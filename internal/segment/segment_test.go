package segment

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Fuzz trial counts
	roundTripTrials = 10000
	fromFloatTrials = 2000

	// Deterministic seeds so failures reproduce
	roundTripSeed = 0x5e910001
	fromFloatSeed = 0x5e910002

	// Relative tolerance for float reconstruction of a 44-bit mantissa
	coeffRelTolerance = 1e-12

	// Total bits in a packed record
	packedBits = 256
)

func TestPackUnpack_KnownSegment(t *testing.T) {
	n := Normalized{
		Coeffs:        [4]int64{-(1 << 43), 1<<43 + 12345, 1 << 44, 1<<45 + 99},
		Shifts:        [4]int32{-3, 0, 7, -12},
		InvWidth:      1 << 43,
		InvWidthShift: 20,
	}

	p, err := Pack(&n)
	require.NoError(t, err)

	got := Unpack(&p)
	assert.Equal(t, n, got)
}

// TestUnpackPack_RoundTrip_Fuzz verifies pack(unpack(p)) == p for random
// 256-bit patterns: the codec is a bijection on the full wire space.
func TestUnpackPack_RoundTrip_Fuzz(t *testing.T) {
	rng := rand.New(rand.NewPCG(roundTripSeed, 0))

	for range roundTripTrials {
		var p Packed
		for w := range p {
			p[w] = rng.Uint64()
		}

		n := Unpack(&p)
		back, err := Pack(&n)
		require.NoError(t, err, "unpacked fields are in range by construction")
		require.Equal(t, p, back, "p=%#x", p)
	}
}

// TestPackUnpack_RoundTrip_Fuzz verifies unpack(pack(s)) == s for random
// representable normalized segments.
func TestPackUnpack_RoundTrip_Fuzz(t *testing.T) {
	rng := rand.New(rand.NewPCG(roundTripSeed, 1))

	for range roundTripTrials {
		n := Normalized{
			Coeffs: [4]int64{
				int64(rng.Uint64N(1<<45)) - 1<<44,
				int64(rng.Uint64N(1<<45)) - 1<<44,
				int64(rng.Uint64N(1 << 45)),
				int64(rng.Uint64N(1 << 46)),
			},
			Shifts: [4]int32{
				int32(rng.UintN(64)) - 32,
				int32(rng.UintN(64)) - 32,
				int32(rng.UintN(64)) - 32,
				int32(rng.UintN(128)) - 64,
			},
			InvWidth:      rng.Uint64N(1 << invWidthBits),
			InvWidthShift: uint32(rng.UintN(64)),
		}

		p, err := Pack(&n)
		require.NoError(t, err)
		require.Equal(t, n, Unpack(&p), "n=%+v", n)
	}
}

// TestBitIsolation sets exactly one bit of a packed segment and checks that
// exactly one decoded field changes, for all 256 bit positions.
func TestBitIsolation(t *testing.T) {
	var zero Packed
	base := Unpack(&zero)

	for bit := range packedBits {
		var p Packed
		p[bit/64] = 1 << (bit % 64)
		n := Unpack(&p)

		changed := 0
		for i := range 4 {
			if n.Coeffs[i] != base.Coeffs[i] {
				changed++
			}
			if n.Shifts[i] != base.Shifts[i] {
				changed++
			}
		}
		if n.InvWidth != base.InvWidth {
			changed++
		}
		if n.InvWidthShift != base.InvWidthShift {
			changed++
		}

		require.Equal(t, 1, changed, "bit %d affected %d fields", bit, changed)
	}
}

func TestPack_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Normalized)
	}{
		{"coeff0_too_large", func(n *Normalized) { n.Coeffs[0] = 1 << 44 }},
		{"coeff0_too_small", func(n *Normalized) { n.Coeffs[0] = -(1<<44 + 1) }},
		{"coeff2_negative", func(n *Normalized) { n.Coeffs[2] = -1 }},
		{"coeff3_too_large", func(n *Normalized) { n.Coeffs[3] = 1 << 46 }},
		{"shift_too_large", func(n *Normalized) { n.Shifts[1] = 32 }},
		{"shift3_too_small", func(n *Normalized) { n.Shifts[3] = -65 }},
		{"inv_width_too_wide", func(n *Normalized) { n.InvWidth = 1 << invWidthBits }},
		{"inv_shift_too_large", func(n *Normalized) { n.InvWidthShift = 64 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalized{}
			tt.mutate(&n)
			_, err := Pack(&n)
			assert.ErrorIs(t, err, ErrFieldRange)
		})
	}
}

func TestFromFloat_Reconstruction(t *testing.T) {
	coeffs := [4]float64{-0.125, 2.5, 0.75, 1.0}
	n, err := FromFloat(coeffs, 0.5)
	require.NoError(t, err)

	for i, want := range coeffs {
		assert.InEpsilon(t, want, n.CoeffFloat(i), coeffRelTolerance, "coeff %d", i)
	}
	assert.InEpsilon(t, 2.0, n.InvWidthFloat(), coeffRelTolerance, "inverse width")

	// Round-trips through the wire form unchanged.
	p, err := Pack(&n)
	require.NoError(t, err)
	assert.Equal(t, n, Unpack(&p))
}

func TestFromFloat_Fuzz(t *testing.T) {
	rng := rand.New(rand.NewPCG(fromFloatSeed, 0))

	for range fromFloatTrials {
		coeffs := [4]float64{
			(rng.Float64() - 0.5) * 1e4,
			(rng.Float64() - 0.5) * 1e4,
			rng.Float64() * 1e4,
			rng.Float64() * 1e4,
		}
		width := math.Ldexp(rng.Float64()+0.5, int(rng.UintN(16))-8)

		n, err := FromFloat(coeffs, width)
		require.NoError(t, err)

		for i, want := range coeffs {
			if want == 0 {
				continue
			}
			require.InEpsilon(t, want, n.CoeffFloat(i), coeffRelTolerance,
				"coeff %d of %v", i, coeffs)
		}
		require.InEpsilon(t, 1.0/width, n.InvWidthFloat(), coeffRelTolerance)

		p, err := Pack(&n)
		require.NoError(t, err)
		require.Equal(t, n, Unpack(&p))
	}
}

func TestFromFloat_DenormalCoefficient(t *testing.T) {
	// Far below the normalizable range: stored denormal, reconstructed at
	// maximum precision without an implicit leading bit.
	tiny := math.Ldexp(1, -40)
	n, err := FromFloat([4]float64{tiny, -tiny, 0, 1}, 1.0)
	require.NoError(t, err)

	assert.Equal(t, int32(-32), n.Shifts[0], "denormal sentinel")
	assert.Equal(t, int32(-32), n.Shifts[1])
	assert.Equal(t, uint(63), n.FracBits(0))
	assert.InEpsilon(t, tiny, n.CoeffFloat(0), coeffRelTolerance)
	assert.InEpsilon(t, -tiny, n.CoeffFloat(1), coeffRelTolerance)

	// Zero is stored as a denormal with a zero mantissa.
	assert.Equal(t, int64(0), n.Coeffs[2])
	assert.Equal(t, sentinelShift(2), n.Shifts[2])
}

func TestFromFloat_SaturatesHugeCoefficient(t *testing.T) {
	huge := math.Ldexp(1, 50)
	n, err := FromFloat([4]float64{huge, 0, 0, 0}, 1.0)
	require.NoError(t, err)

	assert.Equal(t, int32(minNormShift), n.Shifts[0])
	assert.Equal(t, int64(1)<<44-1, n.Coeffs[0], "mantissa saturated")
}

func TestFromFloat_RejectsBadWidth(t *testing.T) {
	for _, w := range []float64{0, -1, math.Inf(1), math.NaN(), math.Ldexp(1, 80)} {
		_, err := FromFloat([4]float64{0, 0, 0, 1}, w)
		assert.ErrorIs(t, err, ErrBadWidth, "width %v", w)
	}
}

func BenchmarkUnpack(b *testing.B) {
	n := Normalized{
		Coeffs:        [4]int64{-123456789, 987654321, 1 << 40, 1 << 41},
		Shifts:        [4]int32{5, -3, 10, 2},
		InvWidth:      1 << 42,
		InvWidthShift: 30,
	}
	p, err := Pack(&n)
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		_ = Unpack(&p)
	}
}
