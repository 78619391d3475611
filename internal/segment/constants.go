package segment

// Wire format dimensions
const (
	// packedWords is the number of 64-bit words in a packed segment.
	packedWords = 4

	// PackedBytes is the wire size of one packed segment.
	PackedBytes = 32

	// invWidthBits is the width of the inverse-width mantissa, scattered
	// across the four words as 13+13+13+5 bit fragments.
	invWidthBits = 44
)

// Coefficient scale semantics
const (
	// coeffFracBase maps a stored relative shift s to a fractional-bit
	// count: frac = coeffFracBase + s. The 6-bit shift range [-32, 31]
	// therefore spans the full valid precision range [0, 63], with the
	// minimum reserved as the denormal sentinel.
	coeffFracBase = 32

	// denormFracBits is the precision of a denormal mantissa: maximum,
	// with no normalization and no assumed leading bit.
	denormFracBits = 63

	// minNormShift and maxNormShift bound the shifts the float-side
	// normalizer may produce. The lower bound keeps one value clear of
	// the 6-bit sentinel; the upper bound keeps frac within the
	// representable range while leaving denormal headroom.
	minNormShift = -31
	maxNormShift = 31
)

// Mantissa significant widths used by the normalizer: one less than the
// field width for the signed fields (sign bit), the full field width for
// the unsigned ones.
var coeffMagBits = [4]uint{44, 44, 45, 46}
