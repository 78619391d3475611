package spline

// Fixed Q formats of the spline wire contract. These are constants of the
// format, not tunables: knots and inputs are Q8.24, the local segment
// parameter is Q0.32, and outputs are signed with 24 fractional bits.
const (
	// InputFracBits is the precision of knots and evaluation inputs.
	InputFracBits = 24

	// TFracBits is the precision of the local parameter t in [0, 1).
	TFracBits = 32

	// OutFracBits is the precision of evaluation results.
	OutFracBits = 24
)

// k-ary search geometry
const (
	// karyFanout is the branch factor per level.
	karyFanout = 9

	// karyKeys is the number of comparison keys per node.
	karyKeys = karyFanout - 1

	// karyBuckets is the leaf bucket count after two levels.
	karyBuckets = karyFanout * karyFanout
)

// Capacity limits
const (
	// MaxSegments bounds the segment count of any spline. Together with
	// the two-level table it caps a cold lookup at three cache-line
	// touches regardless of segment count.
	MaxSegments = 256

	// maxBucketScan is the widest bucket a full table can produce; the
	// final linear scan never exceeds it.
	maxBucketScan = (MaxSegments + karyBuckets - 1) / karyBuckets

	// octaveTopMax caps the octave domain end at 2^31 raw so the end
	// itself stays representable and the extrapolation zone reachable.
	octaveTopMax = 31
)
