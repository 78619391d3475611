package accel

import "github.com/tphakala/go-pointer-accel/internal/spline"

// Fixed-point formats of the public interface. These are constants of the
// profile wire format, not tunables.
const (
	// InputFracBits is the precision of input magnitudes and deltas
	// (Q8.24 counts).
	InputFracBits = spline.InputFracBits

	// OutputFracBits is the precision of output magnitudes and deltas.
	OutputFracBits = spline.OutFracBits

	// GainFracBits is the precision of the per-event gain derived inside
	// Accelerate (Q0.32-style, signed).
	GainFracBits = 32
)

// Domain limits
const (
	// DefaultDomainMax is the default fitted input range in counts.
	DefaultDomainMax = 128.0

	// maxDomainCounts bounds DomainMax so the domain plus the fitter's
	// flat tail stays representable in raw Q8.24.
	maxDomainCounts = 255

	// oneRaw converts counts to raw Q8.24 units.
	oneRaw = 1 << InputFracBits
)

// Preset curve parameters
const (
	// defaultGain is the base multiplier shared by all presets.
	defaultGain = 1.0

	// defaultLinearReference is the speed in counts at which the linear
	// preset has doubled its gain.
	defaultLinearReference = 8.0

	// defaultClassicReference is the classic power curve's knee: below
	// it the curve attenuates, above it accelerates.
	defaultClassicReference = 10.0

	// defaultClassicExponent is the traditional quadratic feel.
	defaultClassicExponent = 2.0

	// defaultNaturalReference is the natural preset's saturation speed
	// constant in counts.
	defaultNaturalReference = 12.0

	// defaultNaturalMaxGain is the gain the natural preset approaches at
	// high speed.
	defaultNaturalMaxGain = 4.0
)
