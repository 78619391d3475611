package fitter

// oneCount converts raw Q8.24 input units to counts.
const oneCount = 1 << 24

// Sampling densities
const (
	// fitSamples is the number of curve samples per interval for the
	// least-squares solve. Well above the four degrees of freedom, so the
	// fit smooths sampling noise instead of interpolating it.
	fitSamples = 33

	// errSamples is the dense grid for the max-abs residual check.
	errSamples = 257

	// quadNodes is the Gauss-Legendre order for the L2 residual integral.
	// A cubic residual squared is degree six; 16 nodes integrate far
	// stiffer curves than any preset exactly enough.
	quadNodes = 16
)

// Default configuration
const (
	defaultMaxSegments     = 64
	defaultTolerance       = 1e-3
	defaultInitialSegments = 8

	// defaultMinWidth is 1/256 of a count in raw Q8.24 units.
	defaultMinWidth = 1 << 16

	// defaultTailWidth is one count in raw Q8.24 units.
	defaultTailWidth = 1 << 24
)
