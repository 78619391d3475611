package fitter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-pointer-accel/internal/spline"
	"github.com/tphakala/go-pointer-accel/internal/testutil"
)

const (
	// Raw Q8.24 scale
	oneRaw = 1 << 24

	// Test domain: 16 counts
	testDomain = 16 * oneRaw

	// Slack for fixed-point quantization on top of the float fit error
	fixedSlack = 1e-5

	// Residual of an exactly representable fit, dominated by float
	// rounding in the QR solve
	exactFitTolerance = 1e-9

	// Relative tolerance at the top of the domain, where outputs are far
	// from zero
	edgeRelTolerance = 1e-6
)

// quadCurve is exactly representable by a cubic on any interval.
func quadCurve(x float64) float64 { return x + x*x/32 }

// stiffCurve has curvature concentrated near the origin.
func stiffCurve(x float64) float64 { return 4 * math.Sqrt(x) }

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero_max_segments", func(c *Config) { c.MaxSegments = 0 }},
		{"over_segment_cap", func(c *Config) { c.MaxSegments = spline.MaxSegments + 1 }},
		{"initial_above_budget", func(c *Config) { c.InitialSegments = c.MaxSegments }},
		{"zero_initial", func(c *Config) { c.InitialSegments = 0 }},
		{"zero_tolerance", func(c *Config) { c.Tolerance = 0 }},
		{"nan_tolerance", func(c *Config) { c.Tolerance = math.NaN() }},
		{"zero_min_width", func(c *Config) { c.MinWidth = 0 }},
		{"flat_tail_zero_width", func(c *Config) { c.TailWidth = 0 }},
	}

	def := DefaultConfig()
	require.NoError(t, def.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrConfig)
		})
	}
}

func TestFit_RejectsBadDomain(t *testing.T) {
	cfg := DefaultConfig()

	_, err := Fit(quadCurve, cfg.MinWidth, cfg) // below the initial grid
	assert.ErrorIs(t, err, ErrDomain)

	_, err = Fit(quadCurve, ^uint32(0), cfg) // no room for the tail
	assert.ErrorIs(t, err, ErrDomain)
}

func TestFit_RejectsNonFiniteCurve(t *testing.T) {
	bad := func(x float64) float64 { return math.Log(x - 1) } // NaN below 1
	_, err := Fit(bad, testDomain, DefaultConfig())
	assert.ErrorIs(t, err, ErrUnfittable)
}

// TestFit_QuadraticIsExact fits a curve a cubic represents exactly: no
// subdivision beyond the initial grid, and only float rounding as residual.
func TestFit_QuadraticIsExact(t *testing.T) {
	cfg := DefaultConfig()
	res, err := Fit(quadCurve, testDomain, cfg)
	require.NoError(t, err)

	assert.Len(t, res.Packed, cfg.InitialSegments+1, "initial grid plus flat tail")
	assert.Less(t, res.MaxErr, exactFitTolerance)
	assert.Less(t, res.RMSErr, exactFitTolerance)
	assert.Len(t, res.Knots, len(res.Packed)+1)

	knots := make([]int64, len(res.Knots))
	for i, k := range res.Knots {
		knots[i] = int64(k)
	}
	testutil.AssertMonotonicInt(t, knots)

	var coeffs []float64
	rms := make([]float64, len(res.Segments))
	for i, s := range res.Segments {
		coeffs = append(coeffs, s.Coeffs[:]...)
		rms[i] = s.RMS
	}
	testutil.AssertNoNaNOrInf(t, coeffs)
	testutil.AssertAllInRange(t, rms, 0, testutil.CurveTolerance)
}

// TestFit_AdaptiveSubdivision checks that a stiff curve forces refinement
// and that it lands where the curvature is.
func TestFit_AdaptiveSubdivision(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tolerance = 1e-4
	res, err := Fit(stiffCurve, testDomain, cfg)
	require.NoError(t, err)

	require.Greater(t, len(res.Packed), cfg.InitialSegments+1, "subdivision happened")

	// The narrowest segment sits in the first count of the domain, where
	// sqrt bends hardest.
	narrowest := res.Segments[0]
	for _, s := range res.Segments {
		if s.Width < narrowest.Width {
			narrowest = s
		}
	}
	assert.Less(t, narrowest.Start, uint32(oneRaw))
}

// TestFit_EndToEndFixed runs the fitted result through the fixed-point
// spline and compares against the float curve across the domain.
func TestFit_EndToEndFixed(t *testing.T) {
	cfg := DefaultConfig()
	res, err := Fit(quadCurve, testDomain, cfg)
	require.NoError(t, err)
	require.LessOrEqual(t, res.MaxErr, cfg.Tolerance)

	tbl, err := spline.NewTable(res.Knots, res.Packed)
	require.NoError(t, err)

	var hint spline.Hint
	const steps = 4096
	outputs := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		x := uint32(uint64(testDomain) * uint64(i) / steps)
		got := float64(tbl.Evaluate(x, &hint)) / oneRaw
		want := quadCurve(float64(x) / oneRaw)
		require.InDelta(t, want, got, cfg.Tolerance+fixedSlack, "x=%d", x)
		outputs = append(outputs, got)
	}

	// The curve's slope is at least one count per count, well above the
	// quantization ripple at this step size.
	testutil.AssertMonotonic(t, outputs)
}

func TestFit_FlatTail(t *testing.T) {
	cfg := DefaultConfig()
	res, err := Fit(quadCurve, testDomain, cfg)
	require.NoError(t, err)

	tail := res.Segments[len(res.Segments)-1]
	assert.Equal(t, uint32(testDomain), tail.Start)
	assert.Equal(t, cfg.TailWidth, tail.Width)
	assert.Equal(t, [4]float64{0, 0, 0, quadCurve(16)}, tail.Coeffs)
	assert.Equal(t, uint32(testDomain)+cfg.TailWidth, res.Knots[len(res.Knots)-1])
}

// TestFitKnots_OctaveGeometry fits on the octave grid and evaluates through
// the octave table; the quadratic curve is exact per segment, so the fixed
// evaluation tracks the float curve to quantization error.
func TestFitKnots_OctaveGeometry(t *testing.T) {
	const (
		originLog2 = 24
		segsLog2   = 2
		octaves    = 4
	)
	knots := spline.OctaveKnots(originLog2, segsLog2, octaves)

	res, err := FitKnots(quadCurve, knots)
	require.NoError(t, err)
	require.Equal(t, knots, res.Knots)
	require.Less(t, res.MaxErr, exactFitTolerance)

	o, err := spline.NewOctaveTable(originLog2, segsLog2, octaves, res.Packed)
	require.NoError(t, err)

	const steps = 4096
	for i := 0; i < steps; i++ {
		x := uint32(uint64(o.Max()) * uint64(i) / steps)
		got := float64(o.Evaluate(x)) / oneRaw
		want := quadCurve(float64(x) / oneRaw)
		require.InDelta(t, want, got, fixedSlack, "x=%d", x)
	}

	// Relative check at the top of the domain, where the output is largest.
	xEdge := o.Max() - 1
	gotEdge := float64(o.Evaluate(xEdge)) / oneRaw
	testutil.AssertRelativeError(t, quadCurve(float64(xEdge)/oneRaw), gotEdge, edgeRelTolerance)
}

func TestFitKnots_RejectsBadKnots(t *testing.T) {
	_, err := FitKnots(quadCurve, []uint32{0})
	assert.ErrorIs(t, err, ErrDomain)

	_, err = FitKnots(quadCurve, []uint32{0, 5, 5})
	assert.ErrorIs(t, err, ErrDomain)
}
