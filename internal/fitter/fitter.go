// Package fitter converts a continuous floating-point transfer curve into
// packed cubic segments for the fixed-point evaluator.
//
// This is the offline side of the pipeline: it may allocate, use floats, and
// take its time. Each interval is fitted by least squares in the local
// parameter t over [0, 1), its error measured on a dense grid and by
// Gauss-Legendre quadrature, and the worst interval subdivided until the
// curve is within tolerance or the segment budget is spent.
package fitter

import (
	"cmp"
	"container/heap"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/tphakala/go-pointer-accel/internal/segment"
	"github.com/tphakala/go-pointer-accel/internal/simdops"
	"github.com/tphakala/go-pointer-accel/internal/spline"
)

// Curve is a transfer function in count units: it maps an input magnitude in
// [0, domain end) to an output magnitude. It must be finite over the fitted
// domain; it is never called outside it.
type Curve func(x float64) float64

var (
	// ErrConfig indicates an invalid fitter configuration.
	ErrConfig = errors.New("invalid fitter config")

	// ErrDomain indicates a fitting domain too small for the configured
	// initial grid.
	ErrDomain = errors.New("invalid fitting domain")

	// ErrUnfittable indicates a curve the segment format cannot carry,
	// such as one with non-finite samples.
	ErrUnfittable = errors.New("curve cannot be fitted")
)

// Config controls the adaptive fit.
type Config struct {
	// MaxSegments caps the total segment count, flat tail included.
	MaxSegments int

	// Tolerance is the target maximum absolute error in output counts.
	// Subdivision stops early once every interval is within it.
	Tolerance float64

	// InitialSegments is the uniform starting grid.
	InitialSegments int

	// MinWidth is the narrowest interval subdivision may produce, in raw
	// Q8.24 input units.
	MinWidth uint32

	// FlatTail appends one constant segment past the domain end, so that
	// clamped out-of-domain evaluation is exact.
	FlatTail bool

	// TailWidth is the raw width of the flat tail segment.
	TailWidth uint32
}

// DefaultConfig returns the fitter configuration used by the presets.
func DefaultConfig() Config {
	return Config{
		MaxSegments:     defaultMaxSegments,
		Tolerance:       defaultTolerance,
		InitialSegments: defaultInitialSegments,
		MinWidth:        defaultMinWidth,
		FlatTail:        true,
		TailWidth:       defaultTailWidth,
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	tail := 0
	if c.FlatTail {
		tail = 1
		if c.TailWidth == 0 {
			return fmt.Errorf("%w: flat tail with zero width", ErrConfig)
		}
	}
	if c.MaxSegments < 1 || c.MaxSegments > spline.MaxSegments {
		return fmt.Errorf("%w: max segments %d outside [1, %d]",
			ErrConfig, c.MaxSegments, spline.MaxSegments)
	}
	if c.InitialSegments < 1 || c.InitialSegments > c.MaxSegments-tail {
		return fmt.Errorf("%w: initial segments %d with budget %d",
			ErrConfig, c.InitialSegments, c.MaxSegments-tail)
	}
	if c.Tolerance <= 0 || math.IsNaN(c.Tolerance) {
		return fmt.Errorf("%w: tolerance %v", ErrConfig, c.Tolerance)
	}
	if c.MinWidth == 0 {
		return fmt.Errorf("%w: zero minimum width", ErrConfig)
	}
	return nil
}

// FloatSegment is one fitted interval at the collaborator boundary: local
// cubic coefficients (cubic term first) over t in [0, 1) and the interval's
// raw position.
type FloatSegment struct {
	Start  uint32
	Width  uint32
	Coeffs [4]float64

	// RMS is the root-mean-square residual of this segment on the dense
	// error grid, in output counts. Reported by the analysis tooling.
	RMS float64
}

// Result is a completed fit: the knot sequence and packed segments ready for
// spline construction, the float-side segments for analysis, and the
// residual error of the whole fit.
type Result struct {
	Knots    []uint32
	Packed   []segment.Packed
	Segments []FloatSegment

	// MaxErr is the largest absolute residual seen on any interval's
	// error grid; RMSErr aggregates the quadrature L2 residual over the
	// fitted domain.
	MaxErr float64
	RMSErr float64
}

// interval is one fitting interval in the subdivision queue.
type interval struct {
	lo, hi  uint32
	coeffs  [4]float64
	maxErr  float64
	gridRMS float64
	l2Sq    float64 // integral of squared residual, count units
}

// intervalHeap orders intervals worst-first by grid error.
type intervalHeap []*interval

func (h intervalHeap) Len() int            { return len(h) }
func (h intervalHeap) Less(i, j int) bool  { return h[i].maxErr > h[j].maxErr }
func (h intervalHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *intervalHeap) Push(x any)         { *h = append(*h, x.(*interval)) }
func (h *intervalHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Fit adaptively fits the curve over [0, domainMax) raw input units.
func Fit(curve Curve, domainMax uint32, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if uint64(domainMax) < uint64(cfg.InitialSegments)*uint64(cfg.MinWidth) {
		return nil, fmt.Errorf("%w: end %d below %d segments of width %d",
			ErrDomain, domainMax, cfg.InitialSegments, cfg.MinWidth)
	}
	if cfg.FlatTail && uint64(domainMax)+uint64(cfg.TailWidth) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: end %d leaves no room for the flat tail",
			ErrDomain, domainMax)
	}

	budget := cfg.MaxSegments
	if cfg.FlatTail {
		budget--
	}

	h := make(intervalHeap, 0, budget)
	prev := uint32(0)
	for i := 1; i <= cfg.InitialSegments; i++ {
		bound := uint32(uint64(domainMax) * uint64(i) / uint64(cfg.InitialSegments))
		it, err := fitInterval(curve, prev, bound)
		if err != nil {
			return nil, err
		}
		h = append(h, it)
		prev = bound
	}
	heap.Init(&h)

	// Worst-first refinement. An interval within tolerance, or too narrow
	// to split, retires; everything else splits at its midpoint until the
	// budget is spent.
	done := make([]*interval, 0, budget)
	for h.Len() > 0 && h.Len()+len(done) < budget {
		worst := heap.Pop(&h).(*interval)
		if worst.maxErr <= cfg.Tolerance || worst.hi-worst.lo < 2*cfg.MinWidth {
			done = append(done, worst)
			continue
		}
		mid := worst.lo + (worst.hi-worst.lo)/2
		left, err := fitInterval(curve, worst.lo, mid)
		if err != nil {
			return nil, err
		}
		right, err := fitInterval(curve, mid, worst.hi)
		if err != nil {
			return nil, err
		}
		heap.Push(&h, left)
		heap.Push(&h, right)
	}
	done = append(done, h...)

	if cfg.FlatTail {
		level := curve(float64(domainMax) / oneCount)
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return nil, fmt.Errorf("%w: non-finite tail level", ErrUnfittable)
		}
		done = append(done, &interval{
			lo:     domainMax,
			hi:     domainMax + cfg.TailWidth,
			coeffs: [4]float64{0, 0, 0, level},
		})
	}

	slices.SortFunc(done, func(a, b *interval) int {
		return cmp.Compare(a.lo, b.lo)
	})
	return assemble(done, domainMax)
}

// FitKnots fits one cubic per interval of a fixed knot sequence, with no
// subdivision. Used for octave-addressed splines, whose segment boundaries
// are dictated by the geometry.
func FitKnots(curve Curve, knots []uint32) (*Result, error) {
	if len(knots) < 2 {
		return nil, fmt.Errorf("%w: %d knots", ErrDomain, len(knots))
	}
	intervals := make([]*interval, len(knots)-1)
	for i := range intervals {
		if knots[i+1] <= knots[i] {
			return nil, fmt.Errorf("%w: knot %d not increasing", ErrDomain, i+1)
		}
		it, err := fitInterval(curve, knots[i], knots[i+1])
		if err != nil {
			return nil, err
		}
		intervals[i] = it
	}
	return assemble(intervals, knots[len(knots)-1])
}

// assemble packs sorted intervals into a Result.
func assemble(intervals []*interval, domainMax uint32) (*Result, error) {
	res := &Result{
		Knots:    make([]uint32, 0, len(intervals)+1),
		Packed:   make([]segment.Packed, 0, len(intervals)),
		Segments: make([]FloatSegment, 0, len(intervals)),
	}

	var l2Total float64
	for _, it := range intervals {
		width := float64(it.hi-it.lo) / oneCount
		n, err := segment.FromFloat(it.coeffs, width)
		if err != nil {
			return nil, fmt.Errorf("%w: interval [%d, %d): %w",
				ErrUnfittable, it.lo, it.hi, err)
		}
		p, err := segment.Pack(&n)
		if err != nil {
			return nil, fmt.Errorf("%w: interval [%d, %d): %w",
				ErrUnfittable, it.lo, it.hi, err)
		}

		res.Knots = append(res.Knots, it.lo)
		res.Packed = append(res.Packed, p)
		res.Segments = append(res.Segments, FloatSegment{
			Start:  it.lo,
			Width:  it.hi - it.lo,
			Coeffs: it.coeffs,
			RMS:    it.gridRMS,
		})
		res.MaxErr = math.Max(res.MaxErr, it.maxErr)
		l2Total += it.l2Sq
	}
	res.Knots = append(res.Knots, intervals[len(intervals)-1].hi)
	res.RMSErr = math.Sqrt(l2Total / (float64(domainMax) / oneCount))
	return res, nil
}

// fitInterval least-squares fits one cubic over [lo, hi) and measures its
// residual.
func fitInterval(curve Curve, lo, hi uint32) (*interval, error) {
	x0 := float64(lo) / oneCount
	width := float64(hi-lo) / oneCount

	// Vandermonde least squares in the local parameter: rows are
	// [t^3, t^2, t, 1], solved by QR.
	a := mat.NewDense(fitSamples, 4, nil)
	b := mat.NewVecDense(fitSamples, nil)
	for i := 0; i < fitSamples; i++ {
		t := float64(i) / float64(fitSamples-1)
		y := curve(x0 + t*width)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: non-finite sample at x=%v",
				ErrUnfittable, x0+t*width)
		}
		a.Set(i, 0, t*t*t)
		a.Set(i, 1, t*t)
		a.Set(i, 2, t)
		a.Set(i, 3, 1)
		b.SetVec(i, y)
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnfittable, err)
	}
	it := &interval{lo: lo, hi: hi}
	for i := range it.coeffs {
		it.coeffs[i] = sol.AtVec(i)
	}

	residual(curve, it)
	return it, nil
}

// residual measures an interval's fit error three ways: maximum absolute
// residual on a dense grid (the tolerance and subdivision control), the grid
// RMS (per-segment reporting), and the integral of the squared residual by
// Gauss-Legendre quadrature (the aggregate RMS metric).
func residual(curve Curve, it *interval) {
	x0 := float64(it.lo) / oneCount
	width := float64(it.hi-it.lo) / oneCount
	poly := func(t float64) float64 {
		c := &it.coeffs
		return ((c[0]*t+c[1])*t+c[2])*t + c[3]
	}

	resid := make([]float64, errSamples)
	for i := range resid {
		t := float64(i) / float64(errSamples-1)
		resid[i] = poly(t) - curve(x0+t*width)
	}
	it.maxErr = floats.Norm(resid, math.Inf(1))

	ops := simdops.Float64Ops()
	it.gridRMS = math.Sqrt(ops.DotProductUnsafe(resid, resid) / float64(len(resid)))

	it.l2Sq = quad.Fixed(func(x float64) float64 {
		d := poly((x - x0) / width)
		d -= curve(x)
		return d * d
	}, x0, x0+width, quadNodes, nil, 0)
}
