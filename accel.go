package accel

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-pointer-accel/internal/fitter"
	"github.com/tphakala/go-pointer-accel/internal/fixed"
	"github.com/tphakala/go-pointer-accel/internal/spline"
)

// Hint caches lookup locality for one input stream. Keep one per device;
// never share one across concurrent callers. The zero value is valid.
type Hint = spline.Hint

// Config holds profile construction parameters.
type Config struct {
	// Curve selects the transfer function to fit.
	Curve CurveSpec

	// DomainMax is the top of the fitted input range in counts. Inputs
	// beyond it clamp (k-ary index) or extrapolate (octave index).
	// Set to 0 to use the default domain.
	DomainMax float64

	// Index selects the segment addressing strategy.
	Index IndexKind

	// Octave configures the geometry when Index is IndexOctave; ignored
	// otherwise. The geometry fixes the domain, so DomainMax is ignored
	// for octave profiles.
	Octave OctaveSpec

	// Fitter overrides the curve-fitting parameters. Leave zero to use
	// the fitter defaults.
	Fitter fitter.Config
}

// CurveSpec defines the transfer function. Users can either use a preset,
// optionally overriding individual parameters, or supply a custom function.
type CurveSpec struct {
	// Preset is a convenience setting for common acceleration feels.
	Preset CurvePreset

	// Gain is the base output/input multiplier applied by every preset.
	Gain float64

	// Reference is the speed in counts where the preset's character is
	// anchored: the linear ramp rate, the classic power-curve knee, or
	// the natural saturation constant.
	Reference float64

	// Exponent is the classic preset's power. 1 is flat, 2 is the
	// traditional polynomial feel.
	Exponent float64

	// MaxGain caps the natural preset's gain as speed grows.
	MaxGain float64

	// Custom is the transfer function for CurveCustom: input magnitude in
	// counts to output magnitude in counts, finite over the domain.
	Custom fitter.Curve
}

// CurvePreset enumerates predefined transfer functions.
type CurvePreset int

const (
	// CurveClassic is the traditional power curve: gain grows as a power
	// of speed above the reference. The default.
	CurveClassic CurvePreset = iota

	// CurveFlat applies a constant gain at every speed.
	CurveFlat

	// CurveLinear grows gain linearly with speed.
	CurveLinear

	// CurveNatural approaches a maximum gain exponentially, giving fine
	// slow-speed control with a bounded fast-speed response.
	CurveNatural

	// CurveCustom uses the user-supplied Custom function.
	CurveCustom
)

// IndexKind selects how evaluation locates a segment.
type IndexKind int

const (
	// IndexKary uses the hinted two-level k-ary search over explicit
	// knots. Works for any knot placement the fitter chooses.
	IndexKary IndexKind = iota

	// IndexOctave derives the segment from the input's leading-zero
	// count. No index memory, but segment boundaries are fixed by the
	// power-of-two geometry.
	IndexOctave
)

// OctaveSpec is the octave-index geometry: a subnormal zone below
// 2^OriginLog2 raw input units, then Octaves doubling octaves with
// 2^SegsPerOctaveLog2 segments each.
type OctaveSpec struct {
	OriginLog2        uint
	SegsPerOctaveLog2 uint
	Octaves           uint
}

// Common errors returned by the package.
var (
	// ErrInvalidConfig indicates invalid profile configuration.
	ErrInvalidConfig = errors.New("invalid accel configuration")

	// ErrInvalidProfile indicates serialized profile data that fails
	// layout validation.
	ErrInvalidProfile = errors.New("invalid accel profile data")
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DomainMax < 0 || c.DomainMax >= maxDomainCounts {
		return fmt.Errorf("%w: domain end %v counts outside [0, %v)",
			ErrInvalidConfig, c.DomainMax, float64(maxDomainCounts))
	}
	switch c.Index {
	case IndexKary:
	case IndexOctave:
		if c.Octave.Octaves == 0 {
			return fmt.Errorf("%w: octave index needs a geometry", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown index kind %d", ErrInvalidConfig, c.Index)
	}
	return c.Curve.Validate()
}

// Validate checks if the curve specification is valid.
func (s *CurveSpec) Validate() error {
	if s.Preset == CurveCustom {
		if s.Custom == nil {
			return fmt.Errorf("%w: custom curve is nil", ErrInvalidConfig)
		}
		return nil
	}

	if s.Gain < 0 || math.IsNaN(s.Gain) || math.IsInf(s.Gain, 0) {
		return fmt.Errorf("%w: gain %v", ErrInvalidConfig, s.Gain)
	}
	if s.Reference < 0 || math.IsNaN(s.Reference) {
		return fmt.Errorf("%w: reference speed %v", ErrInvalidConfig, s.Reference)
	}
	switch s.Preset {
	case CurveFlat, CurveLinear:
	case CurveClassic:
		if s.Exponent != 0 && s.Exponent < 1 {
			return fmt.Errorf("%w: classic exponent %v below 1", ErrInvalidConfig, s.Exponent)
		}
	case CurveNatural:
		if s.MaxGain != 0 && s.MaxGain < 1 {
			return fmt.Errorf("%w: natural max gain %v below 1", ErrInvalidConfig, s.MaxGain)
		}
	default:
		return fmt.Errorf("%w: unknown curve preset %d", ErrInvalidConfig, s.Preset)
	}
	return nil
}

// GetPresetSpec returns the fully populated specification for a preset.
func GetPresetSpec(preset CurvePreset) CurveSpec {
	switch preset {
	case CurveFlat:
		return CurveSpec{
			Preset: CurveFlat,
			Gain:   defaultGain,
		}
	case CurveLinear:
		return CurveSpec{
			Preset:    CurveLinear,
			Gain:      defaultGain,
			Reference: defaultLinearReference,
		}
	case CurveNatural:
		return CurveSpec{
			Preset:    CurveNatural,
			Gain:      defaultGain,
			Reference: defaultNaturalReference,
			MaxGain:   defaultNaturalMaxGain,
		}
	default:
		return CurveSpec{
			Preset:    CurveClassic,
			Gain:      defaultGain,
			Reference: defaultClassicReference,
			Exponent:  defaultClassicExponent,
		}
	}
}

// resolve fills unset preset fields with their defaults and returns the
// transfer function.
func (s CurveSpec) resolve() (CurveSpec, fitter.Curve) {
	if s.Preset == CurveCustom {
		return s, s.Custom
	}

	def := GetPresetSpec(s.Preset)
	if s.Gain == 0 {
		s.Gain = def.Gain
	}
	if s.Reference == 0 {
		s.Reference = def.Reference
	}
	if s.Exponent == 0 {
		s.Exponent = def.Exponent
	}
	if s.MaxGain == 0 {
		s.MaxGain = def.MaxGain
	}

	switch s.Preset {
	case CurveFlat:
		return s, func(x float64) float64 { return s.Gain * x }
	case CurveLinear:
		return s, func(x float64) float64 { return s.Gain * x * (1 + x/s.Reference) }
	case CurveNatural:
		return s, func(x float64) float64 {
			g := s.MaxGain - (s.MaxGain-1)*math.Exp(-x/s.Reference)
			return s.Gain * x * g
		}
	default:
		return s, func(x float64) float64 {
			return s.Gain * x * math.Pow(x/s.Reference, s.Exponent-1)
		}
	}
}

// FitReport summarizes how well the fixed-point profile tracks its source
// curve, in output counts.
type FitReport struct {
	MaxErr float64
	RMSErr float64
}

// Profile is an immutable acceleration profile: a fitted, packed spline plus
// its index. It is safe for concurrent evaluation; per-stream Hints carry
// all mutable lookup state.
type Profile struct {
	kind IndexKind
	tbl  *spline.Table
	oct  *spline.OctaveTable

	octave OctaveSpec
	report FitReport
}

// New builds a profile from the configuration: resolves the curve, fits it,
// packs the segments, and constructs the selected index.
func New(config *Config) (*Profile, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	_, curve := config.Curve.resolve()

	fcfg := config.Fitter
	if fcfg.MaxSegments == 0 {
		fcfg = fitter.DefaultConfig()
	}

	if config.Index == IndexOctave {
		knots := spline.OctaveKnots(config.Octave.OriginLog2,
			config.Octave.SegsPerOctaveLog2, config.Octave.Octaves)
		res, err := fitter.FitKnots(curve, knots)
		if err != nil {
			return nil, err
		}
		oct, err := spline.NewOctaveTable(config.Octave.OriginLog2,
			config.Octave.SegsPerOctaveLog2, config.Octave.Octaves, res.Packed)
		if err != nil {
			return nil, err
		}
		return &Profile{
			kind:   IndexOctave,
			oct:    oct,
			octave: config.Octave,
			report: FitReport{MaxErr: res.MaxErr, RMSErr: res.RMSErr},
		}, nil
	}

	domain := config.DomainMax
	if domain == 0 {
		domain = DefaultDomainMax
	}
	res, err := fitter.Fit(curve, uint32(domain*oneRaw), fcfg)
	if err != nil {
		return nil, err
	}
	tbl, err := spline.NewTable(res.Knots, res.Packed)
	if err != nil {
		return nil, err
	}
	return &Profile{
		kind:   IndexKary,
		tbl:    tbl,
		report: FitReport{MaxErr: res.MaxErr, RMSErr: res.RMSErr},
	}, nil
}

// Evaluate maps an input magnitude (Q8.24 counts) to an output magnitude
// (signed, OutputFracBits fractional bits). Allocation-free and bounded
// time; h may be nil.
func (p *Profile) Evaluate(h *Hint, input uint32) int64 {
	if p.kind == IndexOctave {
		return p.oct.Evaluate(input)
	}
	return p.tbl.Evaluate(input, h)
}

// Accelerate applies the profile to a 2D motion delta. dx and dy are signed
// Q8.24 counts; the returned deltas carry OutputFracBits fractional bits.
// The transfer function acts on the vector magnitude, so direction is
// preserved exactly and the response is isotropic.
func (p *Profile) Accelerate(h *Hint, dx, dy int64) (int64, int64) {
	sq := fixed.Mul(dy, InputFracBits, dy, InputFracBits, 2*InputFracBits)
	sq = fixed.Fma(dx, InputFracBits, dx, InputFracBits, sq, 2*InputFracBits, 2*InputFracBits)
	mag := fixed.Isqrt(sq, 2*InputFracBits, InputFracBits)
	if mag <= 0 {
		return 0, 0
	}

	input := uint32(math.MaxUint32)
	if mag < math.MaxUint32 {
		input = uint32(mag)
	}
	out := p.Evaluate(h, input)

	gain := fixed.Div(out, OutputFracBits, mag, InputFracBits, GainFracBits)
	ax := fixed.Mul(dx, InputFracBits, gain, GainFracBits, OutputFracBits)
	ay := fixed.Mul(dy, InputFracBits, gain, GainFracBits, OutputFracBits)
	return ax, ay
}

// Index returns the profile's segment addressing strategy.
func (p *Profile) Index() IndexKind { return p.kind }

// Segments returns the segment count.
func (p *Profile) Segments() int {
	if p.kind == IndexOctave {
		return p.oct.Segments()
	}
	return p.tbl.Segments()
}

// Max returns the exclusive end of the profile's raw input domain.
func (p *Profile) Max() uint32 {
	if p.kind == IndexOctave {
		return p.oct.Max()
	}
	return p.tbl.Max()
}

// Report returns the fit residual of the profile against its source curve.
func (p *Profile) Report() FitReport { return p.report }
