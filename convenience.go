package accel

// NewDefault creates a profile with the classic power curve and default
// parameters, the equivalent of a typical desktop acceleration setting.
func NewDefault() (*Profile, error) {
	return New(&Config{
		Curve: CurveSpec{Preset: CurveClassic},
	})
}

// NewFlat creates a profile applying a constant gain at every speed, for
// users who want scaling without acceleration.
func NewFlat(gain float64) (*Profile, error) {
	return New(&Config{
		Curve: CurveSpec{Preset: CurveFlat, Gain: gain},
	})
}

// NewClassic creates a classic power-curve profile: gain grows as
// speed^(exponent-1) around the reference speed in counts.
func NewClassic(gain, exponent, reference float64) (*Profile, error) {
	return New(&Config{
		Curve: CurveSpec{
			Preset:    CurveClassic,
			Gain:      gain,
			Exponent:  exponent,
			Reference: reference,
		},
	})
}

// NewNatural creates a natural profile: gain rises from 1 toward maxGain
// with the given saturation speed in counts.
func NewNatural(gain, maxGain, reference float64) (*Profile, error) {
	return New(&Config{
		Curve: CurveSpec{
			Preset:    CurveNatural,
			Gain:      gain,
			MaxGain:   maxGain,
			Reference: reference,
		},
	})
}

// NewCustom creates a profile from an arbitrary transfer function mapping
// input magnitude to output magnitude, both in counts. The function must be
// finite over [0, domainMax].
func NewCustom(curve func(x float64) float64, domainMax float64) (*Profile, error) {
	return New(&Config{
		Curve:     CurveSpec{Preset: CurveCustom, Custom: curve},
		DomainMax: domainMax,
	})
}
