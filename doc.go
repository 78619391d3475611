// Package accel provides fixed-point pointer acceleration profiles in pure
// Go.
//
// A profile is a transfer function mapping input motion magnitude to output
// magnitude, fitted offline into packed cubic spline segments and evaluated
// at runtime entirely in integer arithmetic: no floats, no allocation, no
// branching on data-dependent loop counts. Every arithmetic edge case
// resolves by saturation, never by a fault, so the evaluation path is safe
// to run inside an input-event dispatch loop.
//
// # Quick Start
//
// Build a profile from a preset and apply it to motion deltas:
//
//	profile, err := accel.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	var hint accel.Hint // one per device
//	for ev := range events {
//	    ax, ay := profile.Accelerate(&hint, ev.DX, ev.DY)
//	    dispatch(ax, ay)
//	}
//
// Deltas are signed Q8.24 counts; outputs carry [OutputFracBits] fractional
// bits. The transfer function acts on the vector magnitude, so direction is
// preserved and the response is isotropic.
//
// # Curve Presets
//
//   - [CurveClassic]: the traditional power curve. The default.
//   - [CurveFlat]: constant gain, scaling without acceleration.
//   - [CurveLinear]: gain grows linearly with speed.
//   - [CurveNatural]: gain saturates exponentially toward a maximum.
//   - [CurveCustom]: any finite function of input magnitude.
//
// # Indexing
//
// Evaluation locates a segment either through a hinted two-level k-ary
// search over explicit knots ([IndexKary], the default, with adaptive knot
// placement) or through closed-form octave addressing ([IndexOctave], O(1)
// with no index memory, power-of-two segment boundaries).
//
// # Persistence
//
// [Profile.Marshal] serializes a profile to a stable little-endian layout
// built around the 32-byte packed segment wire format; [Unmarshal] validates
// every structural invariant before the profile can be evaluated.
//
// # Concurrency
//
// Profiles are immutable and safe for concurrent evaluation. A [Hint] holds
// per-stream lookup locality and must be owned by exactly one input stream.
package accel
