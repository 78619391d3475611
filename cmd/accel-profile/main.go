package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	accel "github.com/tphakala/go-pointer-accel"
)

func main() {
	// Command-line flags
	var (
		curve     = flag.String("curve", "classic", "Curve preset: flat, linear, classic, natural")
		gain      = flag.Float64("gain", 0, "Base gain multiplier (0 = preset default)")
		exponent  = flag.Float64("exponent", 0, "Classic curve exponent (0 = preset default)")
		reference = flag.Float64("reference", 0, "Reference speed in counts (0 = preset default)")
		maxGain   = flag.Float64("max-gain", 0, "Natural curve gain ceiling (0 = preset default)")
		domain    = flag.Float64("domain", 0, "Fitted domain end in counts (0 = default)")
		index     = flag.String("index", "kary", "Segment index: kary, octave")
		out       = flag.String("out", "", "Write the serialized profile to this file")
		demo      = flag.Bool("demo", false, "Run a demonstration")
	)
	flag.Parse()

	if *demo {
		runDemo()
		return
	}

	config := accel.Config{
		Curve: accel.CurveSpec{
			Preset:    parseCurve(*curve),
			Gain:      *gain,
			Exponent:  *exponent,
			Reference: *reference,
			MaxGain:   *maxGain,
		},
		DomainMax: *domain,
	}
	if *index == "octave" {
		config.Index = accel.IndexOctave
		config.Octave = accel.OctaveSpec{
			OriginLog2:        demoOctaveOrigin,
			SegsPerOctaveLog2: demoOctaveSegsLog2,
			Octaves:           demoOctaveCount,
		}
	}

	profile, err := accel.New(&config)
	if err != nil {
		log.Fatalf("Failed to build profile: %v", err)
	}

	report := profile.Report()
	fmt.Printf("Profile built:\n")
	fmt.Printf("  Curve: %s\n", *curve)
	fmt.Printf("  Index: %s\n", *index)
	fmt.Printf("  Segments: %d\n", profile.Segments())
	fmt.Printf("  Domain end: %.2f counts\n", float64(profile.Max())/countScale)
	fmt.Printf("  Fit error: max %.3e, rms %.3e counts\n", report.MaxErr, report.RMSErr)

	data, err := profile.Marshal()
	if err != nil {
		log.Fatalf("Failed to serialize profile: %v", err)
	}
	fmt.Printf("  Serialized size: %d bytes\n", len(data))

	if *out != "" {
		if err := os.WriteFile(*out, data, profileFileMode); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
}

func parseCurve(s string) accel.CurvePreset {
	switch s {
	case "flat":
		return accel.CurveFlat
	case "linear":
		return accel.CurveLinear
	case "classic":
		return accel.CurveClassic
	case "natural":
		return accel.CurveNatural
	default:
		log.Fatalf("Unknown curve preset %q", s)
		return accel.CurveClassic
	}
}

func runDemo() {
	fmt.Println("=== Pointer Acceleration Profile Demo ===")
	fmt.Println()

	presets := []struct {
		name  string
		build func() (*accel.Profile, error)
	}{
		{"flat x1.5", func() (*accel.Profile, error) { return accel.NewFlat(demoFlatGain) }},
		{"classic", accel.NewDefault},
		{"natural", func() (*accel.Profile, error) {
			return accel.NewNatural(1, demoNaturalMaxGain, demoNaturalReference)
		}},
	}

	fmt.Printf("%-12s", "speed")
	for _, p := range presets {
		fmt.Printf("%14s", p.name)
	}
	fmt.Println()

	profiles := make([]*accel.Profile, len(presets))
	hints := make([]accel.Hint, len(presets))
	for i, p := range presets {
		profile, err := p.build()
		if err != nil {
			log.Fatalf("Failed to build %s: %v", p.name, err)
		}
		profiles[i] = profile
	}

	for _, speed := range demoSpeeds {
		fmt.Printf("%-12.2f", speed)
		for i, profile := range profiles {
			out := profile.Evaluate(&hints[i], uint32(speed*countScale))
			fmt.Printf("%14.3f", float64(out)/countScale)
		}
		fmt.Println()
	}

	fmt.Println()
	fmt.Println("Outputs are in counts; each column is one profile's transfer function.")
}
