package main

// countScale converts counts to raw Q8.24 units and back.
const countScale = 1 << 24

// profileFileMode is the permission for written profile files.
const profileFileMode = 0o644

// Octave geometry used by the -index octave option and the demo: origin at
// one count, four segments per octave, five octaves (domain end 32 counts).
const (
	demoOctaveOrigin   = 24
	demoOctaveSegsLog2 = 2
	demoOctaveCount    = 5
)

// Demo profile parameters
const (
	demoFlatGain         = 1.5
	demoNaturalMaxGain   = 4.0
	demoNaturalReference = 12.0
)

// Demo sweep speeds in counts
var demoSpeeds = []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64, 100}
