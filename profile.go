package accel

import (
	"encoding/binary"
	"fmt"

	"github.com/tphakala/go-pointer-accel/internal/segment"
	"github.com/tphakala/go-pointer-accel/internal/spline"
)

// Serialized profile layout, little-endian:
//
//	offset 0  uint32  magic "PACL"
//	offset 4  uint16  version
//	offset 6  uint8   index kind
//	offset 7  uint8   octave origin log2
//	offset 8  uint8   octave segments-per-octave log2
//	offset 9  uint8   octave count
//	offset 10 uint16  segment count
//	offset 12 uint16  knot count (segments+1 for k-ary, 0 for octave)
//	offset 14 uint16  reserved, zero
//	offset 16 knots   knot count x uint32
//	then      records segment count x 32-byte packed segments
//
// The layout is the interoperability contract with any external tool that
// builds or consumes profiles; the 32-byte segment records are the exact
// wire format of the codec.
const (
	profileMagic   = 0x4C434150 // "PACL"
	profileVersion = 1
	headerSize     = 16

	knotSize = 4
)

// Marshal serializes the profile.
func (p *Profile) Marshal() ([]byte, error) {
	var knots []uint32
	var packed []segment.Packed
	var geom OctaveSpec

	switch p.kind {
	case IndexKary:
		knots = p.tbl.Knots()
		packed = p.tbl.Packed()
	case IndexOctave:
		packed = p.oct.Packed()
		geom = p.octave
	default:
		return nil, fmt.Errorf("%w: index kind %d", ErrInvalidProfile, p.kind)
	}

	buf := make([]byte, headerSize+len(knots)*knotSize+len(packed)*segment.PackedBytes)
	binary.LittleEndian.PutUint32(buf[0:], profileMagic)
	binary.LittleEndian.PutUint16(buf[4:], profileVersion)
	buf[6] = uint8(p.kind)
	buf[7] = uint8(geom.OriginLog2)
	buf[8] = uint8(geom.SegsPerOctaveLog2)
	buf[9] = uint8(geom.Octaves)
	binary.LittleEndian.PutUint16(buf[10:], uint16(len(packed)))
	binary.LittleEndian.PutUint16(buf[12:], uint16(len(knots)))

	off := headerSize
	for _, k := range knots {
		binary.LittleEndian.PutUint32(buf[off:], k)
		off += knotSize
	}
	for i := range packed {
		for _, w := range packed[i] {
			binary.LittleEndian.PutUint64(buf[off:], w)
			off += 8
		}
	}
	return buf, nil
}

// Unmarshal deserializes and validates a profile. Every structural property
// is re-checked on load: magic, version, counts, total length, and the knot
// and geometry invariants of the selected index. A profile that unmarshals
// successfully is safe to evaluate.
//
// The fit report is not serialized; an unmarshaled profile reports zero.
func Unmarshal(data []byte) (*Profile, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d",
			ErrInvalidProfile, len(data), headerSize)
	}
	if magic := binary.LittleEndian.Uint32(data[0:]); magic != profileMagic {
		return nil, fmt.Errorf("%w: magic %#x", ErrInvalidProfile, magic)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != profileVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrInvalidProfile, v, profileVersion)
	}

	kind := IndexKind(data[6])
	geom := OctaveSpec{
		OriginLog2:        uint(data[7]),
		SegsPerOctaveLog2: uint(data[8]),
		Octaves:           uint(data[9]),
	}
	segCount := int(binary.LittleEndian.Uint16(data[10:]))
	knotCount := int(binary.LittleEndian.Uint16(data[12:]))

	want := headerSize + knotCount*knotSize + segCount*segment.PackedBytes
	if len(data) != want {
		return nil, fmt.Errorf("%w: %d bytes for %d knots and %d segments, want %d",
			ErrInvalidProfile, len(data), knotCount, segCount, want)
	}

	off := headerSize
	knots := make([]uint32, knotCount)
	for i := range knots {
		knots[i] = binary.LittleEndian.Uint32(data[off:])
		off += knotSize
	}
	packed := make([]segment.Packed, segCount)
	for i := range packed {
		for w := range packed[i] {
			packed[i][w] = binary.LittleEndian.Uint64(data[off:])
			off += 8
		}
	}

	switch kind {
	case IndexKary:
		if knotCount != segCount+1 {
			return nil, fmt.Errorf("%w: %d knots for %d segments",
				ErrInvalidProfile, knotCount, segCount)
		}
		tbl, err := spline.NewTable(knots, packed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		return &Profile{kind: IndexKary, tbl: tbl}, nil

	case IndexOctave:
		if knotCount != 0 {
			return nil, fmt.Errorf("%w: octave profile carries %d knots",
				ErrInvalidProfile, knotCount)
		}
		oct, err := spline.NewOctaveTable(geom.OriginLog2, geom.SegsPerOctaveLog2,
			geom.Octaves, packed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
		return &Profile{kind: IndexOctave, oct: oct, octave: geom}, nil

	default:
		return nil, fmt.Errorf("%w: index kind %d", ErrInvalidProfile, kind)
	}
}
