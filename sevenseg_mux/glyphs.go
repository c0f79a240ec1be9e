package sevenseg_mux

// Glyph names one symbol the display can show.
type Glyph int

// glyph codes, in table order
const (
	Glyph0 Glyph = iota
	Glyph1
	Glyph2
	Glyph3
	Glyph4
	Glyph5
	Glyph6
	Glyph7
	Glyph8
	Glyph9
	GlyphA
	GlyphB
	GlyphC
	GlyphD
	GlyphE
	GlyphF
	GlyphBlank
	GlyphBlankDot
	GlyphDash
	GlyphDashDot
	Glyph0Dot
	Glyph1Dot
	Glyph2Dot
	Glyph3Dot
	Glyph4Dot
	Glyph5Dot
	Glyph6Dot
	Glyph7Dot
	Glyph8Dot
	Glyph9Dot
	GlyphADot
	GlyphBDot
	GlyphCDot
	GlyphDDot
	GlyphEDot
	GlyphFDot
	GlyphR
	GlyphRDot
	Glyphr
	GlyphrDot

	glyphCount
)

// segment line order on the shared bus
const (
	SegA = iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	SegH // decimal point
	SegmentCount
)

// Pattern is the on/off state of each segment line, A through H.
type Pattern [SegmentCount]bool

// Bits packs the pattern with segment A in bit 0 and the dot in bit 7.
func (p Pattern) Bits() byte {
	var b byte
	for i, on := range p {
		if on {
			b |= 1 << uint(i)
		}
	}
	return b
}

func pattern(bits byte) Pattern {
	var p Pattern
	for i := range p {
		p[i] = bits&(1<<uint(i)) != 0
	}
	return p
}

// segment masks, bit 0 is A
//
//	    A
//	   ----
//	F |    | B
//	   -G--
//	E |    | C
//	   ----   .H
//	    D
var glyphTable = [glyphCount]Pattern{
	Glyph0:        pattern(0x3F),
	Glyph1:        pattern(0x06),
	Glyph2:        pattern(0x5B),
	Glyph3:        pattern(0x4F),
	Glyph4:        pattern(0x66),
	Glyph5:        pattern(0x6D),
	Glyph6:        pattern(0x7D),
	Glyph7:        pattern(0x07),
	Glyph8:        pattern(0x7F),
	Glyph9:        pattern(0x67),
	GlyphA:        pattern(0x77),
	GlyphB:        pattern(0x7C),
	GlyphC:        pattern(0x39),
	GlyphD:        pattern(0x5E),
	GlyphE:        pattern(0x79),
	GlyphF:        pattern(0x71),
	GlyphBlank:    pattern(0x00),
	GlyphBlankDot: pattern(0x80),
	GlyphDash:     pattern(0x40),
	GlyphDashDot:  pattern(0xC0),
	Glyph0Dot:     pattern(0xBF),
	Glyph1Dot:     pattern(0x86),
	Glyph2Dot:     pattern(0xDB),
	Glyph3Dot:     pattern(0xCF),
	Glyph4Dot:     pattern(0xE6),
	Glyph5Dot:     pattern(0xED),
	Glyph6Dot:     pattern(0xFD),
	Glyph7Dot:     pattern(0x87),
	Glyph8Dot:     pattern(0xFF),
	Glyph9Dot:     pattern(0xE7),
	GlyphADot:     pattern(0xF7),
	GlyphBDot:     pattern(0xFC),
	GlyphCDot:     pattern(0xB9),
	GlyphDDot:     pattern(0xDE),
	GlyphEDot:     pattern(0xF9),
	GlyphFDot:     pattern(0xF1),
	GlyphR:        pattern(0x31),
	GlyphRDot:     pattern(0xB1),
	Glyphr:        pattern(0x50),
	GlyphrDot:     pattern(0xD0),
}

// Valid reports whether the glyph has an entry in the table.
func (g Glyph) Valid() bool {
	return g >= 0 && g < glyphCount
}

// Lookup returns the segment pattern for a glyph. Unknown glyphs are blank.
func Lookup(g Glyph) Pattern {
	if !g.Valid() {
		return glyphTable[GlyphBlank]
	}
	return glyphTable[g]
}

// WithDot returns the variant of g with the decimal point lit.
func WithDot(g Glyph) Glyph {
	switch {
	case g >= Glyph0 && g <= Glyph9:
		return Glyph0Dot + (g - Glyph0)
	case g >= GlyphA && g <= GlyphF:
		return GlyphADot + (g - GlyphA)
	case g == GlyphBlank, g == GlyphDash, g == GlyphR, g == Glyphr:
		return g + 1
	case g.Valid():
		// already dotted
		return g
	}
	return GlyphBlankDot
}

// ErrorGlyphs is the "Er0r" indicator sized for a display of the given width.
// Wider displays get blank padding on the left, narrower ones keep the
// leading glyphs.
func ErrorGlyphs(digits int) []Glyph {
	er0r := []Glyph{GlyphE, Glyphr, Glyph0, GlyphrDot}
	if digits <= 0 {
		return []Glyph{}
	}
	out := make([]Glyph, digits)
	if digits <= len(er0r) {
		copy(out, er0r[:digits])
		return out
	}
	pad := digits - len(er0r)
	for i := 0; i < pad; i++ {
		out[i] = GlyphBlank
	}
	copy(out[pad:], er0r)
	return out
}
