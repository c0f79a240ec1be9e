package sevenseg_mux

// DigitOrder picks which end of the number lands on position 0.
type DigitOrder int

const (
	// MostSignificantFirst puts the highest kept digit on position 0, so
	// numbers read left to right.
	MostSignificantFirst DigitOrder = iota
	// LeastSignificantFirst puts the ones digit on position 0.
	LeastSignificantFirst
)

func (o DigitOrder) String() string {
	if o == LeastSignificantFirst {
		return "lsb-first"
	}
	return "msb-first"
}

// Decompose splits value into one decimal digit glyph per position. Only the
// low `digits` decimal digits are kept, and unused high positions show 0
// rather than blank.
func Decompose(value uint64, digits int, order DigitOrder) []Glyph {
	if digits <= 0 {
		return []Glyph{}
	}
	out := make([]Glyph, digits)
	for i := 0; i < digits; i++ {
		d := Glyph(value % 10)
		if order == LeastSignificantFirst {
			out[i] = d
		} else {
			out[digits-1-i] = d
		}
		value /= 10
	}
	return out
}
