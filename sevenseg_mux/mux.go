package sevenseg_mux

import (
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Line is one output pin. true drives it high.
type Line interface {
	Set(high bool) error
}

// Multiplexer drives a shared segment bus and one cathode line per digit,
// lighting a single digit at a time.
type Multiplexer struct {
	segments         [SegmentCount]Line
	cathodes         []Line
	clock            clockwork.Clock
	settle           time.Duration
	hold             time.Duration
	cathodeActiveLow bool
	segmentActiveLow bool
	err              error
}

// NewMultiplexer wires the segment lines (A..H order) and the cathode lines
// (position order). The display width is the number of cathodes.
func NewMultiplexer(segments []Line, cathodes []Line, cfg Config, clock clockwork.Clock) (*Multiplexer, error) {
	if len(segments) != SegmentCount {
		return nil, errors.Errorf("need %d segment lines, got %d", SegmentCount, len(segments))
	}
	if len(cathodes) == 0 {
		return nil, errors.New("no cathode lines")
	}
	m := &Multiplexer{
		cathodes:         cathodes,
		clock:            clock,
		settle:           cfg.Settle,
		hold:             cfg.Hold,
		cathodeActiveLow: cfg.CathodeActiveLow,
		segmentActiveLow: cfg.SegmentActiveLow,
	}
	copy(m.segments[:], segments)
	return m, nil
}

// Digits is the number of positions driven.
func (m *Multiplexer) Digits() int {
	return len(m.cathodes)
}

// Err returns the first line write failure, if any.
func (m *Multiplexer) Err() error {
	return m.err
}

func (m *Multiplexer) write(l Line, high bool) {
	if err := l.Set(high); err != nil && m.err == nil {
		m.err = err
		log.Printf("Error: %s", err.Error())
	}
}

func (m *Multiplexer) cathode(pos int, on bool) {
	m.write(m.cathodes[pos], on != m.cathodeActiveLow)
}

func (m *Multiplexer) sleep(d time.Duration) {
	if d > 0 {
		m.clock.Sleep(d)
	}
}

// AllOff disables every cathode.
func (m *Multiplexer) AllOff() {
	for pos := range m.cathodes {
		m.cathode(pos, false)
	}
}

// Assert puts a pattern on the segment bus without touching the cathodes.
func (m *Multiplexer) Assert(p Pattern) {
	for i, on := range p {
		m.write(m.segments[i], on != m.segmentActiveLow)
	}
}

// Render lights each position in turn with its glyph. Positions past the
// end of frame are blank, extra glyphs are ignored.
func (m *Multiplexer) Render(frame []Glyph) {
	for pos := range m.cathodes {
		g := GlyphBlank
		if pos < len(frame) {
			g = frame[pos]
		}
		// nothing may be lit while the bus changes
		m.AllOff()
		m.Assert(Lookup(g))
		m.sleep(m.settle)
		m.cathode(pos, true)
		m.sleep(m.hold)
		m.cathode(pos, false)
	}
}
