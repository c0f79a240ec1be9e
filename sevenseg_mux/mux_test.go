package sevenseg_mux

import (
	"errors"
	"testing"
	"time"

	"dscheirer.com/sonardisplay/gpio"
	"github.com/jonboulle/clockwork"
	"gotest.tools/assert"
)

var (
	testSegPins     = []int{5, 6, 13, 19, 26, 12, 16, 20}
	testCathodePins = []int{21, 7, 8, 25}
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Settle = time.Millisecond
	cfg.Hold = 3 * time.Millisecond
	return cfg
}

func toLines(lines []gpio.Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}

// setup builds a multiplexer on a recording sim bus with every digit off.
func setup(t *testing.T, cfg Config) (*Multiplexer, *gpio.Sim, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	sim := gpio.NewSim(clock)
	segs, err := gpio.Outputs(sim, testSegPins)
	assert.NilError(t, err)
	cathodes, err := gpio.Outputs(sim, testCathodePins[:cfg.Digits])
	assert.NilError(t, err)

	m, err := NewMultiplexer(toLines(segs), toLines(cathodes), cfg, clock)
	assert.NilError(t, err)
	m.AllOff()
	sim.Record(true)
	return m, sim, clock
}

// driveSteps runs fn and advances the fake clock once per expected sleep.
func driveSteps(clock clockwork.FakeClock, steps []time.Duration, fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	for _, d := range steps {
		clock.BlockUntil(1)
		clock.Advance(d)
	}
	<-done
}

func renderSteps(cfg Config) []time.Duration {
	steps := []time.Duration{}
	for i := 0; i < cfg.Digits; i++ {
		steps = append(steps, cfg.Settle, cfg.Hold)
	}
	return steps
}

type lit struct {
	pos      int
	segments Pattern
	on, off  time.Time
}

// replay walks the audit trail and checks that at most one cathode is ever
// enabled and the segment bus never changes under a lit digit. It returns
// every digit lighting in order.
func replay(t *testing.T, cfg Config, events []gpio.Event) []lit {
	cathodePos := map[int]int{}
	for i, p := range testCathodePins[:cfg.Digits] {
		cathodePos[p] = i
	}
	segIndex := map[int]int{}
	for i, p := range testSegPins {
		segIndex[p] = i
	}

	enabled := map[int]bool{}
	var bus Pattern
	out := []lit{}
	for _, e := range events {
		if pos, ok := cathodePos[e.Pin]; ok {
			on := e.High != cfg.CathodeActiveLow
			enabled[pos] = on
			count := 0
			for _, v := range enabled {
				if v {
					count++
				}
			}
			assert.Assert(t, count <= 1, "%d cathodes enabled at %v", count, e.At)
			if on {
				out = append(out, lit{pos: pos, segments: bus, on: e.At})
			} else if n := len(out); n > 0 && out[n-1].pos == pos && out[n-1].off.IsZero() {
				out[n-1].off = e.At
			}
			continue
		}
		i, ok := segIndex[e.Pin]
		assert.Assert(t, ok, "unexpected pin %d", e.Pin)
		for pos, v := range enabled {
			assert.Assert(t, !v, "segment %d changed while digit %d lit", i, pos)
		}
		bus[i] = e.High != cfg.SegmentActiveLow
	}
	return out
}

func TestRenderLightsEachDigitOnce(t *testing.T) {
	cfg := testConfig()
	m, sim, clock := setup(t, cfg)
	frame := []Glyph{Glyph1, Glyph2, Glyph3, Glyph4}

	start := clock.Now()
	driveSteps(clock, renderSteps(cfg), func() { m.Render(frame) })

	lits := replay(t, cfg, sim.Audit())
	assert.Equal(t, len(lits), 4)
	for i, l := range lits {
		assert.Equal(t, l.pos, i)
		assert.Equal(t, l.segments, Lookup(frame[i]))
		assert.Equal(t, l.off.Sub(l.on), cfg.Hold)
	}
	// first digit only lights after the bus settles
	assert.Equal(t, lits[0].on.Sub(start), cfg.Settle)
	assert.Equal(t, clock.Now().Sub(start), cfg.FramePeriod())

	// and everything ends dark
	for _, p := range testCathodePins {
		assert.Equal(t, sim.Level(p), true)
	}
	assert.NilError(t, m.Err())
}

func TestRenderNeverEnablesTwoDigits(t *testing.T) {
	cfg := testConfig()
	m, sim, clock := setup(t, cfg)

	frames := [][]Glyph{
		{Glyph8Dot, Glyph8Dot, Glyph8Dot, Glyph8Dot},
		{GlyphE, Glyphr, Glyph0, GlyphrDot},
		{Glyph0, Glyph0, Glyph4, Glyph2},
		{GlyphBlank, GlyphDash, GlyphBlankDot, GlyphF},
	}
	for _, f := range frames {
		driveSteps(clock, renderSteps(cfg), func() { m.Render(f) })
	}
	lits := replay(t, cfg, sim.Audit())
	assert.Equal(t, len(lits), 4*len(frames))
	for i, l := range lits {
		assert.Equal(t, l.segments, Lookup(frames[i/4][i%4]))
	}
}

func TestRenderShortAndLongFrames(t *testing.T) {
	cfg := testConfig()
	m, sim, clock := setup(t, cfg)

	driveSteps(clock, renderSteps(cfg), func() { m.Render([]Glyph{Glyph7}) })
	lits := replay(t, cfg, sim.Audit())
	assert.Equal(t, lits[0].segments, Lookup(Glyph7))
	for _, l := range lits[1:] {
		assert.Equal(t, l.segments, Pattern{})
	}

	sim.ResetAudit()
	driveSteps(clock, renderSteps(cfg), func() {
		m.Render([]Glyph{Glyph1, Glyph2, Glyph3, Glyph4, Glyph5, Glyph6})
	})
	lits = replay(t, cfg, sim.Audit())
	assert.Equal(t, len(lits), 4)
	assert.Equal(t, lits[3].segments, Lookup(Glyph4))
}

func TestRenderBadGlyphIsBlank(t *testing.T) {
	cfg := testConfig()
	m, sim, clock := setup(t, cfg)

	driveSteps(clock, renderSteps(cfg), func() { m.Render([]Glyph{40, -3, Glyph8, 1000}) })
	lits := replay(t, cfg, sim.Audit())
	assert.Equal(t, lits[0].segments, Pattern{})
	assert.Equal(t, lits[1].segments, Pattern{})
	assert.Equal(t, lits[2].segments, Lookup(Glyph8))
	assert.Equal(t, lits[3].segments, Pattern{})
}

func TestRenderInvertedPolarity(t *testing.T) {
	cfg := testConfig()
	cfg.CathodeActiveLow = false
	cfg.SegmentActiveLow = true
	m, sim, clock := setup(t, cfg)

	driveSteps(clock, renderSteps(cfg), func() { m.Render([]Glyph{Glyph1, Glyph1, Glyph1, Glyph1}) })
	lits := replay(t, cfg, sim.Audit())
	assert.Equal(t, len(lits), 4)
	for _, l := range lits {
		assert.Equal(t, l.segments, Lookup(Glyph1))
	}
	// B and C pull low to light
	assert.Equal(t, sim.Level(testSegPins[SegB]), false)
	assert.Equal(t, sim.Level(testSegPins[SegA]), true)
	for _, p := range testCathodePins {
		assert.Equal(t, sim.Level(p), false)
	}
}

func TestRenderWithoutDelays(t *testing.T) {
	cfg := testConfig()
	cfg.Settle = 0
	cfg.Hold = 0
	m, sim, clock := setup(t, cfg)

	start := clock.Now()
	m.Render([]Glyph{Glyph1, Glyph2, Glyph3, Glyph4})
	assert.Equal(t, clock.Now(), start)
	assert.Equal(t, len(replay(t, cfg, sim.Audit())), 4)
}

func TestNewMultiplexerChecksLines(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sim := gpio.NewSim(clock)
	segs, _ := gpio.Outputs(sim, testSegPins)
	cathodes, _ := gpio.Outputs(sim, testCathodePins)

	_, err := NewMultiplexer(toLines(segs[:7]), toLines(cathodes), DefaultConfig(), clock)
	assert.ErrorContains(t, err, "need 8 segment lines")
	_, err = NewMultiplexer(toLines(segs), nil, DefaultConfig(), clock)
	assert.ErrorContains(t, err, "no cathode lines")

	m, err := NewMultiplexer(toLines(segs), toLines(cathodes[:2]), DefaultConfig(), clock)
	assert.NilError(t, err)
	assert.Equal(t, m.Digits(), 2)
}

type failLine struct {
	calls int
}

func (f *failLine) Set(high bool) error {
	f.calls++
	return errors.New("pin gone")
}

func TestWriteErrorIsKept(t *testing.T) {
	clock := clockwork.NewFakeClock()
	bad := &failLine{}
	segs := make([]Line, SegmentCount)
	for i := range segs {
		segs[i] = bad
	}
	cfg := testConfig()
	cfg.Settle, cfg.Hold = 0, 0
	m, err := NewMultiplexer(segs, []Line{bad}, cfg, clock)
	assert.NilError(t, err)

	m.Render([]Glyph{Glyph8})
	assert.Error(t, m.Err(), "pin gone")
	// it keeps going, every line still gets written
	assert.Equal(t, bad.calls, 1+SegmentCount+2)
}

func TestConfigValidate(t *testing.T) {
	assert.NilError(t, DefaultConfig().Validate())

	bad := []func(c *Config){
		func(c *Config) { c.Digits = 0 },
		func(c *Config) { c.Order = 7 },
		func(c *Config) { c.Threshold = -1 },
		func(c *Config) { c.Settle = -time.Millisecond },
		func(c *Config) { c.Hold = -time.Millisecond },
		func(c *Config) { c.Tick = 0 },
	}
	for i, f := range bad {
		c := DefaultConfig()
		f(&c)
		assert.Assert(t, c.Validate() != nil, "case %d", i)
	}
}

func TestFlicker(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.FramePeriod(), 16*time.Millisecond)
	assert.Assert(t, !cfg.Flickers())
	cfg.Digits = 5
	assert.Assert(t, cfg.Flickers())
}
