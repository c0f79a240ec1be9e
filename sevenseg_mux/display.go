package sevenseg_mux

import (
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Display owns the value on screen and keeps the multiplexer fed with it.
// It is not safe for concurrent use; one control loop drives it.
type Display struct {
	cfg    Config
	mux    *Multiplexer
	sched  *Scheduler
	value  int64
	frame  []Glyph
	isErr  bool
	dump   bool
	dumped []Glyph
}

// NewDisplay starts out showing zero. cfg.Digits must match the number of
// positions mux drives.
func NewDisplay(cfg Config, mux *Multiplexer, clock clockwork.Clock) (*Display, error) {
	if cfg.Digits != mux.Digits() {
		return nil, errors.Errorf("display is %d digits, multiplexer drives %d", cfg.Digits, mux.Digits())
	}
	d := &Display{
		cfg:   cfg,
		mux:   mux,
		sched: NewScheduler(mux, clock, cfg.Tick),
	}
	d.Set(0)
	return d, nil
}

// DebugDump logs an ascii picture of the frame whenever it changes.
func (d *Display) DebugDump(on bool) {
	d.dump = on
}

// Set chooses the frame for value. Anything above the threshold shows the
// error glyphs, negative values show as zero.
func (d *Display) Set(value int64) {
	d.value = value
	if value > d.cfg.Threshold {
		d.setFrame(ErrorGlyphs(d.cfg.Digits), true)
		return
	}
	if value < 0 {
		value = 0
	}
	d.setFrame(Decompose(uint64(value), d.cfg.Digits, d.cfg.Order), false)
}

// SetError shows the error glyphs without changing the value.
func (d *Display) SetError() {
	d.setFrame(ErrorGlyphs(d.cfg.Digits), true)
}

func (d *Display) setFrame(frame []Glyph, isErr bool) {
	d.frame = frame
	d.isErr = isErr
	if d.dump && !sameFrame(d.dumped, frame) {
		log.Println(Dump(frame))
		d.dumped = append(d.dumped[:0], frame...)
	}
}

func sameFrame(a, b []Glyph) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Value is the last value passed to Set.
func (d *Display) Value() int64 {
	return d.value
}

// ShowingError reports whether the error glyphs are up.
func (d *Display) ShowingError() bool {
	return d.isErr
}

// Frame returns a copy of the glyphs on screen.
func (d *Display) Frame() []Glyph {
	out := make([]Glyph, len(d.frame))
	copy(out, d.frame)
	return out
}

// Refresh renders the current frame once.
func (d *Display) Refresh() {
	d.mux.Render(d.frame)
}

// Blank turns every digit off.
func (d *Display) Blank() {
	d.mux.AllOff()
}

// Wait blocks for dur while keeping the current frame lit.
func (d *Display) Wait(dur time.Duration) {
	d.sched.WaitWithRefresh(dur, d.frame)
}

// Err is the first hardware write failure seen.
func (d *Display) Err() error {
	return d.mux.Err()
}
