package sevenseg_mux

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Renderer is anything that can put a frame on the display once.
type Renderer interface {
	Render(frame []Glyph)
}

// Scheduler keeps a display lit through a blocking wait by rendering once
// per tick.
type Scheduler struct {
	r     Renderer
	clock clockwork.Clock
	tick  time.Duration
}

func NewScheduler(r Renderer, clock clockwork.Clock, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = time.Millisecond
	}
	return &Scheduler{r: r, clock: clock, tick: tick}
}

// Tick is the scheduler granularity.
func (s *Scheduler) Tick() time.Duration {
	return s.tick
}

// WaitWithRefresh spends d in whole ticks, rendering frame at the start of
// each one. It returns the number of renders.
func (s *Scheduler) WaitWithRefresh(d time.Duration, frame []Glyph) int {
	if d <= 0 {
		return 0
	}
	ticks := int((d + s.tick - 1) / s.tick)
	for i := 0; i < ticks; i++ {
		s.r.Render(frame)
		s.clock.Sleep(s.tick)
	}
	return ticks
}
