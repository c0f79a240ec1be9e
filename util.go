// utility functions
package main

import (
	"io"
	"sync"
	"time"

	"dscheirer.com/sonardisplay/gpio"
	"dscheirer.com/sonardisplay/hcsr04"
	"dscheirer.com/sonardisplay/sevenseg_mux"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// where a displayed value came from
const (
	srcSonar    = "sonar"
	srcSerial   = "serial"
	srcHTTP     = "http"
	srcKeyboard = "keyboard"
)

type overrideMsg struct {
	value  int64
	source string
}

type commChannels struct {
	quit     chan struct{}
	quitOnce *sync.Once
	override chan overrideMsg
}

// stop closes quit, once.
func (c commChannels) stop() {
	c.quitOnce.Do(func() {
		close(c.quit)
	})
}

type runtimeConfig struct {
	settings *configSettings
	clock    clockwork.Clock
	comms    commChannels
	bus      gpio.Bus
	display  *sevenseg_mux.Display
	ranger   rangefinder
	status   *loopStatus
	echo     io.Writer // serial echo of readings, nil when off
	logger   flogger
}

func initCommChannels() commChannels {
	return commChannels{
		quit:     make(chan struct{}),
		quitOnce: &sync.Once{},
		override: make(chan overrideMsg, 1),
	}
}

// sendOverride queues msg, replacing one the loop has not picked up yet.
func sendOverride(c chan overrideMsg, msg overrideMsg) {
	for {
		select {
		case c <- msg:
			return
		default:
		}
		select {
		case <-c:
		default:
		}
	}
}

// initRuntime opens the display and sensor pins on bus.
func initRuntime(settings *configSettings, clock clockwork.Clock, bus gpio.Bus) (runtimeConfig, error) {
	rt := runtimeConfig{
		settings: settings,
		clock:    clock,
		comms:    initCommChannels(),
		bus:      bus,
		status:   &loopStatus{},
		logger:   &ThreadLogger{name: "Sonar"},
	}

	cfg := settings.displayConfig()
	segments, err := gpio.Outputs(bus, settings.GetIntList(sSegmentPins))
	if err != nil {
		return rt, errors.Wrap(err, "segment pins")
	}
	cathodes, err := gpio.Outputs(bus, settings.GetIntList(sCathodePins))
	if err != nil {
		return rt, errors.Wrap(err, "cathode pins")
	}
	mux, err := sevenseg_mux.NewMultiplexer(asMuxLines(segments), asMuxLines(cathodes), cfg, clock)
	if err != nil {
		return rt, err
	}
	// nothing lit until the first render
	mux.AllOff()

	rt.display, err = sevenseg_mux.NewDisplay(cfg, mux, clock)
	if err != nil {
		return rt, err
	}
	rt.display.DebugDump(settings.GetBool(sDebug))

	trigger, err := bus.Output(settings.GetInt(sTriggerPin))
	if err != nil {
		return rt, errors.Wrap(err, "trigger pin")
	}
	echo, err := bus.Input(settings.GetInt(sEchoPin))
	if err != nil {
		return rt, errors.Wrap(err, "echo pin")
	}
	rt.ranger, err = hcsr04.New(trigger, echo, settings.sensorConfig(), clock)
	if err != nil {
		return rt, err
	}

	if cfg.Flickers() {
		rt.logger.Printf("Warning: a full frame takes %v, over %v will flicker",
			cfg.FramePeriod(), sevenseg_mux.FlickerLimit)
	}
	if t := settings.GetDuration(sEchoTimeout); t > sevenseg_mux.FlickerLimit {
		rt.logger.Printf("Warning: %s %v leaves the display dark over %v when no echo comes back",
			sEchoTimeout, t, sevenseg_mux.FlickerLimit)
	}
	return rt, nil
}

func asMuxLines(lines []gpio.Line) []sevenseg_mux.Line {
	out := make([]sevenseg_mux.Line, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}

// statusSnapshot is what the loop last put on the display.
type statusSnapshot struct {
	Value     int64     `json:"value"`
	Glyphs    []int     `json:"glyphs"`
	Error     bool      `json:"error"`
	Source    string    `json:"source"`
	Iteration uint64    `json:"iteration"`
	Updated   time.Time `json:"updated"`
}

// loopStatus lets other goroutines read what the loop shows.
type loopStatus struct {
	mu   sync.Mutex
	snap statusSnapshot
}

func (ls *loopStatus) publish(s statusSnapshot) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.snap = s
}

func (ls *loopStatus) get() statusSnapshot {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	s := ls.snap
	s.Glyphs = append([]int(nil), ls.snap.Glyphs...)
	return s
}

func glyphInts(frame []sevenseg_mux.Glyph) []int {
	out := make([]int, len(frame))
	for i, g := range frame {
		out[i] = int(g)
	}
	return out
}
