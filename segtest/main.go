// segtest lights every glyph on every digit of a multiplexed display so the
// wiring can be checked by eye.
//
//	SEGMENTS=5,6,13,19,26,12,16,20 CATHODES=21,7,8,25 segtest
package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"dscheirer.com/sonardisplay/gpio"
	"dscheirer.com/sonardisplay/sevenseg_mux"
	"github.com/jonboulle/clockwork"
)

func envPins(name string) []int {
	s, ok := os.LookupEnv(name)
	if !ok {
		log.Fatalf("Must provide %s in the environment", name)
	}
	pins := []int{}
	for _, f := range strings.Split(s, ",") {
		p, err := strconv.ParseInt(strings.TrimSpace(f), 0, 64)
		if err != nil {
			log.Fatalf("%s: %s is not a number", name, f)
		}
		pins = append(pins, int(p))
	}
	return pins
}

func main() {
	// SEGMENTS are the A..H pins, CATHODES one pin per digit
	// DRIVER defaults to rpio, STEP to 400ms per glyph
	segPins := envPins("SEGMENTS")
	cathodePins := envPins("CATHODES")
	driver, ok := os.LookupEnv("DRIVER")
	if !ok {
		driver = gpio.DriverRPIO
	}
	step := 400 * time.Millisecond
	if s, ok := os.LookupEnv("STEP"); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Fatalf("%s is not a duration", s)
		}
		step = d
	}
	_, activeHigh := os.LookupEnv("CATHODE_HIGH")

	clock := clockwork.NewRealClock()
	bus, err := gpio.Open(driver, clock)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer bus.Close()

	segs, err := gpio.Outputs(bus, segPins)
	if err != nil {
		log.Fatal(err.Error())
	}
	cathodes, err := gpio.Outputs(bus, cathodePins)
	if err != nil {
		log.Fatal(err.Error())
	}

	cfg := sevenseg_mux.DefaultConfig()
	cfg.Digits = len(cathodePins)
	cfg.CathodeActiveLow = !activeHigh
	mux, err := sevenseg_mux.NewMultiplexer(toMux(segs), toMux(cathodes), cfg, clock)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer mux.AllOff()
	sched := sevenseg_mux.NewScheduler(mux, clock, cfg.Tick)
	log.Printf("%d digits, %v per glyph, refresh every %v", mux.Digits(), step, sched.Tick())

	// one digit at a time, then all together
	for pos := 0; pos < mux.Digits(); pos++ {
		for g := sevenseg_mux.Glyph0; g.Valid(); g++ {
			frame := blankFrame(mux.Digits())
			frame[pos] = g
			log.Printf("digit %d glyph %d segments %08b", pos, g, sevenseg_mux.Lookup(g).Bits())
			sched.WaitWithRefresh(step, frame)
		}
	}
	all := blankFrame(mux.Digits())
	for i := range all {
		all[i] = sevenseg_mux.WithDot(sevenseg_mux.Glyph8)
	}
	log.Printf("all segments %08b", sevenseg_mux.Lookup(all[0]).Bits())
	sched.WaitWithRefresh(5*step, all)
}

func blankFrame(n int) []sevenseg_mux.Glyph {
	f := make([]sevenseg_mux.Glyph, n)
	for i := range f {
		f[i] = sevenseg_mux.GlyphBlank
	}
	return f
}

func toMux(lines []gpio.Line) []sevenseg_mux.Line {
	out := make([]sevenseg_mux.Line, len(lines))
	for i, l := range lines {
		out[i] = l
	}
	return out
}
