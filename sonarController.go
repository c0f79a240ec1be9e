package main

import (
	"fmt"
	"time"

	"dscheirer.com/sonardisplay/hcsr04"
	"github.com/pkg/errors"
)

// runSonar is the control loop: measure, pick what to show, render, and keep
// the display lit through every wait.
func runSonar(rt runtimeConfig) {
	defer wg.Done()
	defer func() {
		rt.display.Blank()
		rt.logger.Println("Exiting runSonar")
	}()

	display := rt.display
	tick := rt.settings.GetDuration(sTick)
	hold := rt.settings.GetDuration(sOverrideHold)
	timeoutIsError := rt.settings.GetBool(sEchoTimeoutError)

	var held overrideMsg
	var heldUntil time.Time
	var iteration uint64
	lastValue, lastSource, lastErr := int64(-1), "", false

	for {
		select {
		case <-rt.comms.quit:
			rt.logger.Println("quit from runSonar")
			return
		default:
		}

		display.Blank()
		display.Wait(tick)

		source := srcSonar
		select {
		case msg := <-rt.comms.override:
			rt.logger.Printf("Override from %s: %d", msg.source, msg.value)
			held = msg
			heldUntil = rt.clock.Now().Add(hold)
			source = msg.source
			display.Set(msg.value)
		default:
			if rt.clock.Now().Before(heldUntil) {
				source = held.source
				display.Set(held.value)
			} else {
				measure(rt, timeoutIsError)
			}
		}

		display.Refresh()
		iteration++

		rt.status.publish(statusSnapshot{
			Value:     display.Value(),
			Glyphs:    glyphInts(display.Frame()),
			Error:     display.ShowingError(),
			Source:    source,
			Iteration: iteration,
			Updated:   rt.clock.Now(),
		})

		value, isErr := display.Value(), display.ShowingError()
		if value != lastValue || source != lastSource || isErr != lastErr {
			rt.logger.Printf("Distance: %dcm (%s)", value, source)
			if rt.echo != nil {
				fmt.Fprintf(rt.echo, "Distance: %dcm\r\n", value)
			}
			lastValue, lastSource, lastErr = value, source, isErr
		}
	}
}

func measure(rt runtimeConfig, timeoutIsError bool) {
	display := rt.display
	d, err := rt.ranger.Distance(display)
	switch {
	case err == nil:
		display.Set(d)
	case errors.Cause(err) == hcsr04.ErrEchoTimeout:
		display.Set(0)
		if timeoutIsError {
			display.SetError()
		}
	default:
		rt.logger.Printf("Error: %s", err.Error())
		display.Set(0)
		display.SetError()
	}
}
