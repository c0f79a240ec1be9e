// Package gpio hands out output and input lines by BCM pin number, backed by
// go-rpio, periph.io, or a simulated bus for hosts without GPIO.
package gpio

import (
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

const (
	DriverRPIO   = "rpio"
	DriverPeriph = "periph"
	DriverSim    = "sim"
)

// highest BCM pin the SoC exposes
const maxPin = 53

// Line is an output pin.
type Line interface {
	Set(high bool) error
}

// Input is an input pin, read as high or low.
type Input interface {
	Read() bool
}

// Bus opens pins on one GPIO driver.
type Bus interface {
	Output(pin int) (Line, error)
	Input(pin int) (Input, error)
	Close() error
}

// Open picks a driver by name. The clock only matters to the simulated bus,
// which timestamps its audit trail with it.
func Open(driver string, clock clockwork.Clock) (Bus, error) {
	switch driver {
	case DriverRPIO:
		return openRPIO()
	case DriverPeriph:
		return openPeriph()
	case DriverSim:
		return NewSim(clock), nil
	}
	return nil, errors.Errorf("unknown gpio driver: '%s'", driver)
}

func checkPin(pin int) error {
	if pin < 0 || pin > maxPin {
		return errors.Errorf("bad pin number: %d", pin)
	}
	return nil
}

// Outputs opens a list of output pins in order.
func Outputs(b Bus, pins []int) ([]Line, error) {
	lines := make([]Line, 0, len(pins))
	for _, p := range pins {
		l, err := b.Output(p)
		if err != nil {
			return nil, errors.Wrapf(err, "output pin %d", p)
		}
		lines = append(lines, l)
	}
	return lines, nil
}
