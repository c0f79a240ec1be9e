// Package hcsr04 measures distance with an HC-SR04 ultrasonic ranging module.
//
// The module is triggered by a pulse on its Trig pin and answers with a pulse
// on its Echo pin whose width is the round trip time of the sound.
package hcsr04

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// ErrEchoTimeout means no complete echo pulse arrived in time.
var ErrEchoTimeout = errors.New("echo timeout")

// Line drives the trigger pin.
type Line interface {
	Set(high bool) error
}

// Input reads the echo pin.
type Input interface {
	Read() bool
}

// Waiter blocks for a while, doing whatever it needs to meanwhile (such as
// keeping a display refreshed).
type Waiter interface {
	Wait(d time.Duration)
}

// Config holds the trigger timing and calibration.
type Config struct {
	Transmit    time.Duration // trigger held low before the pulse
	Trigger     time.Duration // trigger pulse width
	EchoTimeout time.Duration
	// microseconds per centimetre, one way
	Calibration float64
}

func DefaultConfig() Config {
	return Config{
		Transmit:    2 * time.Millisecond,
		Trigger:     5 * time.Millisecond,
		// about 2m of range, every digit stays dark while the echo is timed
		EchoTimeout: 12 * time.Millisecond,
		Calibration: 29.1,
	}
}

// Measurement is one echo pulse.
type Measurement struct {
	TimeOfFlight time.Duration
}

// Centimeters converts the round trip into a one way distance, truncated.
func (m Measurement) Centimeters(calibration float64) int64 {
	if calibration <= 0 {
		return 0
	}
	oneWay := m.TimeOfFlight.Microseconds() / 2
	return int64(float64(oneWay) / calibration)
}

// Sensor is one HC-SR04 module.
type Sensor struct {
	trigger Line
	echo    Input
	clock   clockwork.Clock
	cfg     Config
}

// New leaves the trigger low.
func New(trigger Line, echo Input, cfg Config, clock clockwork.Clock) (*Sensor, error) {
	if cfg.EchoTimeout <= 0 {
		return nil, errors.Errorf("echo timeout must be positive: %v", cfg.EchoTimeout)
	}
	if err := trigger.Set(false); err != nil {
		return nil, errors.Wrap(err, "trigger low")
	}
	return &Sensor{trigger: trigger, echo: echo, clock: clock, cfg: cfg}, nil
}

// Measure fires the trigger and times the echo. Waits around the trigger go
// through w.
func (s *Sensor) Measure(w Waiter) (Measurement, error) {
	if err := s.trigger.Set(false); err != nil {
		return Measurement{}, err
	}
	w.Wait(s.cfg.Transmit)
	if err := s.trigger.Set(true); err != nil {
		return Measurement{}, err
	}
	w.Wait(s.cfg.Trigger)
	if err := s.trigger.Set(false); err != nil {
		return Measurement{}, err
	}

	width, err := s.pulseIn()
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{TimeOfFlight: width}, nil
}

// Distance measures and converts to centimetres. A missing echo reads as 0
// along with ErrEchoTimeout.
func (s *Sensor) Distance(w Waiter) (int64, error) {
	m, err := s.Measure(w)
	if err != nil {
		return 0, err
	}
	return m.Centimeters(s.cfg.Calibration), nil
}

// pulseIn times the next high pulse on the echo pin. The timeout covers the
// whole call.
func (s *Sensor) pulseIn() (time.Duration, error) {
	deadline := s.clock.Now().Add(s.cfg.EchoTimeout)
	expired := func() bool {
		return s.clock.Now().After(deadline)
	}

	// let an earlier pulse finish
	for s.echo.Read() {
		if expired() {
			return 0, ErrEchoTimeout
		}
	}
	for !s.echo.Read() {
		if expired() {
			return 0, ErrEchoTimeout
		}
	}
	start := s.clock.Now()
	for s.echo.Read() {
		if expired() {
			return 0, ErrEchoTimeout
		}
	}
	return s.clock.Now().Sub(start), nil
}
