package gpio

import (
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
)

type rpioBus struct{}

type rpioLine struct {
	pin rpio.Pin
}

type rpioInput struct {
	pin rpio.Pin
}

func openRPIO() (*rpioBus, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "rpio open")
	}
	return &rpioBus{}, nil
}

func (b *rpioBus) Output(pin int) (Line, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	return &rpioLine{pin: p}, nil
}

func (b *rpioBus) Input(pin int) (Input, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	p := rpio.Pin(pin)
	p.Input()
	p.PullDown()
	return &rpioInput{pin: p}, nil
}

func (b *rpioBus) Close() error {
	return rpio.Close()
}

func (l *rpioLine) Set(high bool) error {
	if high {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	return nil
}

func (i *rpioInput) Read() bool {
	return i.pin.Read() == rpio.High
}
