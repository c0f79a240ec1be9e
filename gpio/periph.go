package gpio

import (
	"strconv"

	"github.com/pkg/errors"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

type periphBus struct{}

type periphLine struct {
	pin pgpio.PinIO
}

type periphInput struct {
	pin pgpio.PinIO
}

func openPeriph() (*periphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	return &periphBus{}, nil
}

func byNumber(pin int) (pgpio.PinIO, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(strconv.Itoa(pin))
	if p == nil {
		return nil, errors.Errorf("no GPIO pin named: %d", pin)
	}
	return p, nil
}

func (b *periphBus) Output(pin int) (Line, error) {
	p, err := byNumber(pin)
	if err != nil {
		return nil, err
	}
	if err := p.Out(pgpio.Low); err != nil {
		return nil, errors.Wrapf(err, "pin %d out", pin)
	}
	return &periphLine{pin: p}, nil
}

func (b *periphBus) Input(pin int) (Input, error) {
	p, err := byNumber(pin)
	if err != nil {
		return nil, err
	}
	if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "pin %d in", pin)
	}
	return &periphInput{pin: p}, nil
}

// periph has no global state to release
func (b *periphBus) Close() error {
	return nil
}

func (l *periphLine) Set(high bool) error {
	return l.pin.Out(pgpio.Level(high))
}

func (i *periphInput) Read() bool {
	return i.pin.Read() == pgpio.High
}
