//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"

	"github.com/sweeney/button-sensor/internal/logic"
)

// RPIOReader reads a Raspberry Pi pin through /dev/gpiomem register access.
type RPIOReader struct {
	pin rpio.Pin
}

// NewRPIOReader maps the GPIO registers and configures pin as an input.
func NewRPIOReader(pin int, pull Pull) (*RPIOReader, error) {
	if err := rpio.Open(); err != nil {
		return nil, errors.Wrap(err, "map gpio registers")
	}

	p := rpio.Pin(pin)
	p.Input()
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}

	return &RPIOReader{pin: p}, nil
}

// Read returns the raw level of the pin.
func (r *RPIOReader) Read() (logic.Level, error) {
	return logic.Level(r.pin.Read() == rpio.High), nil
}

// Close restores the boot-default pull-down and unmaps the registers.
func (r *RPIOReader) Close() error {
	r.pin.PullDown()
	if err := rpio.Close(); err != nil {
		return errors.Wrap(err, "unmap gpio registers")
	}
	return nil
}
