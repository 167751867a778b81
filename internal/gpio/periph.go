package gpio

import (
	"strconv"

	"github.com/pkg/errors"
	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/button-sensor/internal/logic"
)

// PeriphReader reads a pin through the periph.io host drivers.
type PeriphReader struct {
	pin pgpio.PinIO
}

func periphPull(pull Pull) pgpio.Pull {
	switch pull {
	case PullUp:
		return pgpio.PullUp
	case PullDown:
		return pgpio.PullDown
	default:
		return pgpio.Float
	}
}

// NewPeriphReader initializes the periph host and configures pin (BCM
// numbering) as an input without edge detection.
func NewPeriphReader(pin int, pull Pull) (*PeriphReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "init periph host")
	}

	p := gpioreg.ByName(strconv.Itoa(pin))
	if p == nil {
		return nil, errors.Errorf("no such pin %d", pin)
	}
	if err := p.In(periphPull(pull), pgpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "configure pin %s", p)
	}

	return &PeriphReader{pin: p}, nil
}

// Read returns the raw level of the pin.
func (r *PeriphReader) Read() (logic.Level, error) {
	return logic.Level(r.pin.Read() == pgpio.High), nil
}

// Close halts the pin.
func (r *PeriphReader) Close() error {
	if err := r.pin.Halt(); err != nil {
		return errors.Wrap(err, "halt pin")
	}
	return nil
}
