//go:build linux

package gpio

import (
	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/button-sensor/internal/logic"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func biasOption(pull Pull) gpiocdev.LineReqOption {
	switch pull {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

// NewRealReader requests pin on gpiochip0 as an input with the given bias.
func NewRealReader(pin int, pull Pull) (*RealReader, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, errors.Wrap(err, "open gpio chip")
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, biasOption(pull))
	if err != nil {
		chip.Close()
		return nil, errors.Wrapf(err, "request pin %d", pin)
	}

	return &RealReader{
		chip: chip,
		line: line,
	}, nil
}

// Read returns the raw level of the line.
func (r *RealReader) Read() (logic.Level, error) {
	v, err := r.line.Value()
	if err != nil {
		return logic.Low, errors.Wrap(err, "read pin")
	}
	return logic.Level(v != 0), nil
}

// Close releases GPIO resources.
// Reconfigures the line to input with pull-down (matching Pi boot defaults)
// before closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, errors.Wrap(err, "reconfigure pin"))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close pin"))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close chip"))
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}
