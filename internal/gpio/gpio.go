// Package gpio provides GPIO input reading with hardware abstraction.
// Real backends use the Linux GPIO character device (gpiocdev), periph.io or
// memory-mapped registers (rpio). The fake implementation allows testing
// without hardware.
package gpio

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/button-sensor/internal/logic"
)

// Reader reads the raw level of one button line.
type Reader interface {
	// Read returns the raw level of the line. Polarity is not applied;
	// the caller decides which level means pressed.
	Read() (logic.Level, error)

	// Close releases GPIO resources.
	Close() error
}

// Pull selects the line bias.
type Pull string

const (
	PullUp   Pull = "up"
	PullDown Pull = "down"
	PullNone Pull = "none"
)

// Driver names accepted by Open.
const (
	DriverGPIOCDev = "gpiocdev"
	DriverPeriph   = "periph"
	DriverRPIO     = "rpio"
)

// DefaultPin is the BCM pin used when none is configured.
const DefaultPin = 17

// Open creates a Reader for pin using the named driver.
func Open(driver string, pin int, pull Pull, log logrus.FieldLogger) (Reader, error) {
	var (
		r   Reader
		err error
	)

	switch driver {
	case DriverGPIOCDev:
		r, err = NewRealReader(pin, pull)
	case DriverPeriph:
		r, err = NewPeriphReader(pin, pull)
	case DriverRPIO:
		r, err = NewRPIOReader(pin, pull)
	default:
		return nil, errors.Errorf("unknown gpio driver %q", driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s pin %d", driver, pin)
	}

	log.WithField("driver", driver).Infof("opened pin %d (pull %s)", pin, pull)
	return r, nil
}
