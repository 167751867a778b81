package logic

import "time"

// Debouncer turns a chattering raw level into a stable one. A new level is
// only committed after it has been observed unchanged for the full duration.
type Debouncer struct {
	duration   Millis
	lastRaw    Level
	lastChange Millis
	stable     Level
}

// NewDebouncer creates a debouncer whose stable and last-seen levels start at
// initial.
func NewDebouncer(initial Level, duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: durationMillis(duration),
		lastRaw:  initial,
		stable:   initial,
	}
}

// SetDuration changes the stability threshold. Timestamps already recorded
// are kept; only future comparisons use the new value.
func (d *Debouncer) SetDuration(duration time.Duration) {
	d.duration = durationMillis(duration)
}

// Debounce feeds one raw sample and returns the current stable level.
func (d *Debouncer) Debounce(raw Level, now Millis) Level {
	if raw != d.lastRaw {
		// Candidate level must survive the full duration from here.
		d.lastRaw = raw
		d.lastChange = now
		return d.stable
	}

	if Since(d.lastChange, now) >= d.duration {
		d.stable = raw
	}
	return d.stable
}

// Stable returns the last committed level without sampling.
func (d *Debouncer) Stable() Level {
	return d.stable
}
