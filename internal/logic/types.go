// Package logic contains the pure button interpretation logic: debounce,
// click/long-press state machine and event dispatch.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as a Millis counter by the caller.
package logic

import (
	"math"
	"time"
)

// Millis is a free-running millisecond counter. It wraps at math.MaxUint32;
// all elapsed-time comparisons subtract in uint32 so the wrap is harmless.
type Millis uint32

// Since returns the time elapsed from ref to now, tolerating one wrap of the
// counter.
func Since(ref, now Millis) Millis {
	return now - ref
}

// ElapsedMillis converts a wall-clock instant into the wrapping counter,
// measured from start.
func ElapsedMillis(start, t time.Time) Millis {
	return Millis(uint64(t.Sub(start) / time.Millisecond))
}

// durationMillis converts a configured duration into counter units.
func durationMillis(d time.Duration) Millis {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return Millis(ms)
}

// Level is a raw digital input level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// String returns "HIGH" or "LOW".
func (l Level) String() string {
	if l {
		return "HIGH"
	}
	return "LOW"
}

// State is the state of the click/press state machine.
type State string

const (
	StateIdle      State = "IDLE"
	StateDown      State = "DOWN"
	StateCounting  State = "COUNTING"
	StateLongPress State = "LONG_PRESS"
)

// EventType identifies a semantic button event.
type EventType string

const (
	EventButtonDown      EventType = "BUTTON_DOWN"
	EventButtonUp        EventType = "BUTTON_UP"
	EventClick           EventType = "CLICK"
	EventLongPressBegin  EventType = "LONG_PRESS_BEGIN"
	EventDuringLongPress EventType = "DURING_LONG_PRESS"
	EventLongPressEnd    EventType = "LONG_PRESS_END"
)

// Event is a single emitted button event.
type Event struct {
	Type EventType
	// Param is the value supplied when the receiving handler was registered,
	// returned unmodified.
	Param any
	// ClickCount is the number of clicks in the burst; only set for EventClick.
	ClickCount int
	// At is the tick time at which the event was emitted.
	At Millis
}

// Config holds the tunable timing of a button. Every field may be changed
// at any time and takes effect on the next Tick.
type Config struct {
	// Debounce is how long the raw level must be stable before it is trusted.
	Debounce time.Duration
	// LongPress is how long a press must be held to become a long press.
	LongPress time.Duration
	// DuringLongPressInterval is the repeat interval of DURING_LONG_PRESS
	// while a long press is held. Zero disables the repeat.
	DuringLongPressInterval time.Duration
	// MultiClickWindow is the quiet time after a release that finalizes a
	// click burst.
	MultiClickWindow time.Duration
	// MaxClickCount finalizes a burst as soon as it is reached. Values below
	// 1 are treated as 1.
	MaxClickCount int
}

// DefaultConfig returns the stock timing.
func DefaultConfig() Config {
	return Config{
		Debounce:                50 * time.Millisecond,
		LongPress:               800 * time.Millisecond,
		DuringLongPressInterval: 100 * time.Millisecond,
		MultiClickWindow:        400 * time.Millisecond,
		MaxClickCount:           1,
	}
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	ButtonDown      int
	ButtonUp        int
	Click           int
	Clicks          int // sum of ClickCount over all CLICK events
	LongPressBegin  int
	DuringLongPress int
	LongPressEnd    int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
