package logic

import "time"

// Button interprets the raw level of one push-button as semantic events.
// It is driven by calling Tick periodically and is not safe for concurrent
// use; configuration changes must happen on the goroutine that calls Tick.
type Button struct {
	pin         int
	activeLevel Level
	cfg         Config
	debouncer   *Debouncer

	state      State
	active     bool
	pressStart Millis
	lastClick  Millis
	lastNotify Millis
	clicks     int

	sinks []registration
}

type sinkSlot int

const (
	slotFunc sinkSlot = iota
	slotHandler
)

type registration struct {
	slot    sinkSlot
	handler Handler
	param   any
}

// NewButton creates a button bound to pin. activeLevel is the raw level that
// means "pressed" (Low for a switch to ground with a pull-up).
func NewButton(pin int, activeLevel Level, cfg Config) *Button {
	b := &Button{
		pin:         pin,
		activeLevel: activeLevel,
		state:       StateIdle,
		debouncer:   NewDebouncer(!activeLevel, cfg.Debounce),
	}
	b.SetConfig(cfg)
	return b
}

// Pin returns the pin the button was created for.
func (b *Button) Pin() int { return b.pin }

// ActiveLevel returns the raw level that counts as pressed.
func (b *Button) ActiveLevel() Level { return b.activeLevel }

// State returns the current state machine state.
func (b *Button) State() State { return b.state }

// Active reports whether the debounced input is currently pressed.
func (b *Button) Active() bool { return b.active }

// PendingClicks returns the clicks counted in a burst that has not been
// finalized yet.
func (b *Button) PendingClicks() int { return b.clicks }

// Config returns the current timing configuration.
func (b *Button) Config() Config { return b.cfg }

// SetConfig replaces the whole timing configuration.
func (b *Button) SetConfig(cfg Config) {
	if cfg.MaxClickCount < 1 {
		cfg.MaxClickCount = 1
	}
	b.cfg = cfg
	b.debouncer.SetDuration(cfg.Debounce)
}

// SetDebounceDuration sets how long a raw level must hold before it is
// accepted.
func (b *Button) SetDebounceDuration(d time.Duration) {
	b.cfg.Debounce = d
	b.debouncer.SetDuration(d)
}

// SetLongPressThreshold sets how long the button must be held before
// LONG_PRESS_BEGIN fires.
func (b *Button) SetLongPressThreshold(d time.Duration) {
	b.cfg.LongPress = d
}

// SetDuringLongPressInterval sets the DURING_LONG_PRESS repeat interval.
// Zero disables the repeat.
func (b *Button) SetDuringLongPressInterval(d time.Duration) {
	b.cfg.DuringLongPressInterval = d
}

// SetMultiClickWindow sets how long after a release another press still
// joins the current burst.
func (b *Button) SetMultiClickWindow(d time.Duration) {
	b.cfg.MultiClickWindow = d
}

// SetMaxClickCount sets the click count at which a burst is finalized
// immediately. Values below 1 are clamped to 1.
func (b *Button) SetMaxClickCount(n int) {
	if n < 1 {
		n = 1
	}
	b.cfg.MaxClickCount = n
}

// SetEventFunc registers fn as the callable event sink. param is delivered
// back in Event.Param. A nil fn removes the sink.
func (b *Button) SetEventFunc(fn func(Event), param any) {
	if fn == nil {
		b.register(slotFunc, nil, nil)
		return
	}
	b.register(slotFunc, HandlerFunc(fn), param)
}

// SetEventHandler registers h as the object event sink. param is delivered
// back in Event.Param. A nil h removes the sink.
func (b *Button) SetEventHandler(h Handler, param any) {
	b.register(slotHandler, h, param)
}

// register keeps sinks in first-registration order. Replacing a slot keeps
// its position.
func (b *Button) register(slot sinkSlot, h Handler, param any) {
	for i, r := range b.sinks {
		if r.slot != slot {
			continue
		}
		if h == nil {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			return
		}
		b.sinks[i] = registration{slot: slot, handler: h, param: param}
		return
	}
	if h != nil {
		b.sinks = append(b.sinks, registration{slot: slot, handler: h, param: param})
	}
}

// Tick samples the raw level at time now and advances the state machine by
// at most one transition, emitting any resulting events synchronously.
func (b *Button) Tick(raw Level, now Millis) {
	b.active = b.debouncer.Debounce(raw, now) == b.activeLevel

	switch b.state {
	case StateIdle:
		if b.active {
			b.press(now)
		}

	case StateDown:
		if !b.active {
			b.clicks++
			b.lastClick = now
			b.state = StateCounting
			b.emit(Event{Type: EventButtonUp, At: now})
			// Reaching the click budget closes the burst without waiting
			// for the multi-click window.
			if b.clicks >= b.cfg.MaxClickCount {
				b.finishBurst(now)
			}
		} else if Since(b.pressStart, now) >= durationMillis(b.cfg.LongPress) {
			// A hold abandons any burst it interrupted.
			b.clicks = 0
			b.lastNotify = now
			b.state = StateLongPress
			b.emit(Event{Type: EventLongPressBegin, At: now})
		}

	case StateCounting:
		if b.active {
			b.press(now)
		} else if b.clicks >= b.cfg.MaxClickCount ||
			Since(b.lastClick, now) >= durationMillis(b.cfg.MultiClickWindow) {
			b.finishBurst(now)
		}

	case StateLongPress:
		if !b.active {
			b.state = StateIdle
			b.emit(Event{Type: EventButtonUp, At: now})
			b.emit(Event{Type: EventLongPressEnd, At: now})
		} else if interval := durationMillis(b.cfg.DuringLongPressInterval); interval > 0 &&
			Since(b.lastNotify, now) >= interval {
			b.lastNotify = now
			b.emit(Event{Type: EventDuringLongPress, At: now})
		}
	}
}

func (b *Button) press(now Millis) {
	b.pressStart = now
	b.state = StateDown
	b.emit(Event{Type: EventButtonDown, At: now})
}

func (b *Button) finishBurst(now Millis) {
	count := b.clicks
	b.clicks = 0
	b.state = StateIdle
	b.emit(Event{Type: EventClick, ClickCount: count, At: now})
}

func (b *Button) emit(e Event) {
	for _, r := range b.sinks {
		e.Param = r.param
		r.handler.OnButtonEvent(e)
	}
}
