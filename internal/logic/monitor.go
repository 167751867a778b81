package logic

import "time"

// Monitor counts emitted events and produces periodic heartbeats.
// It implements Handler so it can be registered directly on a Button.
type Monitor struct {
	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewMonitor creates a monitor. The startTime is used for calculating uptime
// in heartbeat events.
func NewMonitor(startTime time.Time) *Monitor {
	return &Monitor{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// OnButtonEvent records e.
func (m *Monitor) OnButtonEvent(e Event) {
	switch e.Type {
	case EventButtonDown:
		m.counts.ButtonDown++
	case EventButtonUp:
		m.counts.ButtonUp++
	case EventClick:
		m.counts.Click++
		m.counts.Clicks += e.ClickCount
	case EventLongPressBegin:
		m.counts.LongPressBegin++
	case EventDuringLongPress:
		m.counts.DuringLongPress++
	case EventLongPressEnd:
		m.counts.LongPressEnd++
	}
}

// Counts returns a copy of the event counts.
func (m *Monitor) Counts() EventCounts {
	return m.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
