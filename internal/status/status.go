// Package status provides a thread-safe status tracker for the button-sensor daemon.
// It is read by the HTTP handlers and by MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-sensor/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// ButtonInfo identifies the monitored button.
type ButtonInfo struct {
	Name        string
	Pin         int
	ActiveLevel logic.Level
	Driver      string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Button      ButtonInfo
	Timing      logic.Config
}

// LastEvent is the most recent event emitted by the button.
type LastEvent struct {
	Timestamp  time.Time
	Type       logic.EventType
	ClickCount int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         logic.State
	Pressed       bool
	PendingClicks int
	Counts        logic.EventCounts
	LastEvent     *LastEvent
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateIdle,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the state machine view and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(state logic.State, pressed bool, pendingClicks int, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Pressed = pressed
	t.snap.PendingClicks = pendingClicks
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordEvent remembers e as the last emitted event.
func (t *Tracker) RecordEvent(ts time.Time, e logic.Event) {
	t.mu.Lock()
	t.snap.LastEvent = &LastEvent{Timestamp: ts, Type: e.Type, ClickCount: e.ClickCount}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastEvent != nil {
		last := *s.LastEvent
		s.LastEvent = &last
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
