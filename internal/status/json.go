package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/button-sensor/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string         `json:"event,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Button        ButtonJSON     `json:"button"`
	State         string         `json:"state"`
	Pressed       bool           `json:"pressed"`
	PendingClicks int            `json:"pending_clicks"`
	LastEvent     *LastEventJSON `json:"last_event,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	StartTime     string         `json:"start_time"`
	Timestamp     string         `json:"timestamp"`
	MQTT          MQTTStatus     `json:"mqtt"`
	Counts        CountsJSON     `json:"event_counts"`
	Network       *NetworkJSON   `json:"network,omitempty"`
	Config        ConfigJSON     `json:"config"`
}

// ButtonJSON identifies the button.
type ButtonJSON struct {
	Name        string `json:"name"`
	Pin         int    `json:"pin"`
	ActiveLevel string `json:"active_level"`
	Driver      string `json:"driver,omitempty"`
}

// LastEventJSON is the JSON representation of the last event.
type LastEventJSON struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	ClickCount int    `json:"click_count,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ButtonDown      int `json:"button_down"`
	ButtonUp        int `json:"button_up"`
	Click           int `json:"click"`
	Clicks          int `json:"clicks"`
	LongPressBegin  int `json:"long_press_begin"`
	DuringLongPress int `json:"during_long_press"`
	LongPressEnd    int `json:"long_press_end"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs             int64  `json:"poll_ms"`
	HeartbeatMs        int64  `json:"heartbeat_ms"`
	DebounceMs         int64  `json:"debounce_ms"`
	LongPressMs        int64  `json:"long_press_ms"`
	DuringLongPressMs  int64  `json:"during_long_press_ms"`
	MultiClickWindowMs int64  `json:"multi_click_window_ms"`
	MaxClickCount      int    `json:"max_click_count"`
	Broker             string `json:"broker"`
	HTTPAddr           string `json:"http_addr"`
}

func countsJSON(c logic.EventCounts) CountsJSON {
	return CountsJSON{
		ButtonDown:      c.ButtonDown,
		ButtonUp:        c.ButtonUp,
		Click:           c.Click,
		Clicks:          c.Clicks,
		LongPressBegin:  c.LongPressBegin,
		DuringLongPress: c.DuringLongPress,
		LongPressEnd:    c.LongPressEnd,
	}
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.State)
	if state == "" {
		state = "UNKNOWN"
	}
	timing := snap.Config.Timing

	inner := StatusInner{
		Button: ButtonJSON{
			Name:        snap.Config.Button.Name,
			Pin:         snap.Config.Button.Pin,
			ActiveLevel: snap.Config.Button.ActiveLevel.String(),
			Driver:      snap.Config.Button.Driver,
		},
		State:         state,
		Pressed:       snap.Pressed,
		PendingClicks: snap.PendingClicks,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        countsJSON(snap.Counts),
		Config: ConfigJSON{
			PollMs:             snap.Config.PollMs,
			HeartbeatMs:        snap.Config.HeartbeatMs,
			DebounceMs:         timing.Debounce.Milliseconds(),
			LongPressMs:        timing.LongPress.Milliseconds(),
			DuringLongPressMs:  timing.DuringLongPressInterval.Milliseconds(),
			MultiClickWindowMs: timing.MultiClickWindow.Milliseconds(),
			MaxClickCount:      timing.MaxClickCount,
			Broker:             snap.Config.Broker,
			HTTPAddr:           snap.Config.HTTPAddr,
		},
	}

	if snap.LastEvent != nil {
		inner.LastEvent = &LastEventJSON{
			Timestamp:  snap.LastEvent.Timestamp.UTC().Format(time.RFC3339Nano),
			Event:      string(snap.LastEvent.Type),
			ClickCount: snap.LastEvent.ClickCount,
		}
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
