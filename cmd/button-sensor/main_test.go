package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/button-sensor/internal/gpio"
	"github.com/sweeney/button-sensor/internal/logic"
	"github.com/sweeney/button-sensor/internal/mqtt"
	"github.com/sweeney/button-sensor/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	// These are the canonical names from pi-helper.
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	want := &status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}

	if info.Type != want.Type {
		t.Errorf("Type: got %q, want %q", info.Type, want.Type)
	}
	if info.IP != want.IP {
		t.Errorf("IP: got %q, want %q", info.IP, want.IP)
	}
	if info.Status != want.Status {
		t.Errorf("Status: got %q, want %q", info.Status, want.Status)
	}
	if info.Gateway != want.Gateway {
		t.Errorf("Gateway: got %q, want %q", info.Gateway, want.Gateway)
	}
	if info.WifiStatus != want.WifiStatus {
		t.Errorf("WifiStatus: got %q, want %q", info.WifiStatus, want.WifiStatus)
	}
	if info.SSID != want.SSID {
		t.Errorf("SSID: got %q, want %q", info.SSID, want.SSID)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	info := readNetworkInfo()
	if info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}

	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" {
		t.Errorf("Type: got %q, want empty", info.Type)
	}
	if info.IP != "" {
		t.Errorf("IP: got %q, want empty", info.IP)
	}
	if info.Gateway != "" {
		t.Errorf("Gateway: got %q, want empty", info.Gateway)
	}
	if info.WifiStatus != "" {
		t.Errorf("WifiStatus: got %q, want empty", info.WifiStatus)
	}
	if info.SSID != "" {
		t.Errorf("SSID: got %q, want empty", info.SSID)
	}
}

// --- runLoop tests ---

var testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of level.
func repeat(level logic.Level, n int) []logic.Level {
	out := make([]logic.Level, n)
	for i := range out {
		out[i] = level
	}
	return out
}

// script concatenates runs of levels.
func script(runs ...[]logic.Level) []logic.Level {
	var out []logic.Level
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
// The fault range is fixed at construction.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (logic.Level, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return logic.Low, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// testTiming is the default timing with one click per burst.
func testTiming() logic.Config {
	return logic.Config{
		Debounce:                50 * time.Millisecond,
		LongPress:               800 * time.Millisecond,
		DuringLongPressInterval: 100 * time.Millisecond,
		MultiClickWindow:        400 * time.Millisecond,
		MaxClickCount:           1,
	}
}

// newTestLoop builds an active-low button named doorbell on pin 17 with a
// 10ms fake clock.
func newTestLoop(reader gpio.Reader, pub *mqtt.FakePublisher, timing logic.Config) *loop {
	return &loop{
		name:      "doorbell",
		reader:    reader,
		button:    logic.NewButton(17, logic.Low, timing),
		publisher: pub,
		now:       fakeClock(testStart, 10*time.Millisecond),
	}
}

// runRunLoop drives runLoop for nTicks and then delivers signal.
func runRunLoop(t *testing.T, l *loop, nTicks int, signal os.Signal) error {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(l, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	return <-errCh
}

func assertTypes(t *testing.T, pub *mqtt.FakePublisher, want ...logic.EventType) {
	t.Helper()
	got := pub.EventTypes()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events: got %v, want %v", got, want)
		}
	}
}

func TestRunLoopNoEventsWhileReleased(t *testing.T) {
	samples := repeat(logic.High, 50)
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.Events) != 0 {
		t.Errorf("expected 0 button events, got %d", len(pub.Events))
	}

	// Should have exactly one system event: SHUTDOWN
	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	if pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", pub.SystemEvents[0].Event)
	}
}

func TestRunLoopSingleClick(t *testing.T) {
	// Pressed (low) for samples 5..14, i.e. t=60..150ms.
	samples := script(repeat(logic.High, 5), repeat(logic.Low, 10), repeat(logic.High, 60))
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	assertTypes(t, pub, logic.EventButtonDown, logic.EventButtonUp, logic.EventClick)

	wantAt := []time.Duration{110, 210, 210}
	for i, ms := range wantAt {
		want := testStart.Add(ms * time.Millisecond)
		if !pub.Events[i].Timestamp.Equal(want) {
			t.Errorf("event %d: timestamp %v, want %v", i, pub.Events[i].Timestamp, want)
		}
	}

	click := pub.Events[2]
	if click.Event.ClickCount != 1 {
		t.Errorf("click count: got %d, want 1", click.Event.ClickCount)
	}
	if click.Button != "doorbell" || click.Pin != 17 {
		t.Errorf("button identity: got %q pin %d", click.Button, click.Pin)
	}
	if click.Event.Param != "doorbell" {
		t.Errorf("event param: got %v, want doorbell", click.Event.Param)
	}
	if !strings.Contains(string(pub.Payloads[2]), `"click_count":1`) {
		t.Errorf("click payload missing count: %s", pub.Payloads[2])
	}
}

func TestRunLoopDoubleClick(t *testing.T) {
	timing := testTiming()
	timing.MaxClickCount = 2

	// Two 100ms presses 100ms apart.
	samples := script(
		repeat(logic.High, 5),
		repeat(logic.Low, 10),
		repeat(logic.High, 10),
		repeat(logic.Low, 10),
		repeat(logic.High, 60),
	)
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, timing)

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	assertTypes(t, pub,
		logic.EventButtonDown, logic.EventButtonUp,
		logic.EventButtonDown, logic.EventButtonUp, logic.EventClick)
	if len(pub.Clicks) != 1 || pub.Clicks[0] != 2 {
		t.Errorf("clicks: got %v, want [2]", pub.Clicks)
	}
}

func TestRunLoopLongPress(t *testing.T) {
	// Held for t=60..1050ms.
	samples := script(repeat(logic.High, 5), repeat(logic.Low, 100), repeat(logic.High, 20))
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	assertTypes(t, pub,
		logic.EventButtonDown, logic.EventLongPressBegin, logic.EventDuringLongPress,
		logic.EventButtonUp, logic.EventLongPressEnd)

	wantAt := []time.Duration{110, 910, 1010, 1110, 1110}
	for i, ms := range wantAt {
		want := testStart.Add(ms * time.Millisecond)
		if !pub.Events[i].Timestamp.Equal(want) {
			t.Errorf("event %d (%s): timestamp %v, want %v", i, pub.Events[i].Event.Type, pub.Events[i].Timestamp, want)
		}
	}
}

func TestRunLoopBounceRejection(t *testing.T) {
	// Contact chatter shorter than the debounce duration never registers.
	var samples []logic.Level
	for i := 0; i < 20; i++ {
		samples = append(samples, repeat(logic.Low, 2)...)
		samples = append(samples, repeat(logic.High, 2)...)
	}
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.Events) != 0 {
		t.Errorf("expected chatter to be rejected, got %v", pub.EventTypes())
	}
}

func TestRunLoopGPIOReadError(t *testing.T) {
	reader := gpio.NewFakeReader(nil)
	reader.ReadError = errors.New("gpio read failed")
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(reader, pub, testTiming())

	if err := runRunLoop(t, l, 10, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop should not return error on GPIO read failure, got: %v", err)
	}

	if len(pub.Events) != 0 {
		t.Errorf("expected 0 button events, got %d", len(pub.Events))
	}
	if len(pub.SystemEvents) != 1 || pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected only SHUTDOWN, got %+v", pub.SystemEvents)
	}
}

func TestRunLoopGPIOErrorRecovery(t *testing.T) {
	// Five released samples, then three failed reads, then the button is held.
	inner := gpio.NewFakeReader(script(repeat(logic.High, 5), repeat(logic.Low, 1)))
	reader := &faultReader{
		inner:      inner,
		faultStart: 5,
		faultEnd:   8,
	}
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(reader, pub, testTiming())

	if err := runRunLoop(t, l, 30, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// First good low read is at t=90ms; it commits 50ms later.
	assertTypes(t, pub, logic.EventButtonDown)
	if want := testStart.Add(140 * time.Millisecond); !pub.Events[0].Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", pub.Events[0].Timestamp, want)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	samples := repeat(logic.High, 25)
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())
	l.heartbeat = 100 * time.Millisecond
	l.mqttStatus = pub
	l.tracker = status.NewTracker(testStart, status.Config{
		Button: status.ButtonInfo{Name: "doorbell", Pin: 17},
	})

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var heartbeats []mqtt.SystemEvent
	for _, se := range pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			heartbeats = append(heartbeats, se)
		}
	}
	if len(heartbeats) != 2 {
		t.Fatalf("expected 2 heartbeats, got %d", len(heartbeats))
	}
	if want := testStart.Add(100 * time.Millisecond); !heartbeats[0].Timestamp.Equal(want) {
		t.Errorf("first heartbeat at %v, want %v", heartbeats[0].Timestamp, want)
	}
	if heartbeats[0].Retained {
		t.Error("heartbeat should not be retained")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(heartbeats[0].RawPayload, &parsed); err != nil {
		t.Fatalf("heartbeat payload: %v", err)
	}
	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("payload event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected mqtt connected in heartbeat payload")
	}
	if parsed.Status.Button.Name != "doorbell" {
		t.Errorf("payload button: got %q", parsed.Status.Button.Name)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	samples := repeat(logic.High, 50)
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	for _, se := range pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			t.Fatal("heartbeat published with interval 0")
		}
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.42")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "associated")
	t.Setenv(envNetworkWifiSSID, "HomeNet")

	samples := repeat(logic.High, 12)
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())
	l.heartbeat = 100 * time.Millisecond
	l.tracker = status.NewTracker(testStart, status.Config{})

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var hb *mqtt.SystemEvent
	for i := range pub.SystemEvents {
		if pub.SystemEvents[i].Event == "HEARTBEAT" {
			hb = &pub.SystemEvents[i]
			break
		}
	}
	if hb == nil {
		t.Fatal("expected a HEARTBEAT system event")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(hb.RawPayload, &parsed); err != nil {
		t.Fatalf("heartbeat payload: %v", err)
	}
	net := parsed.Status.Network
	if net == nil {
		t.Fatal("HEARTBEAT payload missing network info")
	}
	if net.Status != "connected" {
		t.Errorf("Network.Status: got %q, want %q", net.Status, "connected")
	}
	if net.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", net.IP, "192.168.1.42")
	}
	if net.SSID != "HomeNet" {
		t.Errorf("Network.SSID: got %q, want %q", net.SSID, "HomeNet")
	}
}

func TestRunLoopPublishError(t *testing.T) {
	samples := script(repeat(logic.High, 5), repeat(logic.Low, 10), repeat(logic.High, 60))
	pub := mqtt.NewFakePublisher()
	pub.PublishError = errors.New("broker unavailable")
	l := newTestLoop(gpio.NewFakeReader(samples), pub, testTiming())
	l.tracker = status.NewTracker(testStart, status.Config{})

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop should not return error on publish failure, got: %v", err)
	}

	// Failed publishes are not recorded, but the loop keeps going and
	// the tracker still sees every event.
	if len(pub.Events) != 0 {
		t.Errorf("expected 0 recorded events (publish failed), got %d", len(pub.Events))
	}
	snap := l.tracker.Snapshot()
	if snap.Counts.Click != 1 {
		t.Errorf("tracker click count: got %d, want 1", snap.Counts.Click)
	}

	found := false
	for _, se := range pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	timing := testTiming()
	timing.MaxClickCount = 3

	// Two clicks; the burst is still open when the loop stops.
	samples := script(
		repeat(logic.High, 5),
		repeat(logic.Low, 10),
		repeat(logic.High, 10),
		repeat(logic.Low, 10),
		repeat(logic.High, 10),
	)
	pub := mqtt.NewFakePublisher()
	pub.Connected = true
	l := newTestLoop(gpio.NewFakeReader(samples), pub, timing)
	l.mqttStatus = pub
	l.tracker = status.NewTracker(testStart, status.Config{})

	if err := runRunLoop(t, l, len(samples), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	snap := l.tracker.Snapshot()
	if snap.State != logic.StateCounting {
		t.Errorf("State: got %q, want COUNTING", snap.State)
	}
	if snap.PendingClicks != 2 {
		t.Errorf("PendingClicks: got %d, want 2", snap.PendingClicks)
	}
	if snap.Counts.ButtonDown != 2 || snap.Counts.ButtonUp != 2 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
	if snap.LastEvent == nil || snap.LastEvent.Type != logic.EventButtonUp {
		t.Errorf("LastEvent: got %+v", snap.LastEvent)
	}
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(pub.SystemEvents[0].RawPayload, &parsed); err != nil {
		t.Fatalf("shutdown payload: %v", err)
	}
	if parsed.Status.PendingClicks != 2 {
		t.Errorf("shutdown payload pending clicks: got %d, want 2", parsed.Status.PendingClicks)
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(repeat(logic.High, 4)), pub, testTiming())

	if err := runRunLoop(t, l, 4, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if se.Retained != true {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(repeat(logic.High, 4)), pub, testTiming())

	if err := runRunLoop(t, l, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(pub.SystemEvents))
	}
	se := pub.SystemEvents[0]
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}
	// Without a tracker the payload is built from the event fields.
	if !strings.Contains(string(pub.SystemPayloads[0]), `"reason":"SIGTERM"`) {
		t.Errorf("unexpected payload: %s", pub.SystemPayloads[0])
	}
}

func TestRunLoopShutdownUnknownSignal(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	l := newTestLoop(gpio.NewFakeReader(repeat(logic.High, 1)), pub, testTiming())

	if err := runRunLoop(t, l, 1, syscall.SIGHUP); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if got := pub.SystemEvents[0].Reason; got != "UNKNOWN" {
		t.Errorf("reason: got %q, want UNKNOWN", got)
	}
}

func TestFormatState(t *testing.T) {
	tests := []struct {
		raw, active logic.Level
		want        string
	}{
		{logic.Low, logic.Low, "doorbell: raw=LOW (pressed)"},
		{logic.High, logic.Low, "doorbell: raw=HIGH (released)"},
		{logic.High, logic.High, "doorbell: raw=HIGH (pressed)"},
	}
	for _, tt := range tests {
		if got := formatState("doorbell", tt.raw, tt.active); got != tt.want {
			t.Errorf("formatState(%s, %s): got %q, want %q", tt.raw, tt.active, got, tt.want)
		}
	}
}

// --- config tests ---

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Poll != 10*time.Millisecond {
		t.Errorf("Poll: got %v, want 10ms", cfg.Poll)
	}
	if cfg.SendTimeout != 5*time.Second {
		t.Errorf("SendTimeout: got %v, want 5s", cfg.SendTimeout)
	}
	if cfg.Driver != gpio.DriverGPIOCDev {
		t.Errorf("Driver: got %q", cfg.Driver)
	}
	if cfg.Button.Pin != gpio.DefaultPin {
		t.Errorf("Button.Pin: got %d, want %d", cfg.Button.Pin, gpio.DefaultPin)
	}
	if cfg.activeLevel() != logic.Low {
		t.Error("expected active-low by default")
	}
	if got := cfg.timing(); got != logic.DefaultConfig() {
		t.Errorf("timing: got %+v, want %+v", got, logic.DefaultConfig())
	}
}

func TestLoadConfigCommandLine(t *testing.T) {
	cfg, err := loadConfig([]string{
		"--poll", "5ms",
		"--send-timeout", "250ms",
		"--driver", "periph",
		"--button.name", "doorbell",
		"--button.pin", "22",
		"--button.active-level", "high",
		"--button.long-press", "1s",
		"--button.during-long-press", "0",
		"--button.max-clicks", "3",
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Poll != 5*time.Millisecond {
		t.Errorf("Poll: got %v, want 5ms", cfg.Poll)
	}
	if cfg.SendTimeout != 250*time.Millisecond {
		t.Errorf("SendTimeout: got %v, want 250ms", cfg.SendTimeout)
	}
	if cfg.Driver != gpio.DriverPeriph {
		t.Errorf("Driver: got %q, want periph", cfg.Driver)
	}
	if cfg.Button.Name != "doorbell" || cfg.Button.Pin != 22 {
		t.Errorf("Button: got %+v", cfg.Button)
	}
	if cfg.activeLevel() != logic.High {
		t.Error("expected active-high")
	}
	timing := cfg.timing()
	if timing.LongPress != time.Second {
		t.Errorf("LongPress: got %v, want 1s", timing.LongPress)
	}
	if timing.DuringLongPressInterval != 0 {
		t.Errorf("DuringLongPressInterval: got %v, want 0", timing.DuringLongPressInterval)
	}
	if timing.MaxClickCount != 3 {
		t.Errorf("MaxClickCount: got %d, want 3", timing.MaxClickCount)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := [][]string{
		{"--driver", "sysfs"},
		{"--button.active-level", "sideways"},
		{"--poll", "0s"},
		{"--send-timeout", "0s"},
		{"--button.name", ""},
	}
	for _, args := range tests {
		if _, err := loadConfig(args); err == nil {
			t.Errorf("loadConfig(%v): expected error", args)
		}
	}
}

func TestLoadConfigIniFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "button-sensor.conf")
	ini := `[Application Options]
broker = tcp://10.0.0.5:1883
poll = 20ms
button.name = gate
button.pin = 27
`
	if err := os.WriteFile(path, []byte(ini), 0o644); err != nil {
		t.Fatal(err)
	}

	// The command line wins over the file.
	cfg, err := loadConfig([]string{"--config", path, "--poll", "15ms"})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Broker != "tcp://10.0.0.5:1883" {
		t.Errorf("Broker: got %q", cfg.Broker)
	}
	if cfg.Poll != 15*time.Millisecond {
		t.Errorf("Poll: got %v, want 15ms from command line", cfg.Poll)
	}
	if cfg.Button.Name != "gate" || cfg.Button.Pin != 27 {
		t.Errorf("Button: got %+v", cfg.Button)
	}
	// Untouched options keep their defaults.
	if cfg.Button.Debounce != 50*time.Millisecond {
		t.Errorf("Debounce: got %v, want 50ms", cfg.Button.Debounce)
	}
}

func TestLoadConfigMissingIniFile(t *testing.T) {
	if _, err := loadConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.conf")}); err == nil {
		t.Error("expected error for missing config file")
	}
}
