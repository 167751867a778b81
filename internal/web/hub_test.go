package web

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
)

func dialEvents(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRoundTrip(t *testing.T) {
	ts, _, hub := newTestServer(t)
	conn := dialEvents(t, ts.URL)
	waitForClients(t, hub, 1)

	frames := []string{
		`{"button":{"name":"doorbell","event":"BUTTON_DOWN"}}`,
		`{"button":{"name":"doorbell","event":"BUTTON_UP"}}`,
	}
	for _, f := range frames {
		hub.Broadcast([]byte(f))
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i, want := range frames {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("frame %d: read: %v", i, err)
		}
		if mt != websocket.TextMessage {
			t.Errorf("frame %d: message type %d, want text", i, mt)
		}
		if string(data) != want {
			t.Errorf("frame %d: got %s, want %s", i, data, want)
		}
	}
}

func TestHubMultipleClients(t *testing.T) {
	ts, _, hub := newTestServer(t)
	a := dialEvents(t, ts.URL)
	b := dialEvents(t, ts.URL)
	waitForClients(t, hub, 2)

	hub.Broadcast([]byte(`{"button":{"event":"CLICK","click_count":2}}`))

	for name, conn := range map[string]*websocket.Conn{"a": a, "b": b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %s: read: %v", name, err)
		}
		if !strings.Contains(string(data), `"click_count":2`) {
			t.Errorf("client %s: unexpected frame %s", name, data)
		}
	}
}

func TestHubClientDisconnectUnregisters(t *testing.T) {
	ts, _, hub := newTestServer(t)
	conn := dialEvents(t, ts.URL)
	waitForClients(t, hub, 1)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	waitForClients(t, hub, 0)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	ts, _, hub := newTestServer(t)
	conn := dialEvents(t, ts.URL)
	waitForClients(t, hub, 1)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected read error after hub close")
	}
	if hub.Clients() != 0 {
		t.Errorf("expected 0 clients after close, got %d", hub.Clients())
	}

	// New connections are turned away.
	late := dialEvents(t, ts.URL)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := late.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}

	hub.Close() // idempotent
}

func TestHubDropsFramesForSlowClient(t *testing.T) {
	log, _ := test.NewNullLogger()
	hub := NewHub(2, log)

	slow := &client{send: make(chan []byte, 2)}
	hub.clients[slow] = struct{}{}

	for i := 0; i < 5; i++ {
		hub.Broadcast([]byte{byte('0' + i)})
	}

	if len(slow.send) != 2 {
		t.Errorf("queued: got %d, want 2", len(slow.send))
	}
	if hub.Dropped() != 3 {
		t.Errorf("dropped: got %d, want 3", hub.Dropped())
	}
	if got := <-slow.send; string(got) != "0" {
		t.Errorf("first queued frame: got %q, want oldest", got)
	}
}

func TestNewHubDefaultBuffer(t *testing.T) {
	log, _ := test.NewNullLogger()
	if hub := NewHub(0, log); hub.buffer != DefaultClientBuffer {
		t.Errorf("buffer: got %d, want %d", hub.buffer, DefaultClientBuffer)
	}
}
