package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/button-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"millis": func(d time.Duration) string {
		return fmt.Sprintf("%dms", d.Milliseconds())
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Button Sensor: {{.Config.Button.Name}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.pressed { color: green; font-weight: bold; }
.released { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
#feed { list-style: none; padding: 0; }
</style>
</head>
<body>
<h1>Button Sensor: {{.Config.Button.Name}}<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>State</h2>
<table>
<tr><th>State</th><td id="fsm-state" class="{{if eq (stateOrUnknown (printf "%s" .State)) "UNKNOWN"}}unknown{{end}}">{{stateOrUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Button</th><td id="pressed" class="{{if .Pressed}}pressed{{else}}released{{end}}">{{if .Pressed}}pressed{{else}}released{{end}}</td></tr>
<tr><th>Pending clicks</th><td>{{.PendingClicks}}</td></tr>
<tr><th>Last event</th><td id="last-event">{{if .LastEvent}}{{.LastEvent.Type}}{{if .LastEvent.ClickCount}} ({{.LastEvent.ClickCount}}){{end}} at {{.LastEvent.Timestamp.UTC.Format "15:04:05.000"}}{{else}}none{{end}}</td></tr>
</table>

<h2>Live</h2>
<ul id="feed"></ul>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Button down</th><td>{{.Counts.ButtonDown}}</td></tr>
<tr><th>Button up</th><td>{{.Counts.ButtonUp}}</td></tr>
<tr><th>Click events</th><td>{{.Counts.Click}} ({{.Counts.Clicks}} clicks)</td></tr>
<tr><th>Long press</th><td>{{.Counts.LongPressBegin}}</td></tr>
<tr><th>During long press</th><td>{{.Counts.DuringLongPress}}</td></tr>
<tr><th>Long press end</th><td>{{.Counts.LongPressEnd}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Pin</th><td>{{.Config.Button.Pin}} (active {{.Config.Button.ActiveLevel}}{{if .Config.Button.Driver}}, {{.Config.Button.Driver}}{{end}})</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{millis .Config.Timing.Debounce}}</td></tr>
<tr><th>Long press</th><td>{{millis .Config.Timing.LongPress}}</td></tr>
<tr><th>During interval</th><td>{{if eq .Config.Timing.DuringLongPressInterval 0}}disabled{{else}}{{millis .Config.Timing.DuringLongPressInterval}}{{end}}</td></tr>
<tr><th>Multi-click window</th><td>{{millis .Config.Timing.MultiClickWindow}}</td></tr>
<tr><th>Max clicks</th><td>{{.Config.Timing.MaxClickCount}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("fsm-state");
  var pressedEl = document.getElementById("pressed");
  var lastEl = document.getElementById("last-event");
  var feed = document.getElementById("feed");
  var next = {
    BUTTON_DOWN: "DOWN", CLICK: "IDLE", LONG_PRESS_BEGIN: "LONG_PRESS", LONG_PRESS_END: "IDLE"
  };

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setPressed(p) {
    pressedEl.textContent = p ? "pressed" : "released";
    pressedEl.className = p ? "pressed" : "released";
  }

  function onEvent(b) {
    var label = b.event + (b.click_count ? " (" + b.click_count + ")" : "");
    lastEl.textContent = label + " at " + b.timestamp;
    if (b.event === "BUTTON_DOWN") setPressed(true);
    if (b.event === "BUTTON_UP") setPressed(false);
    if (b.event === "BUTTON_UP" && stateEl.textContent === "DOWN") stateEl.textContent = "COUNTING";
    if (next[b.event]) stateEl.textContent = next[b.event];

    var li = document.createElement("li");
    li.textContent = b.timestamp + " " + label;
    feed.insertBefore(li, feed.firstChild);
    while (feed.children.length > 20) feed.removeChild(feed.lastChild);
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/events");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onerror = function() { setDot("err", "error"); };
    ws.onclose = function() {
      setDot("pending", "reconnecting");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(m) {
      try {
        var msg = JSON.parse(m.data);
        if (msg.button) onEvent(msg.button);
      } catch (e) {}
    };
  }

  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
