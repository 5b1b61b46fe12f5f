package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/status"
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
	"modeClass": func(m blink.Mode) string {
		switch m {
		case blink.ModeSolidOn:
			return "on"
		case blink.ModeBlinking:
			return "blink"
		case blink.ModeSolidOff:
			return "off"
		}
		return "unknown"
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
<title>ledblink</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.blink { color: #c80; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>ledblink{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>LEDs</h2>
<table>
<tr><th>#</th><th>Name</th><th>Line</th><th>Mode</th><th>On</th><th>Off</th><th>Toggles</th></tr>
{{range .LEDs.Channels}}<tr>
<td>{{.Index}}</td><td>{{.Name}}</td><td>{{.Line}}</td>
<td id="led-{{.Index}}-mode" class="{{modeClass .Mode}}">{{.Mode}}</td>
<td id="led-{{.Index}}-on">{{.OnMs}}ms</td><td id="led-{{.Index}}-off">{{.OffMs}}ms</td>
<td>{{.Toggles}}</td>
</tr>
{{end}}</table>

<h2>Buttons</h2>
<table>
<tr><th>Name</th><th>LED</th><th>State</th></tr>
{{range .Buttons}}<tr><td>{{.Name}}</td><td>{{if ge .Channel 0}}{{.Channel}}{{else}}-{{end}}</td><td>{{stateOrUnknown (printf "%s" .State)}}</td></tr>
{{end}}<tr><th>Ready</th><td colspan="2">{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Config.MirrorEndpoint}}<tr><th>Modbus mirror</th><td class="{{if .MirrorError}}disconnected{{else}}connected{{end}}">{{.Config.MirrorEndpoint}}{{if .MirrorError}} ({{.MirrorError}}){{end}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Configures</th><td>{{.Counts.Configures}}</td></tr>
<tr><th>Configure failures</th><td>{{.Counts.ConfigureFailures}}</td></tr>
<tr><th>Presses</th><td>{{.Counts.Presses}}</td></tr>
<tr><th>Releases</th><td>{{.Counts.Releases}}</td></tr>
<tr><th>Pin errors</th><td>{{.LEDs.PinErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Counter</th><td>{{.LEDs.FrequencyHz}} Hz{{if .Config.Sim}} (simulated GPIO){{end}}</td></tr>
<tr><th>Max interval</th><td>{{.LEDs.MaxIntervalMs}}ms</td></tr>
<tr><th>Seed</th><td>{{.Seed}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "{{.Config.TopicPrefix}}/led/+";
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var classes = { SOLID_ON: "on", BLINKING: "blink", SOLID_OFF: "off" };

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (!msg.led || msg.led.result !== "SUCCESS") return;
      var id = "led-" + msg.led.channel;
      var mode = document.getElementById(id + "-mode");
      if (!mode) return;
      mode.textContent = msg.led.mode;
      mode.className = classes[msg.led.mode] || "unknown";
      document.getElementById(id + "-on").textContent = msg.led.on_ms + "ms";
      document.getElementById(id + "-off").textContent = msg.led.off_ms + "ms";
    } catch (e) {}
  });
})();
</script>
{{end}}
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
