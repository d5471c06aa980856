package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/led-blinker/internal/status"
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
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		}
		return "unknown"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>LED Blinker</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.swatch { display: inline-block; width: 1em; height: 1em; border: 1px solid #444; vertical-align: middle; margin-right: 6px; }
</style>
</head>
<body>
<h1>LED Blinker</h1>

<h2>Pixel</h2>
<table>
<tr><th>LED</th><td class="{{stateClass (stateOrUnknown (printf "%s" .LED))}}">{{stateOrUnknown (printf "%s" .LED)}}</td></tr>
<tr><th>Colour</th><td><span class="swatch" style="background: {{.Hex}}"></span>{{.Hex}}</td></tr>
<tr><th>Blinking</th><td class="{{if .Blinking}}on{{else}}off{{end}}">{{if .Blinking}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>Interval</th><td>{{.Interval}} ticks ({{.IntervalValid}})</td></tr>
<tr><th>Count</th><td>{{.Count}}</td></tr>
<tr><th>Transitions</th><td>{{.Transitions}}</td></tr>
{{if ge .Config.SwitchLine 0}}<tr><th>Switch</th><td class="{{stateClass (stateOrUnknown (printf "%s" .Switch))}}">{{stateOrUnknown (printf "%s" .Switch)}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Pixel</th><td>{{.Config.Pixel}}</td></tr>
<tr><th>Params</th><td>{{.Config.ParamsPath}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Template needs Uptime and Hex as fields rather than computed values.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Hex    string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Hex:      status.HexColor(snap.Color.R, snap.Color.G, snap.Color.B),
	}
	indexTmpl.Execute(w, data)
}
