package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	LED           string       `json:"led"`
	Color         string       `json:"color"`
	Blinking      bool         `json:"blinking"`
	Transitions   uint32       `json:"transitions"`
	Count         uint32       `json:"count"`
	Interval      IntervalJSON `json:"interval"`
	Switch        string       `json:"switch,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Config        ConfigJSON   `json:"config"`
}

// IntervalJSON is the blink interval parameter.
type IntervalJSON struct {
	Ticks    uint32 `json:"ticks"`
	Validity string `json:"validity"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ParamsPath  string `json:"params_path"`
	Pixel       string `json:"pixel"`
	SwitchLine  int    `json:"switch_line"`
}

// HexColor formats an RGB triple as #rrggbb.
func HexColor(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func buildInner(snap Snapshot) StatusInner {
	led := string(snap.LED)
	if led == "" {
		led = "UNKNOWN"
	}
	valid := string(snap.IntervalValid)
	if valid == "" {
		valid = "UNINIT"
	}

	return StatusInner{
		LED:           led,
		Color:         HexColor(snap.Color.R, snap.Color.G, snap.Color.B),
		Blinking:      snap.Blinking,
		Transitions:   snap.Transitions,
		Count:         snap.Count,
		Interval:      IntervalJSON{Ticks: snap.Interval, Validity: valid},
		Switch:        string(snap.Switch),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ParamsPath:  snap.Config.ParamsPath,
			Pixel:       snap.Config.Pixel,
			SwitchLine:  snap.Config.SwitchLine,
		},
	}
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
