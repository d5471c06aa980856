// Package mqtt carries commands in and telemetry, events, responses and
// system events out over MQTT, with an abstraction for testing.
package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/led-blinker/internal/logic"
)

const (
	// TopicCommands is subscribed for inbound commands.
	TopicCommands = "led/blinker/commands"
	// TopicResponses carries one acknowledgement per command.
	TopicResponses = "led/blinker/responses"
	// TopicTelemetry carries telemetry channel updates.
	TopicTelemetry = "led/blinker/telemetry"
	// TopicEvents carries the blinker's log events.
	TopicEvents = "led/blinker/events"
	// TopicSystem carries daemon lifecycle events.
	TopicSystem = "led/blinker/system"
)

// ErrBuffered is returned when a message could not be sent because the
// broker is unreachable. The message is held for replay on reconnect.
var ErrBuffered = errors.New("mqtt: not connected, message buffered")

// Publisher publishes to MQTT. Errors are returned to the caller, which
// logs them; they must never stop the control loop.
type Publisher interface {
	PublishTelemetry(t Telemetry) error
	PublishEvent(ts time.Time, event logic.Event) error
	PublishResponse(r Response) error
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Inbound is a decoded command, or the error that prevented decoding it.
// Cmd carries whatever opcode and seq could be recovered.
type Inbound struct {
	Cmd logic.Command
	Err error
}

// Telemetry is a single telemetry channel sample. Value is a State or a count.
type Telemetry struct {
	Timestamp time.Time
	Channel   string
	Value     any
}

// Response acknowledges one command.
type Response struct {
	Timestamp time.Time
	Opcode    logic.Opcode
	Seq       uint32
	Status    logic.Response
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ErrBadArg is returned by DecodeCommand when arg is neither a string nor a number.
var ErrBadArg = errors.New("arg must be a string or a number")

// ErrNoOpcode is returned by DecodeCommand when the opcode is missing.
var ErrNoOpcode = errors.New("missing opcode")

type commandPayload struct {
	Opcode string          `json:"opcode"`
	Seq    uint32          `json:"seq"`
	Arg    json.RawMessage `json:"arg"`
}

// DecodeCommand parses a command payload such as
// {"opcode":"BLINKING_ON_OFF","seq":7,"arg":"ON"}.
// On error the returned command still carries the opcode and seq when the
// payload got far enough to supply them.
func DecodeCommand(payload []byte) (logic.Command, error) {
	var p commandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return logic.Command{Opcode: logic.Opcode(p.Opcode), Seq: p.Seq}, fmt.Errorf("decode command: %w", err)
	}
	cmd := logic.Command{Opcode: logic.Opcode(p.Opcode), Seq: p.Seq}
	if p.Opcode == "" {
		return cmd, ErrNoOpcode
	}

	arg := bytes.TrimSpace(p.Arg)
	switch {
	case len(arg) == 0 || bytes.Equal(arg, []byte("null")):
	case arg[0] == '"':
		if err := json.Unmarshal(arg, &cmd.Arg); err != nil {
			return cmd, fmt.Errorf("decode arg: %w", err)
		}
	case arg[0] == '-' || (arg[0] >= '0' && arg[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(arg, &n); err != nil {
			return cmd, fmt.Errorf("decode arg: %w", err)
		}
		cmd.Arg = n.String()
	default:
		return cmd, ErrBadArg
	}
	return cmd, nil
}

// TelemetryPayload is the MQTT payload for a telemetry sample.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains the telemetry details.
type TelemetryInner struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Value     any    `json:"value"`
}

// FormatTelemetryPayload creates the JSON payload for a telemetry sample.
func FormatTelemetryPayload(t Telemetry) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Telemetry: TelemetryInner{
			Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
			Channel:   t.Channel,
			Value:     t.Value,
		},
	})
}

// EventPayload is the MQTT payload for a blinker event.
type EventPayload struct {
	Event EventInner `json:"event"`
}

// EventInner contains the event details.
type EventInner struct {
	Timestamp string `json:"timestamp"`
	Severity  string `json:"severity"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Message   string `json:"message"`
}

// FormatEventPayload creates the JSON payload for a blinker event.
func FormatEventPayload(ts time.Time, event logic.Event) ([]byte, error) {
	return json.Marshal(EventPayload{
		Event: EventInner{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Severity:  string(event.Severity),
			Type:      string(event.Type),
			Value:     event.Value,
			Message:   event.Message(),
		},
	})
}

// ResponsePayload is the MQTT payload for a command acknowledgement.
type ResponsePayload struct {
	Response ResponseInner `json:"response"`
}

// ResponseInner contains the acknowledgement details.
type ResponseInner struct {
	Timestamp string `json:"timestamp"`
	Opcode    string `json:"opcode"`
	Seq       uint32 `json:"seq"`
	Status    string `json:"status"`
}

// FormatResponsePayload creates the JSON payload for a command acknowledgement.
func FormatResponsePayload(r Response) ([]byte, error) {
	return json.Marshal(ResponsePayload{
		Response: ResponseInner{
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
			Opcode:    string(r.Opcode),
			Seq:       r.Seq,
			Status:    string(r.Status),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// FormatWillPayload is the retained last-will the broker publishes when the
// daemon drops off without a clean shutdown.
func FormatWillPayload(ts time.Time) []byte {
	data, _ := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "OFFLINE", Reason: "MQTT_DISCONNECT"})
	return data
}
