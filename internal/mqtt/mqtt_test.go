package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/led-blinker/internal/logic"
)

var ts = time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    logic.Command
	}{
		{"string arg", `{"opcode":"BLINKING_ON_OFF","seq":7,"arg":"ON"}`,
			logic.Command{Opcode: logic.OpBlinkingOnOff, Seq: 7, Arg: "ON"}},
		{"colour arg", `{"opcode":"SET_LED_COLOR","seq":8,"arg":"INDIGO"}`,
			logic.Command{Opcode: logic.OpSetLEDColor, Seq: 8, Arg: "INDIGO"}},
		{"number arg", `{"opcode":"BLINK_INTERVAL_PRM_SET","seq":9,"arg":20}`,
			logic.Command{Opcode: logic.OpBlinkIntervalSet, Seq: 9, Arg: "20"}},
		{"negative number kept as text", `{"opcode":"BLINK_INTERVAL_PRM_SET","seq":1,"arg":-3}`,
			logic.Command{Opcode: logic.OpBlinkIntervalSet, Seq: 1, Arg: "-3"}},
		{"no arg", `{"opcode":"BLINK_INTERVAL_PRM_SAVE","seq":10}`,
			logic.Command{Opcode: logic.OpBlinkIntervalSave, Seq: 10}},
		{"null arg", `{"opcode":"BLINK_INTERVAL_PRM_SAVE","seq":11,"arg":null}`,
			logic.Command{Opcode: logic.OpBlinkIntervalSave, Seq: 11}},
		{"unknown opcode passes through", `{"opcode":"SELF_DESTRUCT","seq":2}`,
			logic.Command{Opcode: "SELF_DESTRUCT", Seq: 2}},
		{"invalid enum passes through", `{"opcode":"BLINKING_ON_OFF","seq":3,"arg":"BLINK"}`,
			logic.Command{Opcode: logic.OpBlinkingOnOff, Seq: 3, Arg: "BLINK"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		seq     uint32
		opcode  logic.Opcode
	}{
		{"not json", `blink please`, 0, ""},
		{"missing opcode", `{"seq":4,"arg":"ON"}`, 4, ""},
		{"object arg", `{"opcode":"SET_LED_COLOR","seq":5,"arg":{"r":1}}`, 5, logic.OpSetLEDColor},
		{"bool arg", `{"opcode":"BLINKING_ON_OFF","seq":6,"arg":true}`, 6, logic.OpBlinkingOnOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.payload))
			if err == nil {
				t.Fatalf("expected error, got %+v", got)
			}
			if got.Seq != tt.seq {
				t.Errorf("seq = %d, want %d", got.Seq, tt.seq)
			}
			if got.Opcode != tt.opcode {
				t.Errorf("opcode = %q, want %q", got.Opcode, tt.opcode)
			}
		})
	}
}

func TestDecodeCommandSentinelErrors(t *testing.T) {
	if _, err := DecodeCommand([]byte(`{"seq":1}`)); !errors.Is(err, ErrNoOpcode) {
		t.Errorf("err = %v, want ErrNoOpcode", err)
	}
	if _, err := DecodeCommand([]byte(`{"opcode":"X","arg":[1]}`)); !errors.Is(err, ErrBadArg) {
		t.Errorf("err = %v, want ErrBadArg", err)
	}
}

func TestFormatTelemetryPayloadExactJSON(t *testing.T) {
	tests := []struct {
		in   Telemetry
		want string
	}{
		{Telemetry{Timestamp: ts, Channel: logic.ChannelBlinkingState, Value: logic.StateOn},
			`{"telemetry":{"timestamp":"2026-02-10T08:30:00Z","channel":"BlinkingState","value":"ON"}}`},
		{Telemetry{Timestamp: ts, Channel: logic.ChannelLedTransitions, Value: uint32(12)},
			`{"telemetry":{"timestamp":"2026-02-10T08:30:00Z","channel":"LedTransitions","value":12}}`},
	}
	for _, tt := range tests {
		got, err := FormatTelemetryPayload(tt.in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", got, tt.want)
		}
	}
}

func TestFormatEventPayload(t *testing.T) {
	event := logic.Event{Severity: logic.SeverityWarningLo, Type: logic.EventInvalidColorArgument, Value: "TEAL"}

	payload, err := FormatEventPayload(ts, event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed EventPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	e := parsed.Event
	if e.Severity != "WARNING_LO" || e.Type != "InvalidColorArgument" || e.Value != "TEAL" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Message != "Invalid Color Argument: TEAL" {
		t.Errorf("message = %q", e.Message)
	}
	if e.Timestamp != "2026-02-10T08:30:00Z" {
		t.Errorf("timestamp = %q", e.Timestamp)
	}
}

func TestFormatResponsePayloadExactJSON(t *testing.T) {
	payload, err := FormatResponsePayload(Response{
		Timestamp: ts,
		Opcode:    logic.OpSetLEDColor,
		Seq:       42,
		Status:    logic.RespValidationError,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"response":{"timestamp":"2026-02-10T08:30:00Z","opcode":"SET_LED_COLOR","seq":42,"status":"VALIDATION_ERROR"}}`
	if string(payload) != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	local := time.Date(2026, 2, 10, 3, 30, 0, 0, loc)

	payload, _ := FormatResponsePayload(Response{Timestamp: local, Opcode: logic.OpBlinkingOnOff, Status: logic.RespOK})
	var parsed ResponsePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Response.Timestamp != "2026-02-10T08:30:00Z" {
		t.Errorf("timestamp not converted to UTC: %s", parsed.Response.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	topics := map[string]string{
		TopicCommands:  "led/blinker/commands",
		TopicResponses: "led/blinker/responses",
		TopicTelemetry: "led/blinker/telemetry",
		TopicEvents:    "led/blinker/events",
		TopicSystem:    "led/blinker/system",
	}
	for got, want := range topics {
		if got != want {
			t.Errorf("topic = %q, want %q", got, want)
		}
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	payload, err := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "SHUTDOWN", Reason: "SIGTERM"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: ts, Event: "RECONNECTED"})
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, want)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	want := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"OFFLINE","reason":"MQTT_DISCONNECT"}}`
	if got := string(FormatWillPayload(ts)); got != want {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	f.PublishTelemetry(Telemetry{Timestamp: ts, Channel: logic.ChannelLedTransitions, Value: uint32(1)})
	f.PublishEvent(ts, logic.Event{Severity: logic.SeverityActivityHi, Type: logic.EventSetBlinkingState, Value: "ON"})
	f.PublishResponse(Response{Timestamp: ts, Opcode: logic.OpBlinkingOnOff, Seq: 1, Status: logic.RespOK})
	f.PublishSystem(SystemEvent{Timestamp: ts, Event: "STARTUP", Retained: true})

	if len(f.Telemetry) != 1 || len(f.Events) != 1 || len(f.Responses) != 1 || len(f.SystemEvents) != 1 {
		t.Fatalf("unexpected counts: tlm=%d ev=%d resp=%d sys=%d",
			len(f.Telemetry), len(f.Events), len(f.Responses), len(f.SystemEvents))
	}
	for _, topic := range []string{TopicTelemetry, TopicEvents, TopicResponses, TopicSystem} {
		if len(f.Payloads[topic]) != 1 {
			t.Errorf("expected 1 payload on %s, got %d", topic, len(f.Payloads[topic]))
		}
	}
	if !f.SystemEvents[0].Retained {
		t.Error("Retained flag not recorded")
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker gone")

	if err := f.PublishResponse(Response{Timestamp: ts}); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: ts}); err == nil {
		t.Error("expected error")
	}
	if len(f.Responses) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherResetAndClose(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.PublishResponse(Response{Timestamp: ts})
	f.Close()
	if !f.Closed {
		t.Error("Close not recorded")
	}

	f.Reset()
	if f.Closed || f.Connected || len(f.Responses) != 0 || len(f.Payloads) != 0 {
		t.Errorf("Reset left state behind: %+v", f)
	}

	f.PublishResponse(Response{Timestamp: ts})
	if len(f.Payloads[TopicResponses]) != 1 {
		t.Error("publisher not reusable after Reset")
	}
}
