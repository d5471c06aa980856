package mqtt

import (
	"time"

	"github.com/sweeney/led-blinker/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	Telemetry    []Telemetry
	Events       []logic.Event
	Responses    []Response
	SystemEvents []SystemEvent

	// Payloads maps each topic to the JSON payloads published on it, in order.
	Payloads map[string][][]byte

	// PublishError, if set, is returned by every Publish* method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Payloads: make(map[string][][]byte)}
}

func (f *FakePublisher) record(topic string, payload []byte, err error) error {
	if err != nil {
		return err
	}
	f.Payloads[topic] = append(f.Payloads[topic], payload)
	return nil
}

// PublishTelemetry records the telemetry sample.
func (f *FakePublisher) PublishTelemetry(t Telemetry) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Telemetry = append(f.Telemetry, t)
	payload, err := FormatTelemetryPayload(t)
	return f.record(TopicTelemetry, payload, err)
}

// PublishEvent records the blinker event.
func (f *FakePublisher) PublishEvent(ts time.Time, event logic.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, event)
	payload, err := FormatEventPayload(ts, event)
	return f.record(TopicEvents, payload, err)
}

// PublishResponse records the acknowledgement.
func (f *FakePublisher) PublishResponse(r Response) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Responses = append(f.Responses, r)
	payload, err := FormatResponsePayload(r)
	return f.record(TopicResponses, payload, err)
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	payload, err := FormatSystemPayload(event)
	return f.record(TopicSystem, payload, err)
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Telemetry = nil
	f.Events = nil
	f.Responses = nil
	f.SystemEvents = nil
	f.Payloads = make(map[string][][]byte)
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
