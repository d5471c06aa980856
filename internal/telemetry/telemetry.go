// Package telemetry reports telemetry channels and command acknowledgements
// to MQTT and mirrors them as Prometheus metrics.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/led-blinker/internal/logic"
	"github.com/sweeney/led-blinker/internal/mqtt"
)

var (
	blinkingState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "led_blinker",
		Name:      "blinking_state",
		Help:      "Last reported BlinkingState channel value (1 = ON, 0 = OFF)",
	})

	ledTransitions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "led_blinker",
		Name:      "led_transitions",
		Help:      "Number of on/off transitions rendered since start",
	})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "led_blinker",
		Name:      "commands_total",
		Help:      "Commands acknowledged, by opcode and response",
	}, []string{"opcode", "response"})

	publishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "led_blinker",
		Name:      "publish_failures_total",
		Help:      "MQTT publishes that failed outright, by kind; buffered publishes are not counted",
	}, []string{"kind"})
)

// Sink implements logic.Telemetry. A nil publisher only updates metrics.
type Sink struct {
	pub mqtt.Publisher
	now func() time.Time
}

// NewSink creates a telemetry sink publishing through pub.
func NewSink(pub mqtt.Publisher, now func() time.Time) *Sink {
	return &Sink{pub: pub, now: now}
}

// BlinkingState reports the BlinkingState channel.
func (s *Sink) BlinkingState(v logic.State) {
	if v == logic.StateOn {
		blinkingState.Set(1)
	} else {
		blinkingState.Set(0)
	}
	s.publish(logic.ChannelBlinkingState, v)
}

// LedTransitions reports the LedTransitions channel.
func (s *Sink) LedTransitions(n uint32) {
	ledTransitions.Set(float64(n))
	s.publish(logic.ChannelLedTransitions, n)
}

func (s *Sink) publish(channel string, v any) {
	if s.pub == nil {
		return
	}
	err := s.pub.PublishTelemetry(mqtt.Telemetry{Timestamp: s.now(), Channel: channel, Value: v})
	if errors.Is(err, mqtt.ErrBuffered) {
		log.Debug().Str("channel", channel).Msg("telemetry buffered while offline")
	} else if err != nil {
		publishFailures.WithLabelValues("telemetry").Inc()
		log.Warn().Err(err).Str("channel", channel).Msg("telemetry publish failed")
	}
}

// Responder implements logic.Responder.
type Responder struct {
	pub mqtt.Publisher
	now func() time.Time
}

// NewResponder creates a responder publishing through pub.
func NewResponder(pub mqtt.Publisher, now func() time.Time) *Responder {
	return &Responder{pub: pub, now: now}
}

// Respond acknowledges a command.
func (r *Responder) Respond(op logic.Opcode, seq uint32, resp logic.Response) {
	commandsTotal.WithLabelValues(string(op), string(resp)).Inc()
	log.Debug().Str("opcode", string(op)).Uint32("seq", seq).Str("response", string(resp)).Msg("command acknowledged")
	if r.pub == nil {
		return
	}
	err := r.pub.PublishResponse(mqtt.Response{Timestamp: r.now(), Opcode: op, Seq: seq, Status: resp})
	if errors.Is(err, mqtt.ErrBuffered) {
		log.Debug().Str("opcode", string(op)).Uint32("seq", seq).Msg("response buffered while offline")
	} else if err != nil {
		publishFailures.WithLabelValues("response").Inc()
		log.Warn().Err(err).Str("opcode", string(op)).Uint32("seq", seq).Msg("response publish failed")
	}
}
