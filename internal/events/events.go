// Package events delivers blinker events to the structured log and to MQTT.
package events

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/led-blinker/internal/logic"
	"github.com/sweeney/led-blinker/internal/mqtt"
)

// Sink implements logic.Logger.
type Sink struct {
	logger zerolog.Logger
	pub    mqtt.Publisher
	now    func() time.Time
}

// NewSink creates an event sink. logger is usually log.Logger; pub may be nil.
func NewSink(logger zerolog.Logger, pub mqtt.Publisher, now func() time.Time) *Sink {
	return &Sink{logger: logger, pub: pub, now: now}
}

// Log writes the event: activity at info level, warnings at warn level.
func (s *Sink) Log(e logic.Event) {
	var ev *zerolog.Event
	if e.Severity == logic.SeverityWarningLo {
		ev = s.logger.Warn()
	} else {
		ev = s.logger.Info()
	}
	ev.Str("event", string(e.Type)).Str("value", e.Value).Msg(e.Message())

	if s.pub == nil {
		return
	}
	if err := s.pub.PublishEvent(s.now(), e); err != nil && !errors.Is(err, mqtt.ErrBuffered) {
		log.Warn().Err(err).Str("event", string(e.Type)).Msg("event publish failed")
	}
}
