package logic

import (
	"fmt"
	"strconv"
)

// Blinker drives the pixel through the blink cycle, one Tick at a time.
// It is not safe for concurrent use; the host serialises Tick, SetBlinking
// and ParameterUpdated onto one goroutine.
type Blinker struct {
	params  ParameterSource
	pixel   Pixel
	tlm     Telemetry
	log     Logger
	onColor RGB

	state       State
	count       uint32
	transitions uint32
	blinking    bool
}

// BlinkerState is a copy of the blinker's state.
type BlinkerState struct {
	LED         State
	Count       uint32
	Transitions uint32
	Blinking    bool
}

// NewBlinker creates a Blinker with the pixel OFF and blinking disabled.
// onColor is rendered during the on-phase of the cycle.
func NewBlinker(params ParameterSource, pixel Pixel, tlm Telemetry, log Logger, onColor RGB) *Blinker {
	return &Blinker{
		params:  params,
		pixel:   pixel,
		tlm:     tlm,
		log:     log,
		onColor: onColor,
		state:   StateOff,
	}
}

// interval returns the blink interval, or 0 when the store has no usable value.
func (b *Blinker) interval() uint32 {
	v, valid := b.params.BlinkInterval()
	if valid == ParamValidInvalid || valid == ParamValidUninit {
		return 0
	}
	return v
}

// Tick advances the blink cycle by one tick.
func (b *Blinker) Tick() {
	interval := b.interval()

	if !b.blinking {
		if b.state == StateOn {
			b.pixel.SetPixelColor(0, Black)
			b.pixel.Show()
			b.state = StateOff
			b.tlm.BlinkingState(b.state)
		}
		return
	}

	next := b.state
	if b.count == 0 && b.state == StateOff {
		next = StateOn
	} else if b.count == interval/2 && b.state == StateOn {
		next = StateOff
	}

	if next != b.state {
		b.transitions++
		b.tlm.LedTransitions(b.transitions)

		if next == StateOn {
			b.pixel.SetPixelColor(0, b.onColor)
		} else {
			b.pixel.SetPixelColor(0, Black)
		}
		b.pixel.Show()

		b.state = next
		b.tlm.BlinkingState(b.state)
	}

	if b.count+1 >= interval {
		b.count = 0
	} else {
		b.count++
	}
}

// SetBlinking enables or disables blinking and restarts the cycle.
// Nothing is rendered until the next Tick.
func (b *Blinker) SetBlinking(v State) Response {
	if !v.Valid() {
		b.log.Log(Event{Severity: SeverityWarningLo, Type: EventInvalidBlinkArgument, Value: string(v)})
		return RespValidationError
	}

	b.count = 0
	b.blinking = v == StateOn

	b.log.Log(Event{Severity: SeverityActivityHi, Type: EventSetBlinkingState, Value: string(v)})
	b.tlm.BlinkingState(v)
	return RespOK
}

// ParameterUpdated is called by the parameter store after id changed.
// The store only notifies with a valid value; anything else panics.
func (b *Blinker) ParameterUpdated(id ParamID) {
	v, valid := b.params.BlinkInterval()
	if valid != ParamValidValid {
		panic(fmt.Sprintf("logic: parameter %s updated but reads back %s", id, valid))
	}

	if id == ParamBlinkInterval {
		b.log.Log(Event{Severity: SeverityActivityHi, Type: EventBlinkIntervalSet, Value: strconv.FormatUint(uint64(v), 10)})
	}
}

// Snapshot returns a copy of the current state.
func (b *Blinker) Snapshot() BlinkerState {
	return BlinkerState{
		LED:         b.state,
		Count:       b.count,
		Transitions: b.transitions,
		Blinking:    b.blinking,
	}
}
