// Package logic contains the pure blink and colour logic for a single pixel.
// This package has NO external dependencies (no GPIO, MQTT, SPI, OS, or time.Sleep).
// Hardware and reporting are reached only through the interfaces in ports.go,
// and time is always injectable via time.Time parameters.
package logic

import "fmt"

// State is the on/off condition of the pixel. It is also the argument of the
// BLINKING_ON_OFF command, so values other than StateOn and StateOff can
// arrive from a transport and must be rejected.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Valid reports whether s is ON or OFF.
func (s State) Valid() bool {
	return s == StateOn || s == StateOff
}

// ParamID identifies a parameter held by the parameter store.
type ParamID string

const ParamBlinkInterval ParamID = "BLINK_INTERVAL"

// ParamValid is the validity flag returned alongside a parameter value.
type ParamValid string

const (
	ParamValidValid   ParamValid = "VALID"
	ParamValidInvalid ParamValid = "INVALID"
	ParamValidUninit  ParamValid = "UNINIT"
	ParamValidDefault ParamValid = "DEFAULT"
)

// Opcode names a command.
type Opcode string

const (
	OpBlinkingOnOff     Opcode = "BLINKING_ON_OFF"
	OpSetLEDColor       Opcode = "SET_LED_COLOR"
	OpBlinkIntervalSet  Opcode = "BLINK_INTERVAL_PRM_SET"
	OpBlinkIntervalSave Opcode = "BLINK_INTERVAL_PRM_SAVE"
)

// Response is the result a command is acknowledged with.
type Response string

const (
	RespOK              Response = "OK"
	RespInvalidOpcode   Response = "INVALID_OPCODE"
	RespValidationError Response = "VALIDATION_ERROR"
	RespFormatError     Response = "FORMAT_ERROR"
	RespExecutionError  Response = "EXECUTION_ERROR"
)

// Command is a decoded command. Arg is the single argument in text form:
// an enum name for BLINKING_ON_OFF and SET_LED_COLOR, a decimal number for
// BLINK_INTERVAL_PRM_SET, empty otherwise.
type Command struct {
	Opcode Opcode
	Seq    uint32
	Arg    string
}

// Severity classifies an event.
type Severity string

const (
	SeverityActivityHi Severity = "ACTIVITY_HI"
	SeverityWarningLo  Severity = "WARNING_LO"
)

// EventType names an event emitted by the core.
type EventType string

const (
	EventSetBlinkingState     EventType = "SetBlinkingState"
	EventBlinkIntervalSet     EventType = "BlinkIntervalSet"
	EventInvalidBlinkArgument EventType = "InvalidBlinkArgument"
	EventInvalidColorArgument EventType = "InvalidColorArgument"
)

// Event is a human-readable occurrence with a single payload value.
type Event struct {
	Severity Severity
	Type     EventType
	Value    string
}

// Message renders the event text.
func (e Event) Message() string {
	switch e.Type {
	case EventSetBlinkingState:
		return fmt.Sprintf("Set blinking state to %s.", e.Value)
	case EventBlinkIntervalSet:
		return fmt.Sprintf("LED blink interval set to %s", e.Value)
	case EventInvalidBlinkArgument:
		return fmt.Sprintf("Invalid Blinking Argument: %s", e.Value)
	case EventInvalidColorArgument:
		return fmt.Sprintf("Invalid Color Argument: %s", e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Value)
}

// Telemetry channel names.
const (
	ChannelBlinkingState  = "BlinkingState"
	ChannelLedTransitions = "LedTransitions"
)
