package logic

// ParameterSource provides the configured blink interval.
type ParameterSource interface {
	// BlinkInterval returns the interval in ticks and its validity.
	BlinkInterval() (uint32, ParamValid)
}

// Telemetry receives channel updates.
type Telemetry interface {
	// BlinkingState reports the BlinkingState channel.
	BlinkingState(s State)
	// LedTransitions reports the LedTransitions channel.
	LedTransitions(n uint32)
}

// Logger receives events.
type Logger interface {
	Log(e Event)
}

// Responder acknowledges commands.
type Responder interface {
	Respond(op Opcode, seq uint32, r Response)
}

// Pixel is the effector that writes colours to the hardware.
// Driver failures are handled inside the implementation.
type Pixel interface {
	SetPixelColor(index int, c RGB)
	Show()
}

// CommandHandler handles opcodes outside the core, such as parameter commands.
// ok is false when the opcode is not one it knows.
type CommandHandler interface {
	Handle(cmd Command) (r Response, ok bool)
}
