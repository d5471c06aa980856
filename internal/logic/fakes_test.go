package logic

// Test doubles for the ports. They record every call for assertions.

type fakeParams struct {
	value uint32
	valid ParamValid
}

func (p *fakeParams) BlinkInterval() (uint32, ParamValid) {
	return p.value, p.valid
}

type pixelWrite struct {
	Index int
	Color RGB
}

type fakePixel struct {
	Writes []pixelWrite
	Shows  int
}

func (p *fakePixel) SetPixelColor(index int, c RGB) {
	p.Writes = append(p.Writes, pixelWrite{Index: index, Color: c})
}

func (p *fakePixel) Show() {
	p.Shows++
}

type fakeTelemetry struct {
	States      []State
	Transitions []uint32
}

func (f *fakeTelemetry) BlinkingState(s State) {
	f.States = append(f.States, s)
}

func (f *fakeTelemetry) LedTransitions(n uint32) {
	f.Transitions = append(f.Transitions, n)
}

type fakeLogger struct {
	Events []Event
}

func (f *fakeLogger) Log(e Event) {
	f.Events = append(f.Events, e)
}

type ack struct {
	Opcode   Opcode
	Seq      uint32
	Response Response
}

type fakeResponder struct {
	Acks []ack
}

func (f *fakeResponder) Respond(op Opcode, seq uint32, r Response) {
	f.Acks = append(f.Acks, ack{Opcode: op, Seq: seq, Response: r})
}

type harness struct {
	params *fakeParams
	pixel  *fakePixel
	tlm    *fakeTelemetry
	log    *fakeLogger
	b      *Blinker
}

func newHarness(interval uint32, valid ParamValid) *harness {
	h := &harness{
		params: &fakeParams{value: interval, valid: valid},
		pixel:  &fakePixel{},
		tlm:    &fakeTelemetry{},
		log:    &fakeLogger{},
	}
	h.b = NewBlinker(h.params, h.pixel, h.tlm, h.log, DefaultOnColor)
	return h
}
