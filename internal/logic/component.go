package logic

// Component routes commands to the blinker, the colour handler and any
// extra handlers, and acknowledges every command it is given.
type Component struct {
	blinker *Blinker
	colors  *ColorHandler
	resp    Responder
	extra   []CommandHandler
}

// NewComponent creates a Component. extra handlers are tried in order for
// opcodes the core does not own.
func NewComponent(blinker *Blinker, colors *ColorHandler, resp Responder, extra ...CommandHandler) *Component {
	return &Component{
		blinker: blinker,
		colors:  colors,
		resp:    resp,
		extra:   extra,
	}
}

// Dispatch executes cmd, acknowledges it and returns the response.
func (c *Component) Dispatch(cmd Command) Response {
	r := c.execute(cmd)
	c.resp.Respond(cmd.Opcode, cmd.Seq, r)
	return r
}

func (c *Component) execute(cmd Command) Response {
	switch cmd.Opcode {
	case OpBlinkingOnOff:
		return c.blinker.SetBlinking(State(cmd.Arg))
	case OpSetLEDColor:
		return c.colors.SetColor(Color(cmd.Arg))
	}

	for _, h := range c.extra {
		if r, ok := h.Handle(cmd); ok {
			return r
		}
	}
	return RespInvalidOpcode
}
