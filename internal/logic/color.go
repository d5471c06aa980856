package logic

// RGB is a pixel colour.
type RGB struct {
	R, G, B uint8
}

// Black is the colour of an unlit pixel.
var Black = RGB{}

// DefaultOnColor is rendered while the blink cycle is in its on-phase.
var DefaultOnColor = RGB{R: 150}

// Color names a member of the fixed palette. Any other value is invalid.
type Color string

const (
	ColorRed    Color = "RED"
	ColorOrange Color = "ORANGE"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
	ColorBlue   Color = "BLUE"
	ColorIndigo Color = "INDIGO"
	ColorViolet Color = "VIOLET"
	ColorOff    Color = "OFF"
)

var palette = map[Color]RGB{
	ColorRed:    {255, 0, 0},
	ColorOrange: {255, 165, 0},
	ColorYellow: {255, 255, 0},
	ColorGreen:  {0, 255, 0},
	ColorBlue:   {0, 0, 255},
	ColorIndigo: {75, 0, 130},
	ColorViolet: {238, 130, 238},
	ColorOff:    {0, 0, 0},
}

// Palette lists the palette members in display order.
var Palette = []Color{
	ColorRed, ColorOrange, ColorYellow, ColorGreen,
	ColorBlue, ColorIndigo, ColorViolet, ColorOff,
}

// Lookup returns the RGB value of c and whether c is a palette member.
func Lookup(c Color) (RGB, bool) {
	rgb, ok := palette[c]
	return rgb, ok
}

// ColorHandler renders solid palette colours on demand.
// It shares the pixel with Blinker but none of its state: the next blink
// transition overwrites whatever colour was set here.
type ColorHandler struct {
	pixel Pixel
	log   Logger
}

// NewColorHandler creates a ColorHandler rendering to pixel.
func NewColorHandler(pixel Pixel, log Logger) *ColorHandler {
	return &ColorHandler{pixel: pixel, log: log}
}

// SetColor renders c on pixel 0. Colours outside the palette are rejected
// with a warning event and nothing is rendered.
func (h *ColorHandler) SetColor(c Color) Response {
	rgb, ok := Lookup(c)
	if !ok {
		h.log.Log(Event{Severity: SeverityWarningLo, Type: EventInvalidColorArgument, Value: string(c)})
		return RespValidationError
	}

	h.pixel.SetPixelColor(0, rgb)
	h.pixel.Show()
	return RespOK
}
