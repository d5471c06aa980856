// Package pixel renders colours to an addressable RGB strip through a
// periph display.Drawer: nrzled over SPI on hardware, an ANSI screen
// on the console.
package pixel

import (
	"image"
	"image/color"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"

	"github.com/sweeney/led-blinker/internal/logic"
)

// Strip buffers pixel colours and pushes them to the drawer on Show.
// SetPixelColor and Show are called from the control loop; Color may be
// called from any goroutine.
type Strip struct {
	drawer display.Drawer

	mu       sync.Mutex
	frame    *image.NRGBA
	shown    *image.NRGBA
	failures int
}

// New creates a Strip of count pixels drawing to d.
func New(d display.Drawer, count int) *Strip {
	if count < 1 {
		count = 1
	}
	return &Strip{
		drawer: d,
		frame:  blackFrame(count),
		shown:  blackFrame(count),
	}
}

func blackFrame(count int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, count, 1))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// String names the driver behind the strip.
func (s *Strip) String() string {
	return s.drawer.String()
}

// Len returns the number of pixels.
func (s *Strip) Len() int {
	return s.frame.Rect.Dx()
}

// SetPixelColor stages c for pixel index. Out-of-range indices are ignored.
func (s *Strip) SetPixelColor(index int, c logic.RGB) {
	if index < 0 || index >= s.Len() {
		return
	}
	s.mu.Lock()
	s.frame.SetNRGBA(index, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	s.mu.Unlock()
}

// Show draws the staged frame. Driver errors are logged and counted;
// they never reach the caller.
func (s *Strip) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.drawer.Draw(s.drawer.Bounds(), s.frame, image.Point{}); err != nil {
		s.failures++
		log.Warn().Err(err).Str("drawer", s.drawer.String()).Int("failures", s.failures).Msg("pixel draw failed")
		return
	}
	copy(s.shown.Pix, s.frame.Pix)
}

// Color returns the colour last shown at index.
func (s *Strip) Color(index int) logic.RGB {
	if index < 0 || index >= s.Len() {
		return logic.Black
	}
	s.mu.Lock()
	c := s.shown.NRGBAAt(index, 0)
	s.mu.Unlock()
	return logic.RGB{R: c.R, G: c.G, B: c.B}
}

// Failures returns the number of failed draws.
func (s *Strip) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Halt turns the strip off.
func (s *Strip) Halt() error {
	return s.drawer.Halt()
}
