package pixel

import (
	"errors"
	"image"
	"image/color"
)

// FakeDrawer is a display.Drawer that records every frame drawn to it.
type FakeDrawer struct {
	Width int

	// Frames holds the first pixel row of every successful Draw.
	Frames [][]color.NRGBA

	// DrawError, if set, is returned by Draw.
	DrawError error

	// Halted tracks if Halt was called.
	Halted bool
}

// NewFakeDrawer creates a FakeDrawer width pixels wide.
func NewFakeDrawer(width int) *FakeDrawer {
	return &FakeDrawer{Width: width}
}

func (f *FakeDrawer) String() string { return "fake" }

// Halt records the call.
func (f *FakeDrawer) Halt() error {
	f.Halted = true
	return nil
}

func (f *FakeDrawer) ColorModel() color.Model { return color.NRGBAModel }

func (f *FakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, f.Width, 1) }

// Draw records the first row of src.
func (f *FakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if f.DrawError != nil {
		return f.DrawError
	}
	if src == nil {
		return errors.New("nil image")
	}
	row := make([]color.NRGBA, 0, r.Dx())
	for x := 0; x < r.Dx(); x++ {
		row = append(row, color.NRGBAModel.Convert(src.At(sp.X+x, sp.Y)).(color.NRGBA))
	}
	f.Frames = append(f.Frames, row)
	return nil
}

// Last returns the most recent frame, or nil.
func (f *FakeDrawer) Last() []color.NRGBA {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}
