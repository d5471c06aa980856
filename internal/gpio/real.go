//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the switch from hardware using the Linux GPIO character device.
type RealReader struct {
	chip      *gpiocdev.Chip
	line      *gpiocdev.Line
	activeLow bool
}

// NewRealReader requests offset on the named chip as a pulled-down input.
// With activeLow, a raw 0 reads as ON (switch wired to ground with a pull-up).
func NewRealReader(chipName string, offset int, activeLow bool) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	bias := gpiocdev.WithPullDown
	if activeLow {
		bias = gpiocdev.WithPullUp
	}
	line, err := chip.RequestLine(offset, gpiocdev.AsInput, bias, gpiocdev.WithConsumer("led-blinker"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch line %d: %w", offset, err)
	}

	return &RealReader{chip: chip, line: line, activeLow: activeLow}, nil
}

// Read returns the logical switch position.
func (r *RealReader) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read switch line: %w", err)
	}
	if r.activeLow {
		return raw == 0, nil
	}
	return raw == 1, nil
}

// Close reconfigures the line to input with pull-down (the Pi boot default)
// and releases it.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure switch line: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
