// Package gpio reads the optional blink-enable switch.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads a single switch input.
type Reader interface {
	// Read returns true when the switch is in its ON position.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for the switch line.
const (
	DefaultChip = "gpiochip0"
	DefaultLine = 23 // BCM numbering
)
