// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// Outputs drives LED lines. Lines are identified by their offset on the chip.
type Outputs interface {
	SetHigh(line int) error
	SetLow(line int) error

	// Close releases GPIO resources.
	Close() error
}

// Inputs reads button lines.
type Inputs interface {
	// Read returns the logical pressed state of each configured line, in
	// configuration order. Buttons are active low: raw 0 = pressed.
	Read() ([]bool, error)

	// Close releases GPIO resources.
	Close() error
}
