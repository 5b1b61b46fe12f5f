// Package timer provides the shared free-running counter used by the blink
// scheduler. A Counter wraps at 16 bits and carries one compare register per
// channel; when the counter reaches a register's value and its interrupt is
// enabled, the registered Handler runs with the register index.
package timer

// Width is the counter width in ticks (16 bits).
const Width = 1 << 16

// DefaultFrequencyHz is the auxiliary crystal rate the counter runs from.
const DefaultFrequencyHz = 32768

// Handler is invoked for each compare match, with the compare register index.
type Handler func(reg int)

// OutputMode is the compare output policy for a register.
type OutputMode int

const (
	OutputBitValue OutputMode = iota
	OutputToggle
)

func (m OutputMode) String() string {
	if m == OutputToggle {
		return "toggle"
	}
	return "out"
}

// Counter is a free-running wrapping counter with per-register compare
// interrupts.
type Counter interface {
	// Count returns the current counter value.
	Count() uint16
	// Compare returns the programmed value of a compare register.
	Compare(reg int) uint16
	// SetCompare programs a compare register.
	SetCompare(reg int, v uint16)

	// Pause stops the counter; no compare matches fire while paused.
	Pause()
	// ResumeFreeRunning restarts the counter in continuous mode.
	ResumeFreeRunning()

	ClearCompareFlag(reg int)
	EnableCompareInterrupt(reg int)
	DisableCompareInterrupt(reg int)
	SetToggleMode(reg int)

	// SetHandler installs the compare-match vector.
	SetHandler(h Handler)

	// FrequencyHz is the counter input clock rate.
	FrequencyHz() uint32
}
