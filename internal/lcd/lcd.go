// Package lcd models the segment memory of a multiplexed LCD controller:
// one byte of display memory and one byte of blink memory per segment line.
package lcd

import (
	"errors"
	"fmt"
	"sync"
)

// Segments is the number of segment lines.
const Segments = 64

// ErrInvalidSegment is returned for a segment outside 0..Segments-1.
var ErrInvalidSegment = errors.New("lcd: invalid segment")

// Display is the segment memory of one controller. Safe for concurrent use.
type Display struct {
	mu     sync.Mutex
	mem    [Segments]uint8
	blink  [Segments]uint8
	on     bool
	writes uint64
}

// New returns a display with cleared memory, switched on.
func New() *Display {
	return &Display{on: true}
}

// Set writes value to a segment. If clear is set, display and blink memory
// are cleared first; if blink is set, the value is also written to blink
// memory. The display is off for the duration of the update.
func (d *Display) Set(segment int, value uint8, clear, blink bool) error {
	if segment < 0 || segment >= Segments {
		return fmt.Errorf("%w: %d", ErrInvalidSegment, segment)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.on = false
	if clear {
		d.mem = [Segments]uint8{}
		d.blink = [Segments]uint8{}
	}
	d.mem[segment] = value
	if blink {
		d.blink[segment] = value
	}
	d.writes++
	d.on = true
	return nil
}

// SetAll writes value to every segment, clearing memory first if clear is set.
func (d *Display) SetAll(value uint8, clear, blink bool) {
	for seg := 0; seg < Segments; seg++ {
		// Clearing again after the first segment would wipe the ones just set.
		_ = d.Set(seg, value, clear && seg == 0, blink)
	}
}

// Memory returns a segment's display memory.
func (d *Display) Memory(segment int) (uint8, error) {
	if segment < 0 || segment >= Segments {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSegment, segment)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mem[segment], nil
}

// BlinkMemory returns a segment's blink memory.
func (d *Display) BlinkMemory(segment int) (uint8, error) {
	if segment < 0 || segment >= Segments {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSegment, segment)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blink[segment], nil
}

// Clear clears display and blink memory.
func (d *Display) Clear() {
	d.mu.Lock()
	d.mem = [Segments]uint8{}
	d.blink = [Segments]uint8{}
	d.mu.Unlock()
}

// On reports whether the display is switched on.
func (d *Display) On() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// State is a copy of the display memory.
type State struct {
	On     bool
	Memory []uint8
	Blink  []uint8
	Writes uint64
}

// Snapshot returns a copy of the display memory.
func (d *Display) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		On:     d.on,
		Memory: append([]uint8(nil), d.mem[:]...),
		Blink:  append([]uint8(nil), d.blink[:]...),
		Writes: d.writes,
	}
}
