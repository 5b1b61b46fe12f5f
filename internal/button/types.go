// Package button debounces push-button samples and mirrors button state onto
// LEDs that the blink scheduler does not own.
// Time is always injectable via time.Time parameters.
package button

import "time"

// State is the debounced state of one button.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// EventType is a debounced transition.
type EventType string

const (
	EventPress   EventType = "PRESS"
	EventRelease EventType = "RELEASE"
)

// Event is a debounced transition of one button.
type Event struct {
	Timestamp time.Time
	Button    int
	Name      string
	Type      EventType
}

// lineState tracks debounce state for a single button.
type lineState struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Counts tracks transitions since startup.
type Counts struct {
	Presses  int
	Releases int
}

// Heartbeat is emitted periodically by CheckHeartbeat.
type Heartbeat struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
