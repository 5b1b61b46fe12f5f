package button

import (
	"errors"
	"fmt"
	"time"
)

// ErrSampleSize is returned when a sample does not have one value per button.
var ErrSampleSize = errors.New("button: sample size mismatch")

// Detector debounces N buttons.
type Detector struct {
	debounceDuration time.Duration
	lines            []lineState
	baselined        bool
	startTime        time.Time
	counts           Counts
	lastHeartbeat    time.Time
}

// NewDetector creates a detector for n buttons with the given debounce
// duration. The startTime is used for calculating uptime in heartbeats.
func NewDetector(n int, debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		lines:            make([]lineState, n),
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a pressed sample per button and returns debounced
// transitions, in button order. No events are returned until every button has
// a baseline.
func (d *Detector) Process(pressed []bool, now time.Time) ([]Event, error) {
	if len(pressed) != len(d.lines) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleSize, len(pressed), len(d.lines))
	}

	var events []Event
	for i, p := range pressed {
		t := d.processLine(&d.lines[i], stateOf(p), now)
		if t != "" {
			events = append(events, Event{Timestamp: now, Button: i, Type: t})
		}
	}

	if !d.baselined {
		for _, l := range d.lines {
			if !l.Baselined {
				return nil, nil
			}
		}
		d.baselined = true
		return nil, nil
	}

	for _, e := range events {
		switch e.Type {
		case EventPress:
			d.counts.Presses++
		case EventRelease:
			d.counts.Releases++
		}
	}
	return events, nil
}

// processLine handles debounce logic for a single button. It returns the
// transition, or "" if none occurred.
func (d *Detector) processLine(l *lineState, s State, now time.Time) EventType {
	if !l.Baselined {
		if l.Pending != s {
			l.Pending = s
			l.PendingSince = now
			return ""
		}
		if now.Sub(l.PendingSince) >= d.debounceDuration {
			l.Stable = s
			l.Baselined = true
			l.Pending = ""
		}
		return ""
	}

	if s == l.Stable {
		l.Pending = ""
		return ""
	}
	if l.Pending != s {
		l.Pending = s
		l.PendingSince = now
		return ""
	}
	if now.Sub(l.PendingSince) < d.debounceDuration {
		return ""
	}

	l.Stable = s
	l.Pending = ""
	if s == StatePressed {
		return EventPress
	}
	return EventRelease
}

func stateOf(pressed bool) State {
	if pressed {
		return StatePressed
	}
	return StateReleased
}

// IsBaselined reports whether every button has a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// Stable returns the debounced state of each button. Buttons without a
// baseline report "".
func (d *Detector) Stable() []State {
	out := make([]State, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.Stable
	}
	return out
}

// Pressed reports whether button i is debounced as pressed.
func (d *Detector) Pressed(i int) bool {
	if i < 0 || i >= len(d.lines) {
		return false
	}
	return d.lines[i].Stable == StatePressed
}

// Counts returns transition counts since startup.
func (d *Detector) Counts() Counts {
	return d.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if not yet baselined, if the
// interval has not elapsed, or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *Heartbeat {
	if interval <= 0 || !d.baselined {
		return nil
	}
	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}
	d.lastHeartbeat = now
	return &Heartbeat{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.counts,
	}
}
