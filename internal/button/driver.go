package button

import (
	"time"

	"github.com/rs/zerolog"
)

// NoChannel marks a button that is not bound to an LED.
const NoChannel = -1

// LEDs is the part of the blink scheduler the driver needs.
type LEDs interface {
	SetOutputLevelIfIdle(ch int, level bool) bool
}

// Binding names a button and the LED channel it mirrors.
type Binding struct {
	Name    string
	Channel int
}

// Driver debounces buttons and, for every bound LED the scheduler has
// released, drives the LED to follow its button.
type Driver struct {
	det      *Detector
	bindings []Binding
	leds     LEDs
	log      zerolog.Logger
}

// NewDriver creates a Driver with one debounced input per binding.
func NewDriver(bindings []Binding, leds LEDs, debounce time.Duration, start time.Time, log zerolog.Logger) *Driver {
	return &Driver{
		det:      NewDetector(len(bindings), debounce, start),
		bindings: append([]Binding(nil), bindings...),
		leds:     leds,
		log:      log,
	}
}

// Tick processes one sample and applies the LED override. It returns the
// debounced transitions, named after their bindings.
func (d *Driver) Tick(pressed []bool, now time.Time) ([]Event, error) {
	events, err := d.det.Process(pressed, now)
	if err != nil {
		return nil, err
	}
	for i := range events {
		events[i].Name = d.bindings[events[i].Button].Name
		d.log.Info().
			Str("button", events[i].Name).
			Str("event", string(events[i].Type)).
			Msg("button")
	}

	if !d.det.IsBaselined() {
		return events, nil
	}
	for i, b := range d.bindings {
		if b.Channel == NoChannel {
			continue
		}
		d.leds.SetOutputLevelIfIdle(b.Channel, d.det.Pressed(i))
	}
	return events, nil
}

// Detector returns the underlying debouncer.
func (d *Driver) Detector() *Detector {
	return d.det
}

// Bindings returns a copy of the button bindings.
func (d *Driver) Bindings() []Binding {
	return append([]Binding(nil), d.bindings...)
}
