// Package status provides a thread-safe status tracker for the ledblink daemon.
// It is read by the HTTP handlers, MQTT events and the Modbus mirror.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/button"
)

// Config contains daemon configuration for display.
type Config struct {
	FrequencyHz    uint32
	PollMs         int64
	DebounceMs     int64
	HeartbeatMs    int64
	Broker         string
	TopicPrefix    string
	HTTPAddr       string
	WSBroker       string // Websocket broker URL for browser MQTT (empty = disabled)
	MirrorEndpoint string
	Sim            bool
}

// ButtonState is the debounced state of one button.
type ButtonState struct {
	Name    string
	Channel int // button.NoChannel when unbound
	State   button.State
}

// Counts tracks activity since startup.
type Counts struct {
	Configures        int
	ConfigureFailures int
	Presses           int
	Releases          int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	LEDs          blink.Snapshot
	Buttons       []ButtonState
	Baselined     bool
	Counts        Counts
	Seed          uint16
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	MirrorError   string
	MirrorSyncs   int
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// UpdateLEDs stores the latest scheduler snapshot.
func (t *Tracker) UpdateLEDs(leds blink.Snapshot) {
	t.mu.Lock()
	t.snap.LEDs = leds
	t.mu.Unlock()
}

// UpdateButtons sets button states, baseline status and press counts.
// Called from runLoop on every tick.
func (t *Tracker) UpdateButtons(buttons []ButtonState, baselined bool, counts button.Counts) {
	t.mu.Lock()
	t.snap.Buttons = append(t.snap.Buttons[:0:0], buttons...)
	t.snap.Baselined = baselined
	t.snap.Counts.Presses = counts.Presses
	t.snap.Counts.Releases = counts.Releases
	t.mu.Unlock()
}

// RecordConfigure counts one LED configure request.
func (t *Tracker) RecordConfigure(err error) {
	t.mu.Lock()
	t.snap.Counts.Configures++
	if err != nil {
		t.snap.Counts.ConfigureFailures++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// RecordMirror records the outcome of one Modbus mirror sync.
func (t *Tracker) RecordMirror(err error) {
	t.mu.Lock()
	t.snap.MirrorSyncs++
	t.snap.MirrorError = ""
	if err != nil {
		t.snap.MirrorError = err.Error()
	}
	t.mu.Unlock()
}

// SetSeed records the random seed in use.
func (t *Tracker) SetSeed(seed uint16) {
	t.mu.Lock()
	t.snap.Seed = seed
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = append([]ButtonState(nil), t.snap.Buttons...)
	s.LEDs.Channels = append([]blink.ChannelState(nil), t.snap.LEDs.Channels...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
