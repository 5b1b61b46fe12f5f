// Package mqtt provides MQTT publishing with abstraction for testing.
//
// Topics live under a configurable prefix:
//
//	<prefix>/led/<channel>   LED configure results
//	<prefix>/button/<name>   debounced button transitions
//	<prefix>/system          lifecycle events
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// LEDTopic is the topic for configure results of one channel.
func LEDTopic(prefix string, ch int) string {
	return fmt.Sprintf("%s/led/%d", prefix, ch)
}

// ButtonTopic is the topic for transitions of one button.
func ButtonTopic(prefix, name string) string {
	return prefix + "/button/" + name
}

// SystemTopic is the topic for system lifecycle events.
func SystemTopic(prefix string) string {
	return prefix + "/system"
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishLED sends an LED configure result.
	// Returns error if publishing fails (should not crash the process).
	PublishLED(event LEDEvent) error

	// PublishButton sends a debounced button transition.
	PublishButton(event ButtonEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// LEDEvent is the outcome of one configure request.
type LEDEvent struct {
	Timestamp time.Time
	Channel   int
	Name      string
	Mode      string
	OnMs      uint32
	OffMs     uint32
	Err       error
}

// ButtonEvent is one debounced button transition.
type ButtonEvent struct {
	Timestamp time.Time
	Name      string
	Event     string // "PRESS" or "RELEASE"
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RESET"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// LEDPayload represents the MQTT message payload for an LED event.
type LEDPayload struct {
	LED LEDPayloadInner `json:"led"`
}

// LEDPayloadInner contains the LED event details.
type LEDPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Channel   int    `json:"channel"`
	Name      string `json:"name,omitempty"`
	Mode      string `json:"mode"`
	OnMs      uint32 `json:"on_ms"`
	OffMs     uint32 `json:"off_ms"`
	Result    string `json:"result"` // "SUCCESS" or "FAILURE"
	Error     string `json:"error,omitempty"`
}

// FormatLEDPayload creates the JSON payload for an LED event.
func FormatLEDPayload(event LEDEvent) ([]byte, error) {
	inner := LEDPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Channel:   event.Channel,
		Name:      event.Name,
		Mode:      event.Mode,
		OnMs:      event.OnMs,
		OffMs:     event.OffMs,
		Result:    "SUCCESS",
	}
	if event.Err != nil {
		inner.Result = "FAILURE"
		inner.Error = event.Err.Error()
	}
	return json.Marshal(LEDPayload{LED: inner})
}

// ButtonPayload represents the MQTT message payload for a button event.
type ButtonPayload struct {
	Button ButtonPayloadInner `json:"button"`
}

// ButtonPayloadInner contains the button event details.
type ButtonPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Event     string `json:"event"`
}

// FormatButtonPayload creates the JSON payload for a button event.
func FormatButtonPayload(event ButtonEvent) ([]byte, error) {
	return json.Marshal(ButtonPayload{
		Button: ButtonPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Name:      event.Name,
			Event:     event.Event,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willPayload is the last-will message the broker publishes if the
// connection drops without a clean disconnect.
func willPayload() []byte {
	data, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "OFFLINE", Reason: "CONNECTION_LOST"},
	})
	return data
}
