package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ledblink/internal/button"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counter       CounterJSON  `json:"counter"`
	LEDs          []LEDJSON    `json:"leds"`
	Buttons       []ButtonJSON `json:"buttons"`
	Seed          uint16       `json:"seed"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Mirror        *MirrorJSON  `json:"mirror,omitempty"`
	Counts        CountsJSON   `json:"event_counts"`
	Config        ConfigJSON   `json:"config"`
}

// CounterJSON describes the shared counter.
type CounterJSON struct {
	Count         uint16 `json:"count"`
	FrequencyHz   uint32 `json:"frequency_hz"`
	MaxIntervalMs uint32 `json:"max_interval_ms"`
	PinErrors     uint64 `json:"pin_errors"`
	LastPinError  string `json:"last_pin_error,omitempty"`
}

// LEDJSON is the JSON representation of one blink channel.
type LEDJSON struct {
	Channel  int    `json:"channel"`
	Name     string `json:"name"`
	Line     int    `json:"line"`
	Mode     string `json:"mode"`
	Enabled  bool   `json:"enabled"`
	On       bool   `json:"on"`
	OnMs     uint32 `json:"on_ms"`
	OffMs    uint32 `json:"off_ms"`
	Deadline uint16 `json:"deadline"`
	Toggles  uint64 `json:"toggles"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	Name    string `json:"name"`
	Channel *int   `json:"channel,omitempty"`
	State   string `json:"state"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// MirrorJSON reports Modbus mirror state.
type MirrorJSON struct {
	Endpoint  string `json:"endpoint"`
	Syncs     int    `json:"syncs"`
	LastError string `json:"last_error,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Configures        int `json:"configures"`
	ConfigureFailures int `json:"configure_failures"`
	Presses           int `json:"presses"`
	Releases          int `json:"releases"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	FrequencyHz uint32 `json:"frequency_hz"`
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	Sim         bool   `json:"sim"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counter: CounterJSON{
			Count:         snap.LEDs.Count,
			FrequencyHz:   snap.LEDs.FrequencyHz,
			MaxIntervalMs: snap.LEDs.MaxIntervalMs,
			PinErrors:     snap.LEDs.PinErrors,
			LastPinError:  snap.LEDs.LastPinError,
		},
		LEDs:    make([]LEDJSON, 0, len(snap.LEDs.Channels)),
		Buttons: make([]ButtonJSON, 0, len(snap.Buttons)),
		Seed:    snap.Seed,
		MQTT:    MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Configures:        snap.Counts.Configures,
			ConfigureFailures: snap.Counts.ConfigureFailures,
			Presses:           snap.Counts.Presses,
			Releases:          snap.Counts.Releases,
		},
		Config: ConfigJSON{
			FrequencyHz: snap.Config.FrequencyHz,
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			Sim:         snap.Config.Sim,
		},
	}

	for _, c := range snap.LEDs.Channels {
		inner.LEDs = append(inner.LEDs, LEDJSON{
			Channel:  c.Index,
			Name:     c.Name,
			Line:     c.Line,
			Mode:     string(c.Mode),
			Enabled:  c.Enabled,
			On:       c.On,
			OnMs:     c.OnMs,
			OffMs:    c.OffMs,
			Deadline: c.Deadline,
			Toggles:  c.Toggles,
		})
	}

	for _, b := range snap.Buttons {
		bj := ButtonJSON{Name: b.Name, State: string(b.State)}
		if bj.State == "" {
			bj.State = "UNKNOWN"
		}
		if b.Channel != button.NoChannel {
			ch := b.Channel
			bj.Channel = &ch
		}
		inner.Buttons = append(inner.Buttons, bj)
	}

	if snap.Config.MirrorEndpoint != "" {
		inner.Mirror = &MirrorJSON{
			Endpoint:  snap.Config.MirrorEndpoint,
			Syncs:     snap.MirrorSyncs,
			LastError: snap.MirrorError,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
