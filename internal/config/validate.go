package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Counter clock bounds. At MinFrequencyHz a 1ms interval is one tick; at
// MaxFrequencyHz a full counter wrap is still 1ms.
const (
	MinFrequencyHz = 1000
	MaxFrequencyHz = 65536 * 1000
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.Timer.FrequencyHz < MinFrequencyHz || cfg.Timer.FrequencyHz > MaxFrequencyHz {
		return fmt.Errorf("timer: frequency_hz must be in %d..%d, got %d", MinFrequencyHz, MaxFrequencyHz, cfg.Timer.FrequencyHz)
	}
	if cfg.Timer.ResolutionMs <= 0 {
		return fmt.Errorf("timer: resolution_ms must be positive, got %d", cfg.Timer.ResolutionMs)
	}

	// ------------------------------------------------------------
	// CHANNELS
	// ------------------------------------------------------------

	if len(cfg.Channels) == 0 {
		return fmt.Errorf("channels: at least one channel is required")
	}

	lineOwner := make(map[int]string)
	claim := func(line int, owner string) error {
		if line < 0 {
			return fmt.Errorf("%s: line must not be negative", owner)
		}
		if prev, exists := lineOwner[line]; exists {
			return fmt.Errorf("line %d used by %s and %s", line, prev, owner)
		}
		lineOwner[line] = owner
		return nil
	}

	names := make(map[string]bool)
	compareOwner := make(map[int]string)
	for i, c := range cfg.Channels {
		if c.Name == "" {
			return fmt.Errorf("channel %d: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("channel %q: duplicate name", c.Name)
		}
		names[c.Name] = true

		if c.Compare < 0 {
			return fmt.Errorf("channel %q: compare register must not be negative", c.Name)
		}
		if prev, exists := compareOwner[c.Compare]; exists {
			return fmt.Errorf("compare register %d used by channels %q and %q", c.Compare, prev, c.Name)
		}
		compareOwner[c.Compare] = c.Name

		if err := claim(c.Line, fmt.Sprintf("channel %q", c.Name)); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// BUTTONS
	// ------------------------------------------------------------

	buttonNames := make(map[string]bool)
	for i, b := range cfg.Buttons {
		if b.Name == "" {
			return fmt.Errorf("button %d: name is required", i)
		}
		if buttonNames[b.Name] {
			return fmt.Errorf("button %q: duplicate name", b.Name)
		}
		buttonNames[b.Name] = true

		if b.Channel != nil && (*b.Channel < 0 || *b.Channel >= len(cfg.Channels)) {
			return fmt.Errorf("button %q: channel %d does not exist", b.Name, *b.Channel)
		}
		if err := claim(b.Line, fmt.Sprintf("button %q", b.Name)); err != nil {
			return err
		}
	}
	if cfg.GPIO.PollMs <= 0 {
		return fmt.Errorf("gpio: poll_ms must be positive, got %d", cfg.GPIO.PollMs)
	}
	if cfg.GPIO.DebounceMs < 0 {
		return fmt.Errorf("gpio: debounce_ms must not be negative, got %d", cfg.GPIO.DebounceMs)
	}

	// ------------------------------------------------------------
	// SURFACES
	// ------------------------------------------------------------

	if cfg.MQTT.HeartbeatS < 0 {
		return fmt.Errorf("mqtt: heartbeat_s must not be negative, got %d", cfg.MQTT.HeartbeatS)
	}
	if cfg.MQTT.Broker != "" && cfg.MQTT.TopicPrefix == "" {
		return fmt.Errorf("mqtt: topic_prefix is required when a broker is set")
	}

	if cfg.Mirror.Endpoint != "" {
		if cfg.Mirror.IntervalMs <= 0 {
			return fmt.Errorf("mirror: interval_ms must be positive, got %d", cfg.Mirror.IntervalMs)
		}
		if cfg.Mirror.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must not be negative, got %d", cfg.Mirror.TimeoutMs)
		}
	}

	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	switch cfg.Log.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log: unknown format %q", cfg.Log.Format)
	}

	return nil
}
