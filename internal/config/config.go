// Package config loads the daemon configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPIO     GPIOConfig      `yaml:"gpio"`
	Timer    TimerConfig     `yaml:"timer"`
	Channels []ChannelConfig `yaml:"channels"`
	Buttons  []ButtonConfig  `yaml:"buttons"`
	MQTT     MQTTConfig      `yaml:"mqtt"`
	HTTP     HTTPConfig      `yaml:"http"`
	Mirror   MirrorConfig    `yaml:"mirror"`
	Random   RandomConfig    `yaml:"random"`
	Log      LogConfig       `yaml:"log"`
}

// ---- GPIO ----

type GPIOConfig struct {
	Chip string `yaml:"chip"`
	// Sim drives fake outputs instead of the GPIO character device.
	Sim        bool `yaml:"sim"`
	PollMs     int  `yaml:"poll_ms"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// ---- COUNTER ----

type TimerConfig struct {
	FrequencyHz  uint32 `yaml:"frequency_hz"`
	ResolutionMs int    `yaml:"resolution_ms"`
}

// ---- LEDS / BUTTONS ----

type ChannelConfig struct {
	Name    string `yaml:"name"`
	Line    int    `yaml:"line"`
	Compare int    `yaml:"compare"`
}

type ButtonConfig struct {
	Name string `yaml:"name"`
	Line int    `yaml:"line"`
	// Channel is the LED mirrored while the scheduler does not own it.
	// nil leaves the button unbound.
	Channel *int `yaml:"channel"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	HeartbeatS  int    `yaml:"heartbeat_s"`
	// WSBroker is the websocket URL the status page uses for live updates.
	// "=broker" derives it from Broker; empty disables.
	WSBroker string `yaml:"ws_broker"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// ---- MODBUS MIRROR ----

type MirrorConfig struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	CoilAddress uint16 `yaml:"coil_address"`
	RegAddress  uint16 `yaml:"register_address"`
	IntervalMs  int    `yaml:"interval_ms"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// ---- RANDOM ----

type RandomConfig struct {
	SeedFile string `yaml:"seed_file"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json | auto
}

// Default returns the configuration for the two-LED, two-button board.
func Default() *Config {
	ch0, ch1 := 0, 1
	return &Config{
		GPIO: GPIOConfig{
			Chip:       "gpiochip0",
			PollMs:     10,
			DebounceMs: 50,
		},
		Timer: TimerConfig{
			FrequencyHz:  32768,
			ResolutionMs: 1,
		},
		Channels: []ChannelConfig{
			{Name: "led1", Line: 17, Compare: 1},
			{Name: "led2", Line: 27, Compare: 2},
		},
		Buttons: []ButtonConfig{
			{Name: "s1", Line: 23, Channel: &ch0},
			{Name: "s2", Line: 24, Channel: &ch1},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "ledblink",
			TopicPrefix: "ledblink",
			HeartbeatS:  900,
			WSBroker:    "=broker",
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Mirror: MirrorConfig{
			UnitID:     1,
			IntervalMs: 1000,
			TimeoutMs:  2000,
		},
		Random: RandomConfig{SeedFile: "/var/lib/ledblink/seed.yaml"},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Poll returns the button sampling interval.
func (c *Config) Poll() time.Duration {
	return time.Duration(c.GPIO.PollMs) * time.Millisecond
}

// Debounce returns the button debounce duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.GPIO.DebounceMs) * time.Millisecond
}

// Resolution returns the counter driver step.
func (c *Config) Resolution() time.Duration {
	return time.Duration(c.Timer.ResolutionMs) * time.Millisecond
}

// Heartbeat returns the MQTT heartbeat interval; 0 disables.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.MQTT.HeartbeatS) * time.Second
}

// MirrorInterval returns the Modbus mirror period.
func (c *Config) MirrorInterval() time.Duration {
	return time.Duration(c.Mirror.IntervalMs) * time.Millisecond
}

// MirrorTimeout returns the Modbus request timeout.
func (c *Config) MirrorTimeout() time.Duration {
	return time.Duration(c.Mirror.TimeoutMs) * time.Millisecond
}
