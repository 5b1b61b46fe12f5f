// Package blink schedules LED blink sequences on a single shared hardware
// counter. Each channel owns one compare register; deadlines are accumulated
// from the previous deadline, never from the current count, so repeated
// toggles do not drift with interrupt latency.
package blink

import (
	"errors"

	"github.com/sweeney/ledblink/internal/timer"
)

var (
	// ErrInvalidChannel is returned for a channel id outside the configured set.
	ErrInvalidChannel = errors.New("blink: invalid channel")

	// ErrDurationOutOfRange is returned when an on or off duration exceeds
	// the longest interval the counter can schedule.
	ErrDurationOutOfRange = errors.New("blink: duration out of range")
)

// Mode is the configuration class of a channel.
type Mode string

const (
	ModeDisabled Mode = "DISABLED"
	ModeSolidOn  Mode = "SOLID_ON"
	ModeSolidOff Mode = "SOLID_OFF"
	ModeBlinking Mode = "BLINKING"
)

// Classify returns the mode a configure request with these durations selects.
func Classify(onMs, offMs uint32) Mode {
	switch {
	case onMs == 0 && offMs == 0:
		return ModeDisabled
	case offMs == 0:
		return ModeSolidOn
	case onMs == 0:
		return ModeSolidOff
	default:
		return ModeBlinking
	}
}

// Channel is the blink state of one output.
type Channel struct {
	Enabled bool
	// On is the current logical level; only meaningful while blinking.
	On    bool
	OnMs  uint32
	OffMs uint32

	mode    Mode
	toggles uint64
}

// Mode returns the channel's configuration class.
func (c Channel) Mode() Mode {
	if c.mode == "" {
		return ModeDisabled
	}
	return c.mode
}

// Output binds a channel to its compare register and GPIO line.
type Output struct {
	Name    string
	Compare int
	Line    int
}

// MaxIntervalMs is the longest on or off duration schedulable at freqHz:
// one full wrap of the 16-bit counter.
func MaxIntervalMs(freqHz uint32) uint32 {
	if freqHz == 0 {
		return 0
	}
	return uint32(uint64(timer.Width) * 1000 / uint64(freqHz))
}

// TicksFor converts milliseconds to counter ticks at freqHz, rounding down.
// The result is reduced modulo the counter width, so a full-wrap interval
// maps to 0 and schedules the match one whole period later.
func TicksFor(ms, freqHz uint32) uint16 {
	return uint16(uint64(ms) * uint64(freqHz) / 1000)
}
