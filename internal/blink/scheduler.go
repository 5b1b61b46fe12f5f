package blink

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/timer"
)

// Pins drives the physical LED lines.
type Pins interface {
	SetHigh(line int) error
	SetLow(line int) error
}

// Result describes one Configure call. It is passed to Options.OnConfigure.
type Result struct {
	Channel int
	Name    string
	OnMs    uint32
	OffMs   uint32
	Mode    Mode
	Err     error
}

// Options configures a Scheduler.
type Options struct {
	Logger zerolog.Logger

	// OnConfigure, if set, is called after every Configure call, outside the
	// scheduler lock.
	OnConfigure func(Result)
}

// Scheduler owns the blink channels and programs the shared counter.
//
// The mutex stands in for masking the compare interrupt: Configure and
// OnCompareMatch never interleave. Lock order is scheduler, then counter.
type Scheduler struct {
	mu       sync.Mutex
	counter  timer.Counter
	pins     Pins
	outputs  []Output
	channels []Channel
	byReg    map[int]int

	freq  uint32
	maxMs uint32

	pinErrors  uint64
	lastPinErr error

	log         zerolog.Logger
	onConfigure func(Result)
}

// New creates a Scheduler with one channel per output. Every channel starts
// disabled with its line driven low, and the scheduler installs itself as the
// counter's compare handler.
func New(counter timer.Counter, pins Pins, outputs []Output, opts Options) (*Scheduler, error) {
	byReg := make(map[int]int, len(outputs))
	for i, o := range outputs {
		if prev, dup := byReg[o.Compare]; dup {
			return nil, fmt.Errorf("blink: channels %d and %d share compare register %d", prev, i, o.Compare)
		}
		byReg[o.Compare] = i
	}

	s := &Scheduler{
		counter:     counter,
		pins:        pins,
		outputs:     append([]Output(nil), outputs...),
		channels:    make([]Channel, len(outputs)),
		byReg:       byReg,
		freq:        counter.FrequencyHz(),
		log:         opts.Logger,
		onConfigure: opts.OnConfigure,
	}
	s.maxMs = MaxIntervalMs(s.freq)

	s.mu.Lock()
	for i, o := range s.outputs {
		s.counter.ClearCompareFlag(o.Compare)
		s.counter.DisableCompareInterrupt(o.Compare)
		s.drive(i, false)
	}
	s.mu.Unlock()

	counter.SetHandler(s.handleCompare)
	s.counter.ResumeFreeRunning()

	s.log.Debug().
		Int("channels", len(outputs)).
		Uint32("freq_hz", s.freq).
		Uint32("max_interval_ms", s.maxMs).
		Msg("blink scheduler ready")
	return s, nil
}

// Channels returns the number of channels.
func (s *Scheduler) Channels() int {
	return len(s.channels)
}

// MaxIntervalMs returns the longest accepted on or off duration.
func (s *Scheduler) MaxIntervalMs() uint32 {
	return s.maxMs
}

// FrequencyHz returns the counter clock rate.
func (s *Scheduler) FrequencyHz() uint32 {
	return s.freq
}

// TicksFor converts milliseconds to ticks of this scheduler's counter.
func (s *Scheduler) TicksFor(ms uint32) uint16 {
	return TicksFor(ms, s.freq)
}

// Configure sets a channel's blink durations in milliseconds.
//
//	on=0, off=0  disable: the scheduler releases the line
//	on>0, off=0  solid on
//	on=0, off>0  solid off
//	on>0, off>0  blink, starting on
//
// Both durations are checked before anything changes, so a rejected call
// leaves the channel as it was.
func (s *Scheduler) Configure(ch int, onMs, offMs uint32) error {
	res := Result{Channel: ch, OnMs: onMs, OffMs: offMs, Mode: Classify(onMs, offMs)}
	res.Err = s.configure(ch, onMs, offMs)
	if ch >= 0 && ch < len(s.outputs) {
		res.Name = s.outputs[ch].Name
	}

	ev := s.log.Debug()
	if res.Err != nil {
		ev = s.log.Warn().Err(res.Err)
	}
	ev.Int("channel", ch).
		Uint32("on_ms", onMs).
		Uint32("off_ms", offMs).
		Str("mode", string(res.Mode)).
		Msg("configure")

	if s.onConfigure != nil {
		s.onConfigure(res)
	}
	return res.Err
}

func (s *Scheduler) configure(ch int, onMs, offMs uint32) error {
	if ch < 0 || ch >= len(s.channels) {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if onMs > s.maxMs || offMs > s.maxMs {
		return fmt.Errorf("%w: on=%dms off=%dms (max %dms)", ErrDurationOutOfRange, onMs, offMs, s.maxMs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.outputs[ch].Compare
	s.counter.ClearCompareFlag(reg)
	s.counter.DisableCompareInterrupt(reg)

	toggles := s.channels[ch].toggles
	s.channels[ch] = Channel{toggles: toggles}
	c := &s.channels[ch]

	switch Classify(onMs, offMs) {
	case ModeDisabled:
		// The line keeps its level; another driver may take it over.
	case ModeSolidOn:
		c.Enabled = true
		c.mode = ModeSolidOn
		s.drive(ch, true)
	case ModeSolidOff:
		c.Enabled = true
		c.mode = ModeSolidOff
		s.drive(ch, false)
	case ModeBlinking:
		c.Enabled = true
		c.On = true
		c.OnMs = onMs
		c.OffMs = offMs
		c.mode = ModeBlinking
		s.drive(ch, true)

		// Stop the counter so no match can fire against a half-written
		// register.
		s.counter.Pause()
		s.counter.SetToggleMode(reg)
		s.counter.SetCompare(reg, s.counter.Count()+s.TicksFor(onMs))
		s.counter.ClearCompareFlag(reg)
		s.counter.EnableCompareInterrupt(reg)
		s.counter.ResumeFreeRunning()
	}
	return nil
}

// handleCompare is the counter's compare vector.
func (s *Scheduler) handleCompare(reg int) {
	ch, ok := s.byReg[reg]
	if !ok {
		return
	}
	s.OnCompareMatch(ch)
}

// OnCompareMatch toggles a blinking channel and schedules its next deadline
// as the previous deadline plus the duration of the level just entered.
// Calls for channels that are not blinking are ignored.
func (s *Scheduler) OnCompareMatch(ch int) {
	if ch < 0 || ch >= len(s.channels) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &s.channels[ch]
	if c.mode != ModeBlinking {
		return
	}

	c.On = !c.On
	s.drive(ch, c.On)

	d := c.OffMs
	if c.On {
		d = c.OnMs
	}
	reg := s.outputs[ch].Compare
	s.counter.SetCompare(reg, s.counter.Compare(reg)+s.TicksFor(d))
	c.toggles++
}

// IsEnabled reports whether the scheduler owns a channel's line. Invalid
// channels report false.
func (s *Scheduler) IsEnabled(ch int) bool {
	if ch < 0 || ch >= len(s.channels) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch].Enabled
}

// SetOutputLevel drives a channel's line directly, bypassing the scheduler
// state. Callers that must not fight a running blink use
// SetOutputLevelIfIdle instead. Invalid channels are ignored.
func (s *Scheduler) SetOutputLevel(ch int, level bool) {
	if ch < 0 || ch >= len(s.channels) {
		return
	}
	s.mu.Lock()
	s.drive(ch, level)
	s.mu.Unlock()
}

// SetOutputLevelIfIdle drives a channel's line only while the scheduler
// does not own it. The ownership check and the write happen under one
// lock, so a concurrent Configure never sees its line overwritten. It
// reports whether the line was driven.
func (s *Scheduler) SetOutputLevelIfIdle(ch int, level bool) bool {
	if ch < 0 || ch >= len(s.channels) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channels[ch].Enabled {
		return false
	}
	s.drive(ch, level)
	return true
}

// Channel returns a copy of a channel's state.
func (s *Scheduler) Channel(ch int) (Channel, error) {
	if ch < 0 || ch >= len(s.channels) {
		return Channel{}, fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[ch], nil
}

// DisableAll returns every channel to the disabled state.
func (s *Scheduler) DisableAll() {
	for ch := range s.channels {
		_ = s.Configure(ch, 0, 0)
	}
}

// drive sets the physical line. It runs on the compare path, so failures are
// only recorded; Snapshot reports them. Caller holds s.mu.
func (s *Scheduler) drive(ch int, high bool) {
	line := s.outputs[ch].Line
	var err error
	if high {
		err = s.pins.SetHigh(line)
	} else {
		err = s.pins.SetLow(line)
	}
	if err != nil {
		s.pinErrors++
		s.lastPinErr = err
	}
}
