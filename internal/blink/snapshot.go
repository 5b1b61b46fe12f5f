package blink

// ChannelState is a point-in-time view of one channel.
type ChannelState struct {
	Index    int
	Name     string
	Line     int
	Compare  int
	Mode     Mode
	Enabled  bool
	On       bool
	OnMs     uint32
	OffMs    uint32
	Deadline uint16
	Toggles  uint64
}

// Snapshot is a point-in-time view of the scheduler.
type Snapshot struct {
	Count         uint16
	FrequencyHz   uint32
	MaxIntervalMs uint32
	Channels      []ChannelState
	PinErrors     uint64
	LastPinError  string
}

// Snapshot returns a copy of every channel's state.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Count:         s.counter.Count(),
		FrequencyHz:   s.freq,
		MaxIntervalMs: s.maxMs,
		Channels:      make([]ChannelState, len(s.channels)),
		PinErrors:     s.pinErrors,
	}
	if s.lastPinErr != nil {
		snap.LastPinError = s.lastPinErr.Error()
	}
	for i, c := range s.channels {
		o := s.outputs[i]
		cs := ChannelState{
			Index:   i,
			Name:    o.Name,
			Line:    o.Line,
			Compare: o.Compare,
			Mode:    c.Mode(),
			Enabled: c.Enabled,
			On:      c.On,
			OnMs:    c.OnMs,
			OffMs:   c.OffMs,
			Toggles: c.toggles,
		}
		if cs.Mode == ModeBlinking {
			cs.Deadline = s.counter.Compare(o.Compare)
		}
		switch cs.Mode {
		case ModeSolidOn:
			cs.On = true
		case ModeSolidOff:
			cs.On = false
		}
		snap.Channels[i] = cs
	}
	return snap
}
