package timer

import "sync"

type compareReg struct {
	value   uint16
	enabled bool
	flag    bool
	mode    OutputMode
}

// Sim is a software Counter. It only moves when Advance is called, which lets
// tests step it deterministically and lets Driver clock it in real time.
type Sim struct {
	mu      sync.Mutex
	freq    uint32
	count   uint16
	running bool
	regs    []compareReg
	handler Handler
}

// NewSim returns a cleared counter with regs compare registers, already
// running in continuous mode.
func NewSim(freqHz uint32, regs int) *Sim {
	if freqHz == 0 {
		freqHz = DefaultFrequencyHz
	}
	return &Sim{
		freq:    freqHz,
		running: true,
		regs:    make([]compareReg, regs),
	}
}

// Advance moves the counter forward by n ticks, dispatching every compare
// match as it is reached. Handlers run without the Sim lock held so they may
// reprogram the counter. It stops early if the counter is paused, and
// returns how many ticks were applied.
func (s *Sim) Advance(n uint32) uint32 {
	var buf [8]int
	for i := uint32(0); i < n; i++ {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return i
		}
		s.count++
		fired := buf[:0]
		for r := range s.regs {
			reg := &s.regs[r]
			if reg.value != s.count {
				continue
			}
			reg.flag = true
			if reg.enabled && s.handler != nil {
				fired = append(fired, r)
			}
		}
		h := s.handler
		s.mu.Unlock()

		for _, r := range fired {
			if s.takeFlag(r) {
				h(r)
			}
		}
	}
	return n
}

// takeFlag clears a pending flag the way reading the interrupt vector does.
// A flag cleared by the foreground since the match means the event was
// withdrawn.
func (s *Sim) takeFlag(reg int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &s.regs[reg]
	if !r.flag || !r.enabled {
		return false
	}
	r.flag = false
	return true
}

// Set forces the counter value.
func (s *Sim) Set(count uint16) {
	s.mu.Lock()
	s.count = count
	s.mu.Unlock()
}

func (s *Sim) Count() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Sim) Compare(reg int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid(reg) {
		return 0
	}
	return s.regs[reg].value
}

func (s *Sim) SetCompare(reg int, v uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(reg) {
		s.regs[reg].value = v
	}
}

func (s *Sim) Pause() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Sim) ResumeFreeRunning() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
}

// Running reports whether the counter is in continuous mode.
func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sim) ClearCompareFlag(reg int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(reg) {
		s.regs[reg].flag = false
	}
}

func (s *Sim) EnableCompareInterrupt(reg int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(reg) {
		s.regs[reg].enabled = true
	}
}

func (s *Sim) DisableCompareInterrupt(reg int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(reg) {
		s.regs[reg].enabled = false
	}
}

func (s *Sim) SetToggleMode(reg int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valid(reg) {
		s.regs[reg].mode = OutputToggle
	}
}

// InterruptEnabled reports whether a register's compare interrupt is enabled.
func (s *Sim) InterruptEnabled(reg int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid(reg) && s.regs[reg].enabled
}

// Flag reports whether a register's compare flag is pending.
func (s *Sim) Flag(reg int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid(reg) && s.regs[reg].flag
}

// Mode returns a register's output mode.
func (s *Sim) Mode(reg int) OutputMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid(reg) {
		return OutputBitValue
	}
	return s.regs[reg].mode
}

// Registers returns the number of compare registers.
func (s *Sim) Registers() int {
	return len(s.regs)
}

func (s *Sim) SetHandler(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func (s *Sim) FrequencyHz() uint32 {
	return s.freq
}

func (s *Sim) valid(reg int) bool {
	return reg >= 0 && reg < len(s.regs)
}
