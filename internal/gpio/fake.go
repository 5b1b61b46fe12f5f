package gpio

import (
	"errors"
	"sync"
)

// Write records a single output change made through FakeOutputs.
type Write struct {
	Line int
	High bool
}

// FakeOutputs is a test double that records output levels.
// It is also used as the LED backend when running without hardware.
type FakeOutputs struct {
	mu sync.Mutex

	levels map[int]bool
	writes []Write

	// WriteError, if set, is returned by SetHigh and SetLow.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutputs creates a FakeOutputs with every line low.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{levels: make(map[int]bool)}
}

// SetHigh records a high level on line.
func (f *FakeOutputs) SetHigh(line int) error {
	return f.set(line, true)
}

// SetLow records a low level on line.
func (f *FakeOutputs) SetLow(line int) error {
	return f.set(line, false)
}

func (f *FakeOutputs) set(line int, high bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.levels[line] = high
	f.writes = append(f.writes, Write{Line: line, High: high})
	return nil
}

// Level returns the last level written to line.
func (f *FakeOutputs) Level(line int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[line]
}

// Writes returns a copy of the write history.
func (f *FakeOutputs) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Write, len(f.writes))
	copy(out, f.writes)
	return out
}

// Reset clears levels and history.
func (f *FakeOutputs) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = make(map[int]bool)
	f.writes = nil
	f.WriteError = nil
	f.Closed = false
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// FakeInputs is a test double that returns scripted button samples.
type FakeInputs struct {
	// Samples contains scripted pressed states to return.
	// Each call to Read() consumes the next sample.
	Samples [][]bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeInputs creates a FakeInputs with the given samples.
func NewFakeInputs(samples [][]bool) *FakeInputs {
	return &FakeInputs{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeInputs) Read() ([]bool, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	out := make([]bool, len(sample))
	copy(out, sample)
	return out, nil
}

// Close marks the inputs as closed.
func (f *FakeInputs) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the inputs to the beginning of samples.
func (f *FakeInputs) Reset() {
	f.index = 0
	f.Closed = false
}
