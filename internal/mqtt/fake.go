package mqtt

import "sync"

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// LEDEvents contains all LED events that were published.
	LEDEvents []LEDEvent

	// LEDPayloads contains the JSON payloads for LED events.
	LEDPayloads [][]byte

	// ButtonEvents contains all button events that were published.
	ButtonEvents []ButtonEvent

	// ButtonPayloads contains the JSON payloads for button events.
	ButtonPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by PublishLED and PublishButton.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishLED records the LED event.
func (f *FakePublisher) PublishLED(event LEDEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatLEDPayload(event)
	if err != nil {
		return err
	}
	f.LEDEvents = append(f.LEDEvents, event)
	f.LEDPayloads = append(f.LEDPayloads, payload)
	return nil
}

// PublishButton records the button event.
func (f *FakePublisher) PublishButton(event ButtonEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatButtonPayload(event)
	if err != nil {
		return err
	}
	f.ButtonEvents = append(f.ButtonEvents, event)
	f.ButtonPayloads = append(f.ButtonPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LEDEvents = nil
	f.LEDPayloads = nil
	f.ButtonEvents = nil
	f.ButtonPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
