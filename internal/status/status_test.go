package status

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/button"
)

func testLEDs() blink.Snapshot {
	return blink.Snapshot{
		Count:         1234,
		FrequencyHz:   32768,
		MaxIntervalMs: 2000,
		Channels: []blink.ChannelState{
			{Index: 0, Name: "led1", Line: 17, Compare: 1, Mode: blink.ModeSolidOn, Enabled: true, On: true},
			{Index: 1, Name: "led2", Line: 27, Compare: 2, Mode: blink.ModeBlinking, Enabled: true,
				OnMs: 456, OffMs: 987, Deadline: 16176, Toggles: 7},
		},
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 10, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Baselined {
		t.Error("expected Baselined=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateButtons(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.UpdateButtons([]ButtonState{
		{Name: "s1", Channel: 0, State: button.StatePressed},
		{Name: "s2", Channel: button.NoChannel, State: button.StateReleased},
	}, true, button.Counts{Presses: 3, Releases: 2})

	snap := tr.Snapshot()
	if len(snap.Buttons) != 2 || snap.Buttons[0].State != button.StatePressed {
		t.Errorf("Buttons: %+v", snap.Buttons)
	}
	if !snap.Baselined {
		t.Error("expected Baselined=true")
	}
	if snap.Counts.Presses != 3 || snap.Counts.Releases != 2 {
		t.Errorf("Counts: %+v", snap.Counts)
	}
}

func TestRecordConfigure(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.RecordConfigure(nil)
	tr.RecordConfigure(blink.ErrDurationOutOfRange)
	tr.RecordConfigure(nil)

	c := tr.Snapshot().Counts
	if c.Configures != 3 || c.ConfigureFailures != 1 {
		t.Errorf("Counts: %+v", c)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestRecordMirror(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.RecordMirror(errors.New("connection refused"))
	snap := tr.Snapshot()
	if snap.MirrorSyncs != 1 || snap.MirrorError != "connection refused" {
		t.Errorf("after failure: syncs=%d err=%q", snap.MirrorSyncs, snap.MirrorError)
	}

	tr.RecordMirror(nil)
	snap = tr.Snapshot()
	if snap.MirrorSyncs != 2 || snap.MirrorError != "" {
		t.Errorf("after success: syncs=%d err=%q", snap.MirrorSyncs, snap.MirrorError)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.UpdateLEDs(testLEDs())
	tr.UpdateButtons([]ButtonState{{Name: "s1", State: button.StateReleased}}, true, button.Counts{})

	snap1 := tr.Snapshot()
	snap1.LEDs.Channels[0].Name = "mutated"
	snap1.Buttons[0].State = button.StatePressed

	snap2 := tr.Snapshot()
	if snap2.LEDs.Channels[0].Name != "led1" {
		t.Error("snapshot should be a copy; LED channel was modified")
	}
	if snap2.Buttons[0].State != button.StateReleased {
		t.Error("snapshot should be a copy; button was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		LEDs:      testLEDs(),
		Buttons:   []ButtonState{{Name: "s1", Channel: 0, State: button.StatePressed}, {Name: "aux", Channel: button.NoChannel}},
		Baselined: true,
		Counts:    Counts{Configures: 5, ConfigureFailures: 1, Presses: 2},
		Seed:      4242,
		StartTime: start,
		Now:       start.Add(15 * time.Minute),

		MQTTConnected: true,
		Config:        Config{FrequencyHz: 32768, PollMs: 10, DebounceMs: 50, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	st := parsed.Status

	if !st.Ready {
		t.Error("expected Ready=true")
	}
	if st.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", st.UptimeSeconds)
	}
	if st.Counter.Count != 1234 || st.Counter.MaxIntervalMs != 2000 {
		t.Errorf("Counter: %+v", st.Counter)
	}
	if len(st.LEDs) != 2 {
		t.Fatalf("LEDs: got %d", len(st.LEDs))
	}
	if st.LEDs[1].Mode != "BLINKING" || st.LEDs[1].OnMs != 456 || st.LEDs[1].Deadline != 16176 {
		t.Errorf("LED 1: %+v", st.LEDs[1])
	}
	if st.Buttons[0].Channel == nil || *st.Buttons[0].Channel != 0 || st.Buttons[0].State != "PRESSED" {
		t.Errorf("button 0: %+v", st.Buttons[0])
	}
	if st.Buttons[1].Channel != nil || st.Buttons[1].State != "UNKNOWN" {
		t.Errorf("button 1: %+v", st.Buttons[1])
	}
	if st.Seed != 4242 {
		t.Errorf("Seed: got %d", st.Seed)
	}
	if !st.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if st.Counts.Configures != 5 || st.Counts.ConfigureFailures != 1 {
		t.Errorf("Counts: %+v", st.Counts)
	}
	if st.Mirror != nil {
		t.Error("mirror should be omitted when disabled")
	}
	// Event and Reason should be omitted
	if st.Event != "" || st.Reason != "" {
		t.Errorf("expected empty Event/Reason for web format, got %q/%q", st.Event, st.Reason)
	}
}

func TestFormatJSONEmptyListsNotNull(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var raw map[string]map[string]interface{}
	json.Unmarshal(FormatJSON(snap), &raw)
	if raw["status"]["leds"] == nil || raw["status"]["buttons"] == nil {
		t.Error("leds and buttons should be empty arrays, not null")
	}
}

func TestFormatJSONWithMirror(t *testing.T) {
	snap := Snapshot{
		StartTime:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:         time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		MirrorSyncs: 60,
		MirrorError: "i/o timeout",
		Config:      Config{MirrorEndpoint: "plc:502"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Mirror == nil {
		t.Fatal("expected Mirror in JSON")
	}
	if parsed.Status.Mirror.Syncs != 60 || parsed.Status.Mirror.LastError != "i/o timeout" {
		t.Errorf("Mirror: %+v", parsed.Status.Mirror)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		LEDs:          testLEDs(),
		Baselined:     true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if len(parsed.Status.LEDs) != 2 {
		t.Errorf("LEDs: got %d, want 2", len(parsed.Status.LEDs))
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.UpdateLEDs(testLEDs())
			tr.UpdateButtons([]ButtonState{{Name: "s1"}}, true, button.Counts{Presses: i})
			tr.RecordConfigure(nil)
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
