package button

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func baselined(t *testing.T, sample ...bool) *Detector {
	t.Helper()
	d := NewDetector(len(sample), 50*time.Millisecond, t0)
	d.Process(sample, t0)
	d.Process(sample, t0.Add(50*time.Millisecond))
	if !d.IsBaselined() {
		t.Fatal("detector not baselined")
	}
	return d
}

func TestBaselineEstablishment(t *testing.T) {
	d := NewDetector(2, 50*time.Millisecond, t0)

	events, err := d.Process([]bool{true, false}, t0)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(events) != 0 || d.IsBaselined() {
		t.Fatal("should not baseline on first sample")
	}

	d.Process([]bool{true, false}, t0.Add(40*time.Millisecond))
	if d.IsBaselined() {
		t.Fatal("should not baseline before debounce period")
	}

	events, _ = d.Process([]bool{true, false}, t0.Add(50*time.Millisecond))
	if len(events) != 0 {
		t.Errorf("expected no events at baseline, got %d", len(events))
	}
	if !d.IsBaselined() {
		t.Fatal("should be baselined")
	}
	s := d.Stable()
	if s[0] != StatePressed || s[1] != StateReleased {
		t.Errorf("unexpected stable states %v", s)
	}
}

func TestBaselineResetOnChange(t *testing.T) {
	d := NewDetector(1, 50*time.Millisecond, t0)
	d.Process([]bool{false}, t0)
	d.Process([]bool{true}, t0.Add(30*time.Millisecond))
	d.Process([]bool{true}, t0.Add(50*time.Millisecond))
	if d.IsBaselined() {
		t.Fatal("timer should restart on change")
	}
	d.Process([]bool{true}, t0.Add(80*time.Millisecond))
	if !d.IsBaselined() || !d.Pressed(0) {
		t.Fatal("expected pressed baseline")
	}
}

func TestPressAndRelease(t *testing.T) {
	d := baselined(t, false, false)
	now := t0.Add(time.Second)

	events, _ := d.Process([]bool{true, false}, now)
	if len(events) != 0 {
		t.Fatal("press should be debounced")
	}
	events, _ = d.Process([]bool{true, false}, now.Add(50*time.Millisecond))
	if len(events) != 1 || events[0].Type != EventPress || events[0].Button != 0 {
		t.Fatalf("expected press on button 0, got %+v", events)
	}

	d.Process([]bool{false, false}, now.Add(100*time.Millisecond))
	events, _ = d.Process([]bool{false, false}, now.Add(150*time.Millisecond))
	if len(events) != 1 || events[0].Type != EventRelease {
		t.Fatalf("expected release, got %+v", events)
	}

	c := d.Counts()
	if c.Presses != 1 || c.Releases != 1 {
		t.Errorf("counts: %+v", c)
	}
}

func TestGlitchIgnored(t *testing.T) {
	d := baselined(t, false)
	now := t0.Add(time.Second)

	d.Process([]bool{true}, now)
	d.Process([]bool{false}, now.Add(10*time.Millisecond))
	events, _ := d.Process([]bool{false}, now.Add(100*time.Millisecond))
	if len(events) != 0 {
		t.Errorf("expected glitch to be ignored, got %+v", events)
	}
	if d.Pressed(0) {
		t.Error("expected released")
	}
}

func TestSimultaneousTransitionsInButtonOrder(t *testing.T) {
	d := baselined(t, false, false, false)
	now := t0.Add(time.Second)

	d.Process([]bool{false, true, true}, now)
	events, _ := d.Process([]bool{false, true, true}, now.Add(50*time.Millisecond))
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Button != 1 || events[1].Button != 2 {
		t.Errorf("unexpected order: %+v", events)
	}
}

func TestSampleSizeMismatch(t *testing.T) {
	d := NewDetector(2, 50*time.Millisecond, t0)
	if _, err := d.Process([]bool{true}, t0); !errors.Is(err, ErrSampleSize) {
		t.Errorf("got %v, want ErrSampleSize", err)
	}
}

func TestPressedOutOfRange(t *testing.T) {
	d := baselined(t, true)
	if d.Pressed(-1) || d.Pressed(1) {
		t.Error("out of range buttons must report false")
	}
}

func TestCheckHeartbeat(t *testing.T) {
	d := NewDetector(1, 50*time.Millisecond, t0)
	if hb := d.CheckHeartbeat(t0.Add(time.Hour), time.Minute); hb != nil {
		t.Error("no heartbeat before baseline")
	}

	d.Process([]bool{false}, t0)
	d.Process([]bool{false}, t0.Add(50*time.Millisecond))

	if hb := d.CheckHeartbeat(t0.Add(30*time.Second), time.Minute); hb != nil {
		t.Error("no heartbeat before interval")
	}
	hb := d.CheckHeartbeat(t0.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	if hb.Uptime != time.Minute {
		t.Errorf("uptime: got %v", hb.Uptime)
	}
	if d.CheckHeartbeat(t0.Add(90*time.Second), time.Minute) != nil {
		t.Error("interval should restart from last heartbeat")
	}
	if d.CheckHeartbeat(t0.Add(time.Hour), 0) != nil {
		t.Error("zero interval disables heartbeats")
	}
}
