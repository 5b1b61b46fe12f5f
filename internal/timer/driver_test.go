package timer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestTicksSince(t *testing.T) {
	d := NewDriver(NewSim(32768, 1), 0, zerolog.Nop())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := d.ticksSince(start, start.Add(time.Second)); got != 32768 {
		t.Errorf("1s: got %d ticks, want 32768", got)
	}
	if got := d.ticksSince(start, start.Add(-time.Second)); got != 0 {
		t.Errorf("negative elapsed: got %d ticks, want 0", got)
	}
}

func TestTicksSinceCarriesRemainder(t *testing.T) {
	d := NewDriver(NewSim(32768, 1), 0, zerolog.Nop())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 1ms is 32.768 ticks; 1000 steps must add up to exactly one second.
	var total uint32
	prev := start
	for i := 1; i <= 1000; i++ {
		next := start.Add(time.Duration(i) * time.Millisecond)
		total += d.ticksSince(prev, next)
		prev = next
	}
	if total != 32768 {
		t.Errorf("total ticks: got %d, want 32768", total)
	}
}

func TestStepCarriesTicksAcrossPause(t *testing.T) {
	sim := NewSim(1000, 1)
	d := NewDriver(sim, time.Millisecond, zerolog.Nop())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sim.Pause()
	d.step(start, start.Add(10*time.Millisecond))
	if sim.Count() != 0 {
		t.Fatalf("paused counter moved to %d", sim.Count())
	}
	if d.pending != 10 {
		t.Fatalf("pending: got %d, want 10", d.pending)
	}

	sim.ResumeFreeRunning()
	d.step(start.Add(10*time.Millisecond), start.Add(20*time.Millisecond))
	if sim.Count() != 20 {
		t.Errorf("Count: got %d, want 20", sim.Count())
	}
	if d.pending != 0 {
		t.Errorf("pending: got %d, want 0", d.pending)
	}
}

func TestStepCapsPendingAtOneWrap(t *testing.T) {
	sim := NewSim(1000, 1)
	d := NewDriver(sim, time.Millisecond, zerolog.Nop())
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sim.Pause()
	d.step(start, start.Add(5*time.Minute))
	if d.pending != Width {
		t.Errorf("pending: got %d, want %d", d.pending, Width)
	}
}

func TestDriverRun(t *testing.T) {
	sim := NewSim(1000, 1)
	d := NewDriver(sim, time.Millisecond, zerolog.Nop())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	d.now = func() time.Time {
		ts := start.Add(time.Duration(n) * 10 * time.Millisecond)
		n++
		return ts
	}

	tick := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.run(ctx, tick) }()

	for i := 0; i < 5; i++ {
		tick <- time.Time{}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	// Five 10ms steps at 1 kHz.
	if sim.Count() != 50 {
		t.Errorf("Count: got %d, want 50", sim.Count())
	}
}
