package button

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/gpio"
	"github.com/sweeney/ledblink/internal/timer"
)

type fakeLEDs struct {
	enabled map[int]bool
	levels  map[int]bool
	writes  int
}

func newFakeLEDs() *fakeLEDs {
	return &fakeLEDs{enabled: map[int]bool{}, levels: map[int]bool{}}
}

func (f *fakeLEDs) SetOutputLevelIfIdle(ch int, level bool) bool {
	if f.enabled[ch] {
		return false
	}
	f.levels[ch] = level
	f.writes++
	return true
}

func TestDriverMirrorsUnownedLED(t *testing.T) {
	leds := newFakeLEDs()
	d := NewDriver([]Binding{{Name: "s1", Channel: 0}, {Name: "s2", Channel: 1}},
		leds, 50*time.Millisecond, t0, zerolog.Nop())

	d.Tick([]bool{false, false}, t0)
	if leds.writes != 0 {
		t.Fatal("no override before baseline")
	}
	d.Tick([]bool{false, false}, t0.Add(50*time.Millisecond))
	if leds.levels[0] || leds.levels[1] {
		t.Fatal("expected LEDs off")
	}

	now := t0.Add(time.Second)
	d.Tick([]bool{true, false}, now)
	events, err := d.Tick([]bool{true, false}, now.Add(50*time.Millisecond))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(events) != 1 || events[0].Name != "s1" || events[0].Type != EventPress {
		t.Fatalf("unexpected events %+v", events)
	}
	if !leds.levels[0] {
		t.Error("LED 0 should follow button s1")
	}
	if leds.levels[1] {
		t.Error("LED 1 should stay off")
	}
}

func TestDriverLeavesOwnedLEDAlone(t *testing.T) {
	leds := newFakeLEDs()
	leds.enabled[0] = true
	d := NewDriver([]Binding{{Name: "s1", Channel: 0}}, leds, 0, t0, zerolog.Nop())

	for i := 0; i < 5; i++ {
		d.Tick([]bool{true}, t0.Add(time.Duration(i)*time.Millisecond))
	}
	if leds.writes != 0 {
		t.Errorf("owned LED written %d times", leds.writes)
	}

	// Once released by the scheduler the button takes over.
	leds.enabled[0] = false
	d.Tick([]bool{true}, t0.Add(10*time.Millisecond))
	if !leds.levels[0] {
		t.Error("expected LED 0 on")
	}
}

// configuringLEDs takes ownership of a channel between the moment the
// driver samples it and the moment it writes, the way a shell Configure
// running on another goroutine can.
type configuringLEDs struct {
	sched *blink.Scheduler
	ch    int
	on    uint32
	done  bool
}

func (c *configuringLEDs) SetOutputLevelIfIdle(ch int, level bool) bool {
	if !c.done {
		c.done = true
		if err := c.sched.Configure(c.ch, c.on, 0); err != nil {
			panic(err)
		}
	}
	return c.sched.SetOutputLevelIfIdle(ch, level)
}

func TestDriverYieldsToConcurrentConfigure(t *testing.T) {
	pins := gpio.NewFakeOutputs()
	sched, err := blink.New(timer.NewSim(timer.DefaultFrequencyHz, 1), pins,
		[]blink.Output{{Name: "led1", Compare: 0, Line: 17}}, blink.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("blink.New: %v", err)
	}
	leds := &configuringLEDs{sched: sched, ch: 0, on: 500}
	d := NewDriver([]Binding{{Name: "s1", Channel: 0}}, leds, 0, t0, zerolog.Nop())

	d.Tick([]bool{false}, t0)
	d.Tick([]bool{false}, t0.Add(time.Millisecond))

	if !leds.done {
		t.Fatal("Configure never ran")
	}
	if !pins.Level(17) {
		t.Error("released button overwrote the newly configured solid-on LED")
	}
	c, _ := sched.Channel(0)
	if !c.Enabled {
		t.Error("channel should stay owned by the scheduler")
	}
}

func TestDriverUnboundButton(t *testing.T) {
	leds := newFakeLEDs()
	d := NewDriver([]Binding{{Name: "aux", Channel: NoChannel}}, leds, 0, t0, zerolog.Nop())
	d.Tick([]bool{true}, t0)
	d.Tick([]bool{true}, t0.Add(time.Millisecond))
	if leds.writes != 0 {
		t.Error("unbound button must not drive LEDs")
	}
}

func TestDriverSampleError(t *testing.T) {
	d := NewDriver([]Binding{{Name: "s1", Channel: 0}}, newFakeLEDs(), 0, t0, zerolog.Nop())
	if _, err := d.Tick([]bool{true, true}, t0); err == nil {
		t.Error("expected error")
	}
}
