package timer

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// DefaultResolution is how often Driver advances the counter.
const DefaultResolution = time.Millisecond

// Driver clocks a Sim from wall time so that one simulated tick lasts
// 1/FrequencyHz seconds.
type Driver struct {
	sim        *Sim
	resolution time.Duration
	now        func() time.Time
	log        zerolog.Logger

	// frac carries the sub-tick remainder, in tick-nanoseconds.
	frac uint64
	// pending holds ticks a paused counter did not take, capped at one wrap.
	pending uint32
}

// NewDriver creates a Driver for sim. A zero resolution uses DefaultResolution.
func NewDriver(sim *Sim, resolution time.Duration, log zerolog.Logger) *Driver {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Driver{
		sim:        sim,
		resolution: resolution,
		now:        time.Now,
		log:        log,
	}
}

// Run advances the counter until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.resolution)
	defer ticker.Stop()
	return d.run(ctx, ticker.C)
}

func (d *Driver) run(ctx context.Context, tick <-chan time.Time) error {
	d.log.Debug().
		Uint32("freq_hz", d.sim.FrequencyHz()).
		Dur("resolution", d.resolution).
		Msg("counter driver started")

	last := d.now()
	for {
		select {
		case <-ctx.Done():
			d.log.Debug().Msg("counter driver stopped")
			return nil
		case <-tick:
			t := d.now()
			d.step(last, t)
			last = t
		}
	}
}

// step advances the counter by the wall time between from and to, plus any
// ticks left over from a step that met a paused counter.
func (d *Driver) step(from, to time.Time) {
	n := uint64(d.pending) + uint64(d.ticksSince(from, to))
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	left := uint32(n) - d.sim.Advance(uint32(n))
	if left > Width {
		left = Width
	}
	d.pending = left
}

// ticksSince converts elapsed wall time into whole counter ticks.
func (d *Driver) ticksSince(from, to time.Time) uint32 {
	elapsed := to.Sub(from)
	if elapsed <= 0 {
		return 0
	}
	acc := uint64(elapsed.Nanoseconds())*uint64(d.sim.FrequencyHz()) + d.frac
	d.frac = acc % uint64(time.Second)
	return uint32(acc / uint64(time.Second))
}
