package main

import (
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/button"
	"github.com/sweeney/ledblink/internal/gpio"
	"github.com/sweeney/ledblink/internal/mqtt"
	"github.com/sweeney/ledblink/internal/status"
)

// syncer writes LED state to an external device.
type syncer interface {
	Sync(blink.Snapshot) error
}

// loopDeps is everything runLoop reads from or writes to.
type loopDeps struct {
	inputs     gpio.Inputs // nil when no buttons are configured
	bindings   []button.Binding
	debounce   time.Duration
	heartbeat  time.Duration
	sched      *blink.Scheduler
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker
	mirror     syncer // may be nil
	log        zerolog.Logger
}

// runLoop owns the button debouncer. It polls buttons on tick, forwards
// configure results from the scheduler, syncs the mirror on mirrorTick and
// returns after publishing SHUTDOWN on a signal or shell exit.
func runLoop(d loopDeps, now func() time.Time, tick, mirrorTick <-chan time.Time, configured <-chan blink.Result, sig <-chan os.Signal, exit <-chan struct{}) error {
	startTime := now()
	buttons := button.NewDriver(d.bindings, d.sched, d.debounce, startTime, d.log.With().Str("component", "button").Logger())

	for {
		select {
		case s := <-sig:
			d.log.Info().Str("signal", s.String()).Msg("shutting down")
			d.shutdown(buttons, now(), signalName(s))
			return nil

		case <-exit:
			d.log.Info().Msg("shell exited, shutting down")
			d.shutdown(buttons, now(), "EXIT")
			return nil

		case r := <-configured:
			d.tracker.RecordConfigure(r.Err)
			d.tracker.UpdateLEDs(d.sched.Snapshot())
			event := mqtt.LEDEvent{
				Timestamp: now(),
				Channel:   r.Channel,
				Name:      r.Name,
				Mode:      string(r.Mode),
				OnMs:      r.OnMs,
				OffMs:     r.OffMs,
				Err:       r.Err,
			}
			if err := d.publisher.PublishLED(event); err != nil {
				d.log.Warn().Err(err).Int("channel", r.Channel).Msg("led publish error")
			}

		case <-mirrorTick:
			if d.mirror == nil {
				continue
			}
			err := d.mirror.Sync(d.sched.Snapshot())
			d.tracker.RecordMirror(err)
			if err != nil {
				d.log.Warn().Err(err).Msg("mirror sync failed")
			}

		case <-tick:
			t := now()
			var pressed []bool
			if d.inputs != nil {
				var err error
				pressed, err = d.inputs.Read()
				if err != nil {
					d.log.Warn().Err(err).Msg("gpio read error")
					continue
				}
			}

			events, err := buttons.Tick(pressed, t)
			if err != nil {
				d.log.Warn().Err(err).Msg("button sample error")
				continue
			}
			for _, e := range events {
				be := mqtt.ButtonEvent{Timestamp: e.Timestamp, Name: e.Name, Event: string(e.Type)}
				if err := d.publisher.PublishButton(be); err != nil {
					// Don't crash on publish failure
					d.log.Warn().Err(err).Str("button", e.Name).Msg("button publish error")
				}
			}

			// Update status tracker for HTTP consumers
			d.updateTracker(buttons)

			det := buttons.Detector()
			if hb := det.CheckHeartbeat(t, d.heartbeat); hb != nil {
				d.log.Info().
					Dur("uptime", hb.Uptime).
					Int("presses", hb.Counts.Presses).
					Int("releases", hb.Counts.Releases).
					Msg("heartbeat")
				snap := d.tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hb.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					d.log.Warn().Err(err).Msg("heartbeat publish error")
				}
			}
		}
	}
}

func (d loopDeps) updateTracker(buttons *button.Driver) {
	det := buttons.Detector()
	stable := det.Stable()
	states := make([]status.ButtonState, len(d.bindings))
	for i, b := range d.bindings {
		states[i] = status.ButtonState{Name: b.Name, Channel: b.Channel, State: stable[i]}
	}
	d.tracker.UpdateButtons(states, det.IsBaselined(), det.Counts())
	d.tracker.UpdateLEDs(d.sched.Snapshot())
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d loopDeps) shutdown(buttons *button.Driver, t time.Time, reason string) {
	d.updateTracker(buttons)
	snap := d.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		d.log.Warn().Err(err).Msg("failed to publish shutdown event")
	} else {
		d.log.Info().Msg("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
