// Command ledblink drives blinking LEDs from a shared hardware-style counter,
// mirrors buttons onto idle LEDs and exposes control over a shell, HTTP and MQTT.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweeney/ledblink/internal/blink"
	"github.com/sweeney/ledblink/internal/button"
	"github.com/sweeney/ledblink/internal/config"
	"github.com/sweeney/ledblink/internal/gpio"
	"github.com/sweeney/ledblink/internal/lcd"
	"github.com/sweeney/ledblink/internal/mirror"
	"github.com/sweeney/ledblink/internal/mqtt"
	"github.com/sweeney/ledblink/internal/random"
	"github.com/sweeney/ledblink/internal/status"
	"github.com/sweeney/ledblink/internal/timer"
	"github.com/sweeney/ledblink/internal/web"
)

// flags holds command-line overrides applied on top of the config file.
type flags struct {
	configPath string
	sim        bool
	httpAddr   string
	broker     string
	logLevel   string
	noShell    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "ledblink",
		Short:        "Blink LEDs from a shared counter",
		Long:         "ledblink schedules LED blinking on compare matches of a shared 16-bit counter and serves a control shell, HTTP status and MQTT events.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			// The shell needs a terminal; under a service manager it is skipped.
			interactive := !f.noShell && isatty.IsTerminal(os.Stdin.Fd())
			if err := run(cfg, interactive, log); err != nil {
				log.Error().Err(err).Msg("fatal")
				return err
			}
			return nil
		},
	}

	bindFlags(cmd.Flags(), &f)
	return cmd
}

func bindFlags(fl *pflag.FlagSet, f *flags) {
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file (defaults are used when empty)")
	fl.BoolVar(&f.sim, "sim", false, "drive simulated GPIO instead of the character device")
	fl.StringVar(&f.httpAddr, "http", "", "HTTP status address (empty disables)")
	fl.StringVar(&f.broker, "broker", "", "MQTT broker address (empty disables)")
	fl.StringVar(&f.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	fl.BoolVar(&f.noShell, "no-shell", false, "run without the interactive shell")
}

// loadConfig reads the config file, applies flags the user set and
// validates the result.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("sim") {
		cfg.GPIO.Sim = f.sim
	}
	if fl.Changed("http") {
		cfg.HTTP.Addr = f.httpAddr
	}
	if fl.Changed("broker") {
		cfg.MQTT.Broker = f.broker
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config, interactive bool, log zerolog.Logger) error {
	start := time.Now()

	// GPIO
	outputs, inputs, err := openGPIO(cfg)
	if err != nil {
		return err
	}
	defer outputs.Close()
	if inputs != nil {
		defer inputs.Close()
	}

	// Counter
	regs := 0
	blinkOutputs := make([]blink.Output, len(cfg.Channels))
	for i, c := range cfg.Channels {
		blinkOutputs[i] = blink.Output{Name: c.Name, Compare: c.Compare, Line: c.Line}
		if c.Compare+1 > regs {
			regs = c.Compare + 1
		}
	}
	counter := timer.NewSim(cfg.Timer.FrequencyHz, regs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go timer.NewDriver(counter, cfg.Resolution(), log.With().Str("component", "timer").Logger()).Run(ctx)

	// Scheduler
	configured := make(chan blink.Result, 64)
	sched, err := blink.New(counter, outputs, blinkOutputs, blink.Options{
		Logger: log.With().Str("component", "blink").Logger(),
		OnConfigure: func(r blink.Result) {
			select {
			case configured <- r:
			default:
				log.Warn().Int("channel", r.Channel).Msg("configure event dropped")
			}
		},
	})
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer sched.DisableAll()

	// Random source
	host, _ := os.Hostname()
	rnd, err := random.Open(cfg.Random.SeedFile, random.DeviceID(host), log)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Random.SeedFile).Msg("seed file unusable, seeding from device id")
		rnd = random.New(random.DeviceID(host))
	}
	display := lcd.New()

	// MQTT
	var publisher mqtt.Publisher = nopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Logger:      log.With().Str("component", "mqtt").Logger(),
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	// Status tracker (before STARTUP so snapshot is available)
	ws := resolveWSBroker(cfg.MQTT.WSBroker, cfg.MQTT.Broker, log)
	tracker := status.NewTracker(start, status.Config{
		FrequencyHz:    cfg.Timer.FrequencyHz,
		PollMs:         cfg.Poll().Milliseconds(),
		DebounceMs:     cfg.Debounce().Milliseconds(),
		HeartbeatMs:    cfg.Heartbeat().Milliseconds(),
		Broker:         cfg.MQTT.Broker,
		TopicPrefix:    cfg.MQTT.TopicPrefix,
		HTTPAddr:       cfg.HTTP.Addr,
		WSBroker:       ws,
		MirrorEndpoint: cfg.Mirror.Endpoint,
		Sim:            cfg.GPIO.Sim,
	})
	tracker.SetSeed(rnd.Seed())
	tracker.UpdateLEDs(sched.Snapshot())
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}

	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	// HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, sched, log.With().Str("component", "web").Logger())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	// Modbus mirror
	var mirrorTick <-chan time.Time
	var mir *mirror.Mirror
	if cfg.Mirror.Endpoint != "" {
		mir = mirror.New(mirror.Config{
			UnitID:      cfg.Mirror.UnitID,
			CoilAddress: cfg.Mirror.CoilAddress,
			RegAddress:  cfg.Mirror.RegAddress,
		}, func() (mirror.Writer, error) {
			return mirror.NewEndpointClient(mirror.ClientConfig{
				Endpoint: cfg.Mirror.Endpoint,
				Timeout:  cfg.MirrorTimeout(),
			})
		}, log.With().Str("component", "mirror").Logger())
		defer mir.Close()
		t := time.NewTicker(cfg.MirrorInterval())
		defer t.Stop()
		mirrorTick = t.C
	}

	// Shell
	exit := make(chan struct{})
	if interactive {
		sh, rl, err := newShell(shellDeps{
			leds:    sched,
			display: display,
			random:  rnd,
			clock:   counter,
			start:   start,
			reset: func() {
				sched.DisableAll()
				display.Clear()
				if err := publisher.PublishSystem(mqtt.SystemEvent{Timestamp: time.Now(), Event: "RESET"}); err != nil {
					log.Warn().Err(err).Msg("failed to publish reset event")
				}
			},
		})
		if err != nil {
			return fmt.Errorf("init shell: %w", err)
		}
		defer rl.Close()
		go func() {
			runShell(sh, rl, rl.Stdout(), log)
			close(exit)
		}()
	}

	log.Info().
		Int("channels", len(cfg.Channels)).
		Int("buttons", len(cfg.Buttons)).
		Uint32("freq_hz", cfg.Timer.FrequencyHz).
		Uint32("max_interval_ms", sched.MaxIntervalMs()).
		Str("broker", cfg.MQTT.Broker).
		Dur("heartbeat", cfg.Heartbeat()).
		Msg("started")

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		inputs:     inputs,
		bindings:   bindings(cfg.Buttons),
		debounce:   cfg.Debounce(),
		heartbeat:  cfg.Heartbeat(),
		sched:      sched,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		log:        log,
	}
	if mir != nil {
		deps.mirror = mir
	}
	return runLoop(deps, time.Now, ticker.C, mirrorTick, configured, sigCh, exit)
}

// openGPIO opens the LED and button lines. Buttons are optional; inputs is
// nil when none are configured.
func openGPIO(cfg *config.Config) (gpio.Outputs, gpio.Inputs, error) {
	ledLines := make([]int, len(cfg.Channels))
	for i, c := range cfg.Channels {
		ledLines[i] = c.Line
	}
	btnLines := make([]int, len(cfg.Buttons))
	for i, b := range cfg.Buttons {
		btnLines[i] = b.Line
	}

	if cfg.GPIO.Sim {
		var inputs gpio.Inputs
		if len(btnLines) > 0 {
			inputs = gpio.NewFakeInputs([][]bool{make([]bool, len(btnLines))})
		}
		return gpio.NewFakeOutputs(), inputs, nil
	}

	chip := cfg.GPIO.Chip
	if chip == "" {
		chip = gpio.DefaultChip
	}
	outputs, err := gpio.NewRealOutputs(chip, ledLines)
	if err != nil {
		return nil, nil, fmt.Errorf("init gpio outputs: %w", err)
	}
	if len(btnLines) == 0 {
		return outputs, nil, nil
	}
	inputs, err := gpio.NewRealInputs(chip, btnLines)
	if err != nil {
		outputs.Close()
		return nil, nil, fmt.Errorf("init gpio inputs: %w", err)
	}
	return outputs, inputs, nil
}

func bindings(buttons []config.ButtonConfig) []button.Binding {
	out := make([]button.Binding, len(buttons))
	for i, b := range buttons {
		out[i] = button.Binding{Name: b.Name, Channel: button.NoChannel}
		if b.Channel != nil {
			out[i].Channel = *b.Channel
		}
	}
	return out
}

// nopPublisher stands in when no broker is configured.
type nopPublisher struct{}

func (nopPublisher) PublishLED(mqtt.LEDEvent) error       { return nil }
func (nopPublisher) PublishButton(mqtt.ButtonEvent) error { return nil }
func (nopPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (nopPublisher) Close() error                         { return nil }

// resolveWSBroker converts the ws_broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" or
// empty disables.
func resolveWSBroker(ws, broker string, log zerolog.Logger) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Warn().Err(err).Str("broker", broker).Msg("ws-broker: cannot parse broker")
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
