// Command led-blinker blinks a single RGB pixel and accepts colour and blink
// commands over MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/led-blinker/internal/config"
	"github.com/sweeney/led-blinker/internal/events"
	"github.com/sweeney/led-blinker/internal/gpio"
	"github.com/sweeney/led-blinker/internal/logic"
	"github.com/sweeney/led-blinker/internal/mqtt"
	"github.com/sweeney/led-blinker/internal/param"
	"github.com/sweeney/led-blinker/internal/pixel"
	"github.com/sweeney/led-blinker/internal/status"
	"github.com/sweeney/led-blinker/internal/telemetry"
	"github.com/sweeney/led-blinker/internal/web"
)

func main() {
	def := config.Default()
	configPath := flag.String("config", "", "YAML config file (flags given explicitly override it)")
	tick := flag.Duration("tick", def.Tick, "Blink tick period")
	heartbeat := flag.Duration("heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	broker := flag.String("broker", def.MQTT.Broker, "MQTT broker address")
	clientID := flag.String("client-id", def.MQTT.ClientID, "MQTT client id")
	httpAddr := flag.String("http", def.HTTPAddr, "HTTP status address (empty to disable)")
	params := flag.String("params", def.Params.Path, "Parameter file (TOML)")
	defaultInterval := flag.Int64("default-interval", -1, "Blink interval used until the parameter file sets one (-1 for none)")
	onColor := flag.String("on-color", def.OnColor, "Hex colour shown during the on-phase of a blink")
	spiPort := flag.String("spi", def.Pixel.SPIPort, "SPI port for the pixel (empty for the first available)")
	console := flag.Bool("console", def.Pixel.Console, "Render the pixel on the console instead of SPI")
	switchLine := flag.Int("switch-line", -1, "GPIO line of the blink-enable switch (-1 to disable)")
	showColor := flag.String("show-color", "", "Show one palette colour and exit")
	debug := flag.Bool("debug", false, "Log at debug level")

	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.Tick = *tick
		case "heartbeat":
			cfg.Heartbeat = *heartbeat
		case "broker":
			cfg.MQTT.Broker = *broker
		case "client-id":
			cfg.MQTT.ClientID = *clientID
		case "http":
			cfg.HTTPAddr = *httpAddr
		case "params":
			cfg.Params.Path = *params
		case "default-interval":
			v, err := intervalFlag(*defaultInterval)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid -default-interval")
			}
			cfg.Params.DefaultInterval = v
		case "on-color":
			cfg.OnColor = *onColor
		case "spi":
			cfg.Pixel.SPIPort = *spiPort
		case "console":
			cfg.Pixel.Console = *console
		case "switch-line":
			cfg.Switch.Enabled = *switchLine >= 0
			cfg.Switch.Line = *switchLine
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if err := run(cfg, *showColor); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// intervalFlag converts the -default-interval value. Negative means none.
func intervalFlag(v int64) (*uint32, error) {
	if v < 0 {
		return nil, nil
	}
	if v > math.MaxUint32 {
		return nil, fmt.Errorf("%d exceeds %d", v, uint32(math.MaxUint32))
	}
	u := uint32(v)
	return &u, nil
}

func run(cfg *config.Config, showColorName string) error {
	dev, err := pixel.Open(pixel.Config{
		SPIPort: cfg.Pixel.SPIPort,
		Count:   cfg.Pixel.Count,
		FreqKHz: cfg.Pixel.FreqKHz,
		Console: cfg.Pixel.Console,
	})
	if err != nil {
		return fmt.Errorf("open pixel: %w", err)
	}

	// One-shot mode leaves the colour lit.
	if showColorName != "" {
		defer dev.Release()
		return showColor(dev.Strip, showColorName, os.Stdout)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn().Err(err).Msg("pixel close")
		}
	}()

	store := param.New(cfg.Params.Path, cfg.Params.DefaultInterval)
	if err := store.Load(); err != nil {
		log.Warn().Err(err).Str("path", store.Path()).Msg("parameter file unusable")
	}

	client, err := mqtt.NewRealClient(mqtt.ClientOptions{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
	})
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	onRGB, err := cfg.OnRGB()
	if err != nil {
		return err
	}

	now := time.Now
	responder := telemetry.NewResponder(client, now)
	evs := events.NewSink(log.Logger, client, now)
	blinker := logic.NewBlinker(store, dev, telemetry.NewSink(client, now), evs, onRGB)
	store.OnUpdate(blinker.ParameterUpdated)
	colors := logic.NewColorHandler(dev, evs)
	component := logic.NewComponent(blinker, colors, responder, store)

	switchLine := -1
	var switchReader gpio.Reader
	if cfg.Switch.Enabled {
		r, err := gpio.NewRealReader(cfg.Switch.Chip, cfg.Switch.Line, cfg.Switch.ActiveLow)
		if err != nil {
			return fmt.Errorf("init switch: %w", err)
		}
		defer r.Close()
		switchReader = r
		switchLine = cfg.Switch.Line
	}

	tracker := status.NewTracker(now(), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		ParamsPath:  store.Path(),
		Pixel:       dev.String(),
		SwitchLine:  switchLine,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads <-chan struct{}
	if cfg.Params.WatchDebounce > 0 {
		reloads, err = param.Watch(ctx, store.Path(), cfg.Params.WatchDebounce)
		if err != nil {
			log.Warn().Err(err).Str("path", store.Path()).Msg("parameter file watch disabled")
		}
	}

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(client.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startupEvent); errors.Is(err, mqtt.ErrBuffered) {
		log.Info().Msg("startup event buffered until the broker connects")
	} else if err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	log.Info().
		Dur("tick", cfg.Tick).
		Dur("heartbeat", cfg.Heartbeat).
		Str("broker", cfg.MQTT.Broker).
		Str("pixel", dev.String()).
		Str("params", store.Path()).
		Msg("started")

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		component:  component,
		blinker:    blinker,
		store:      store,
		strip:      dev.Strip,
		switchIn:   switchReader,
		debouncer:  logic.NewDebouncer(cfg.Switch.Debounce),
		heartbeat:  cfg.Heartbeat,
		publisher:  client,
		mqttStatus: client,
		responder:  responder,
		tracker:    tracker,
		now:        now,
	}
	return l.run(ticker.C, client.Commands(), reloads, sigCh)
}

// showColor renders one palette colour and reports it on w.
func showColor(p logic.Pixel, name string, w io.Writer) error {
	c := logic.Color(strings.ToUpper(name))
	rgb, ok := logic.Lookup(c)
	if !ok {
		return fmt.Errorf("unknown colour %q", name)
	}
	p.SetPixelColor(0, rgb)
	p.Show()
	fmt.Fprintf(w, "%s: %d,%d,%d\n", c, rgb.R, rgb.G, rgb.B)
	return nil
}

// colorSource reports the colour currently shown at a pixel index.
type colorSource interface {
	Color(index int) logic.RGB
}

// loop owns every core object. Only run's goroutine touches them.
type loop struct {
	component  *logic.Component
	blinker    *logic.Blinker
	store      *param.Store
	strip      colorSource
	switchIn   gpio.Reader // nil when no switch is configured
	debouncer  *logic.Debouncer
	heartbeat  time.Duration
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	responder  logic.Responder
	tracker    *status.Tracker
	now        func() time.Time
}

func (l *loop) run(tick <-chan time.Time, cmds <-chan mqtt.Inbound, reloads <-chan struct{}, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(l.now())
	l.refresh()

	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.refresh()
			snap := l.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  l.now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			err := l.publisher.PublishSystem(event)
			switch {
			case err == nil:
				log.Info().Msg("published shutdown event")
			case errors.Is(err, mqtt.ErrBuffered):
				// The client discards its buffer on Close.
				log.Warn().Msg("broker offline, shutdown event not delivered")
			default:
				log.Warn().Err(err).Msg("failed to publish shutdown event")
			}
			return nil

		case in, ok := <-cmds:
			if !ok {
				cmds = nil
				continue
			}
			l.handle(in)
			l.refresh()

		case _, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			changed, err := l.store.Reload()
			if err != nil {
				log.Warn().Err(err).Msg("parameter reload")
			} else if changed {
				log.Info().Msg("parameter file reloaded")
			}
			l.refresh()

		case <-tick:
			t := l.now()
			l.pollSwitch(t)
			l.blinker.Tick()

			if hbData := hb.Check(t, l.heartbeat, l.blinker.Snapshot().Transitions); hbData != nil {
				log.Info().Dur("uptime", hbData.Uptime).Uint32("transitions", hbData.Transitions).Msg("heartbeat")
				l.refresh()
				snap := l.tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil && !errors.Is(err, mqtt.ErrBuffered) {
					log.Warn().Err(err).Msg("heartbeat publish error")
				}
			}
			l.refresh()
		}
	}
}

func (l *loop) handle(in mqtt.Inbound) {
	if in.Err != nil {
		log.Warn().Err(in.Err).Str("opcode", string(in.Cmd.Opcode)).Uint32("seq", in.Cmd.Seq).Msg("undecodable command")
		l.responder.Respond(in.Cmd.Opcode, in.Cmd.Seq, logic.RespFormatError)
		return
	}
	resp := l.component.Dispatch(in.Cmd)
	log.Debug().Str("opcode", string(in.Cmd.Opcode)).Str("arg", in.Cmd.Arg).Str("response", string(resp)).Msg("command")
}

// pollSwitch reads the blink-enable switch and applies debounced changes.
func (l *loop) pollSwitch(t time.Time) {
	if l.switchIn == nil {
		return
	}
	on, err := l.switchIn.Read()
	if err != nil {
		log.Warn().Err(err).Msg("switch read error")
		return
	}
	if s, changed := l.debouncer.Process(on, t); changed {
		log.Info().Str("switch", string(s)).Msg("blink switch changed")
		l.blinker.SetBlinking(s)
	}
	if l.debouncer.IsBaselined() {
		l.tracker.SetSwitch(l.debouncer.Stable())
	}
}

// refresh copies core state into the tracker for HTTP and system events.
func (l *loop) refresh() {
	v, valid := l.store.BlinkInterval()
	l.tracker.Update(l.blinker.Snapshot(), l.strip.Color(0), v, valid)
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}
