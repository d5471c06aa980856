// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/led-blinker/internal/gpio"
	"github.com/sweeney/led-blinker/internal/logic"
)

// MQTT selects the broker and the client identity.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// Params locates the BLINK_INTERVAL parameter file and controls reloading it.
type Params struct {
	Path string `yaml:"path"`
	// WatchDebounce coalesces bursts of file events into one reload. 0 disables the watcher.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
	// DefaultInterval is reported with DEFAULT validity until the file supplies a value.
	DefaultInterval *uint32 `yaml:"default_interval"`
}

// Pixel configures the addressable pixel output.
type Pixel struct {
	SPIPort string `yaml:"spi_port"` // e.g. /dev/spidev0.0
	Count   int    `yaml:"count"`
	FreqKHz int    `yaml:"freq_khz"`
	Console bool   `yaml:"console"`
}

// Switch configures the optional GPIO blink-enable switch.
type Switch struct {
	Enabled   bool          `yaml:"enabled"`
	Chip      string        `yaml:"chip"`
	Line      int           `yaml:"line"`
	ActiveLow bool          `yaml:"active_low"`
	Debounce  time.Duration `yaml:"debounce"`
}

// Config is the complete daemon configuration.
type Config struct {
	Tick      time.Duration `yaml:"tick"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	HTTPAddr  string        `yaml:"http_addr"`
	OnColor   string        `yaml:"on_color"` // hex, e.g. "#960000"

	MQTT   MQTT   `yaml:"mqtt"`
	Params Params `yaml:"params"`
	Pixel  Pixel  `yaml:"pixel"`
	Switch Switch `yaml:"switch"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Tick:      100 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		HTTPAddr:  ":8080",
		OnColor:   "#960000",
		MQTT: MQTT{
			Broker:   "tcp://localhost:1883",
			ClientID: "led-blinker",
		},
		Params: Params{
			Path:          "params.toml",
			WatchDebounce: 250 * time.Millisecond,
		},
		Pixel: Pixel{
			Count:   1,
			FreqKHz: 800,
		},
		Switch: Switch{
			Chip:     gpio.DefaultChip,
			Line:     gpio.DefaultLine,
			Debounce: 50 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default.
func Load(path string) (*Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the values the daemon cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick must be positive, got %v", c.Tick))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}
	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}
	if c.Params.Path == "" {
		errs = append(errs, errors.New("params.path is required"))
	}
	if c.Pixel.Count < 1 {
		errs = append(errs, fmt.Errorf("pixel.count must be at least 1, got %d", c.Pixel.Count))
	}
	if _, err := c.OnRGB(); err != nil {
		errs = append(errs, err)
	}
	if c.Switch.Enabled && c.Switch.Line < 0 {
		errs = append(errs, fmt.Errorf("switch.line must not be negative, got %d", c.Switch.Line))
	}
	return errors.Join(errs...)
}

// OnRGB parses OnColor. An empty value selects logic.DefaultOnColor.
func (c *Config) OnRGB() (logic.RGB, error) {
	if c.OnColor == "" {
		return logic.DefaultOnColor, nil
	}
	col, err := colorful.Hex(c.OnColor)
	if err != nil {
		return logic.RGB{}, fmt.Errorf("on_color %q: %w", c.OnColor, err)
	}
	r, g, b := col.RGB255()
	return logic.RGB{R: r, G: g, B: b}, nil
}
