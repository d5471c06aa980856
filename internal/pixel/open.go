package pixel

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// Config selects and configures the strip driver.
type Config struct {
	// SPIPort is the periph SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0".
	// Empty selects the first available port. The pixel data line is that
	// port's MOSI pin (BCM 10 for SPI0 on a Raspberry Pi).
	SPIPort string
	// Count is the number of pixels on the strip.
	Count int
	// FreqKHz is the NRZ bit rate; WS2812 parts use 800.
	FreqKHz int
	// Console forces the ANSI console renderer.
	Console bool
}

// Device is an open strip and the resources behind it.
type Device struct {
	*Strip
	port spi.PortCloser
}

// Open initialises periph and opens the strip. When no SPI port can be
// opened it falls back to the console renderer.
func Open(cfg Config) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	if cfg.Count < 1 {
		cfg.Count = 1
	}

	if cfg.Console {
		return &Device{Strip: New(screen.New(cfg.Count), cfg.Count)}, nil
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.SPIPort).Msg("no SPI port; rendering to console")
		return &Device{Strip: New(screen.New(cfg.Count), cfg.Count)}, nil
	}

	d, err := newNRZ(port, cfg)
	if err != nil {
		port.Close()
		return nil, err
	}
	return &Device{Strip: New(d, cfg.Count), port: port}, nil
}

func newNRZ(port spi.Port, cfg Config) (display.Drawer, error) {
	freq := cfg.FreqKHz
	if freq <= 0 {
		freq = 800
	}
	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: cfg.Count,
		Channels:  3,
		Freq:      physic.Frequency(freq) * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("open nrzled: %w", err)
	}
	return d, nil
}

// Close turns the strip off and releases the SPI port.
func (d *Device) Close() error {
	var errs []error
	if err := d.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("halt strip: %w", err))
	}
	if err := d.Release(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Release closes the SPI port and leaves the last shown frame lit.
func (d *Device) Release() error {
	if d.port == nil {
		return nil
	}
	if err := d.port.Close(); err != nil {
		return fmt.Errorf("close spi port: %w", err)
	}
	return nil
}
