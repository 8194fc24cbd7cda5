// Package config contains the runtime settings shared by the front-ends.
package config

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// FrameRate is the rate at which front-ends present frames and the timers
// are expected to be serviced.
const FrameRate = 60

type Config struct {
	CyclesPerFrame int
	Scale          int
	Foreground     color.RGBA
	Background     color.RGBA
	ToneHz         float64
	Mute           bool
	Debug          bool
	Quiet          bool
}

func Default() Config {
	return Config{
		CyclesPerFrame: 10,
		Scale:          10,
		Foreground:     color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
		Background:     color.RGBA{A: 0xFF},
		ToneHz:         440,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.CyclesPerFrame <= 0 {
		errs = append(errs, fmt.Errorf("cycles per frame must be positive, got %d", c.CyclesPerFrame))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale must be positive, got %d", c.Scale))
	}
	if c.ToneHz <= 0 {
		errs = append(errs, fmt.Errorf("tone frequency must be positive, got %g", c.ToneHz))
	}
	return errors.Join(errs...)
}

// RegisterFlags binds the configuration fields to fs. Current field values
// become the flag defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.CyclesPerFrame, "cycles", c.CyclesPerFrame, "instructions executed per 1/60 s frame")
	fs.IntVar(&c.Scale, "scale", c.Scale, "window pixels per display pixel")
	fs.Var((*colorValue)(&c.Foreground), "fg", "foreground color as #RRGGBB")
	fs.Var((*colorValue)(&c.Background), "bg", "background color as #RRGGBB")
	fs.Float64Var(&c.ToneHz, "tone", c.ToneHz, "beep frequency in Hz")
	fs.BoolVar(&c.Mute, "mute", c.Mute, "disable sound")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging with an instruction trace")
	fs.BoolVar(&c.Quiet, "q", c.Quiet, "only log errors")
}

// CreateLogger returns a logger for the requested verbosity.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// ParseColor parses #RRGGBB or RRGGBB into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}

type colorValue color.RGBA

func (c *colorValue) String() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c *colorValue) Set(s string) error {
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = colorValue(parsed)
	return nil
}
