// Package config loads compositor settings from TOML.
//
// Example file:
//
//	log_level = "debug"
//
//	[compositor]
//	compose_on_start = true
//	heartbeat = "1s"
//	snooze_delay = "100ms"
//	max_buffer_queue_depth = 3
//	log_report = true
//
//	[render]
//	background = "#1e1e2e"
//
//	[[output]]
//	area = { x = 0, y = 0, width = 1920, height = 1080 }
//	bypass = true
//	format = "rgba8unorm"
//
//	[[output]]
//	area = { x = 1920, y = 0, width = 1080, height = 1920 }
//	orientation = "left"
package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/graphics"
	"github.com/gogpu/compositor/headless"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/gputypes"
	"github.com/mazznoer/csscolorparser"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config is the top-level configuration.
type Config struct {
	LogLevel   slog.Level `toml:"log_level"`
	Compositor Compositor `toml:"compositor"`
	Render     Render     `toml:"render"`
	Outputs    []Output   `toml:"output"`
}

// Render holds software renderer settings.
type Render struct {
	// Background is the clear color, in any CSS color syntax.
	Background Color `toml:"background"`
}

// Compositor holds MultiThreadedCompositor settings.
type Compositor struct {
	ComposeOnStart      bool     `toml:"compose_on_start"`
	Heartbeat           Duration `toml:"heartbeat"`
	SnoozeDelay         Duration `toml:"snooze_delay"`
	MaxBufferQueueDepth int      `toml:"max_buffer_queue_depth"`
	LogReport           bool     `toml:"log_report"`
}

// Output describes one headless output.
type Output struct {
	Area        Rect                 `toml:"area"`
	Orientation graphics.Orientation `toml:"orientation"`
	Format      Format               `toml:"format"`
	Bypass      bool                 `toml:"bypass"`
}

// Rect is a rectangle given by origin and size.
type Rect struct {
	X      int `toml:"x"`
	Y      int `toml:"y"`
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Duration is a time.Duration written as text, e.g. "250ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("config: duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Color is a color written in CSS syntax, e.g. "#202030", "navy" or "rgb(32, 32, 48)".
type Color color.RGBA

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := csscolorparser.Parse(string(text))
	if err != nil {
		return fmt.Errorf("config: color: %w", err)
	}
	r, g, b, a := v.RGBA255()
	*c = Color{r, g, b, a}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return fmt.Appendf(nil, "#%02x%02x%02x%02x", c.R, c.G, c.B, c.A), nil
}

// Format is a scan-out pixel format written by name.
type Format gputypes.TextureFormat

var formatNames = map[string]gputypes.TextureFormat{
	"":           gputypes.TextureFormatUndefined,
	"any":        gputypes.TextureFormatUndefined,
	"rgba8unorm": gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm": gputypes.TextureFormatBGRA8Unorm,
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	v, ok := formatNames[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("config: unknown format %q", text)
	}
	*f = Format(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	switch gputypes.TextureFormat(f) {
	case gputypes.TextureFormatRGBA8Unorm:
		return []byte("rgba8unorm"), nil
	case gputypes.TextureFormatBGRA8Unorm:
		return []byte("bgra8unorm"), nil
	default:
		return []byte("any"), nil
	}
}

// Default returns the configuration used when no file is given: the
// compositor defaults and a single 1280x720 output.
func Default() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Compositor: Compositor{
			ComposeOnStart:      true,
			Heartbeat:           Duration(compositor.DefaultHeartbeat),
			SnoozeDelay:         Duration(compositor.DefaultSnoozeDelay),
			MaxBufferQueueDepth: compositor.DefaultMaxBufferQueueDepth,
		},
		Render:  Render{Background: Color(render.DefaultBackground)},
		Outputs: []Output{{Area: Rect{Width: 1280, Height: 720}, Bypass: true}},
	}
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration. Settings missing from r keep their
// Default values; an [[output]] list replaces the default output.
// Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	outputs := cfg.Outputs
	cfg.Outputs = nil

	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: %s", strict.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(cfg.Outputs) == 0 {
		cfg.Outputs = outputs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).SetIndentTables(true).Encode(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Compositor.Heartbeat <= 0 {
		return fmt.Errorf("%w: heartbeat must be positive", ErrInvalid)
	}
	if c.Compositor.SnoozeDelay < 0 {
		return fmt.Errorf("%w: snooze_delay must not be negative", ErrInvalid)
	}
	if c.Compositor.MaxBufferQueueDepth < 1 {
		return fmt.Errorf("%w: max_buffer_queue_depth must be at least 1", ErrInvalid)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalid)
	}
	for i, o := range c.Outputs {
		if o.Area.Width <= 0 || o.Area.Height <= 0 {
			return fmt.Errorf("%w: output %d has empty area", ErrInvalid, i)
		}
	}
	return nil
}

// Options converts the compositor settings into compositor options.
func (c *Config) Options() []compositor.Option {
	opts := []compositor.Option{
		compositor.WithComposeOnStart(c.Compositor.ComposeOnStart),
		compositor.WithHeartbeat(time.Duration(c.Compositor.Heartbeat)),
		compositor.WithSnoozeDelay(time.Duration(c.Compositor.SnoozeDelay)),
		compositor.WithMaxBufferQueueDepth(c.Compositor.MaxBufferQueueDepth),
	}
	if c.Compositor.LogReport {
		opts = append(opts, compositor.WithReport(compositor.NewLogReport(nil)))
	}
	return opts
}

// RendererFactory returns a software renderer factory clearing to the
// configured background.
func (c *Config) RendererFactory() render.SoftwareRendererFactory {
	return render.SoftwareRendererFactory{Background: color.RGBA(c.Render.Background)}
}

// HeadlessOutputs converts the output list for headless.NewDisplay.
func (c *Config) HeadlessOutputs() []headless.OutputConfig {
	out := make([]headless.OutputConfig, len(c.Outputs))
	for i, o := range c.Outputs {
		out[i] = headless.OutputConfig{
			Area:        o.Area.Rectangle(),
			Orientation: o.Orientation,
			Format:      gputypes.TextureFormat(o.Format),
			Bypass:      o.Bypass,
		}
	}
	return out
}
