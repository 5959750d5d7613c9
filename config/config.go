// Package config holds the daemon configuration: panel geometry, display
// defaults, the hardware sink, the HTTP listener and logging.
package config

import (
	"fmt"
	"image/color"
	"os"

	clr "github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/epi13/rgbmatrix-painter/display"
	"github.com/epi13/rgbmatrix-painter/screen"
)

// Config is the complete daemon configuration
type Config struct {
	Panel    Panel    `yaml:"panel"`
	Display  Display  `yaml:"display"`
	Hardware Hardware `yaml:"hardware"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
}

// Panel is the LED matrix size in pixels. Fixed for the process lifetime.
type Panel struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Display holds the startup display settings
type Display struct {
	Gamma      float64 `yaml:"gamma"`
	Brightness int     `yaml:"brightness"` // 1..100
	Dither     bool    `yaml:"dither"`
	Background string  `yaml:"background"` // #rrggbb letterbox fill

	CartPalette string `yaml:"cart_palette"` // pico8, secret
}

// Hardware selects the output sink. An empty Framebuffer means no
// hardware.
type Hardware struct {
	Framebuffer string `yaml:"framebuffer"` // e.g. /dev/fb0
	Backlight   string `yaml:"backlight"`   // sysfs brightness file
}

type Server struct {
	Listen         string `yaml:"listen"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Log struct {
	Level  string `yaml:"level"`  // panic..trace
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Panel: Panel{Width: 64, Height: 64},
		Display: Display{
			Gamma:      2.2,
			Brightness: 60,
			Background: "#000000",

			CartPalette: "pico8",
		},
		Server: Server{
			Listen:         ":5000",
			MaxUploadBytes: 16 << 20,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects values that have no sensible clamp. Gamma and
// brightness are clamped later, not rejected here.
func (c Config) Validate() error {
	if c.Panel.Width <= 0 || c.Panel.Height <= 0 {
		return fmt.Errorf("panel size must be positive, got %dx%d", c.Panel.Width, c.Panel.Height)
	}
	if _, err := c.Display.BackgroundColor(); err != nil {
		return err
	}
	if _, err := c.Display.CartColors(); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Settings returns the initial display settings, clamped.
func (d Display) Settings() display.Settings {
	return display.Settings{Gamma: d.Gamma, Brightness: d.Brightness}.Clamped()
}

// BackgroundColor parses Background. An empty value is black.
func (d Display) BackgroundColor() (color.Color, error) {
	if d.Background == "" {
		return color.Black, nil
	}
	c, err := clr.Hex(d.Background)
	if err != nil {
		return nil, fmt.Errorf("display.background %q: %w", d.Background, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// CartColors returns the palette cart sprite sheets are drawn with. An
// empty value is the standard PICO-8 palette.
func (d Display) CartColors() (color.Palette, error) {
	switch d.CartPalette {
	case "", "pico8":
		return screen.DefaultPalettes.PICO8, nil
	case "secret":
		return screen.DefaultPalettes.PICO8Secret, nil
	}
	return nil, fmt.Errorf("display.cart_palette must be pico8 or secret, got %q", d.CartPalette)
}

// Apply configures logger's level and formatter.
func (l Log) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	switch l.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
