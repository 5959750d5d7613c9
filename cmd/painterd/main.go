// Command painterd serves the matrix painter HTTP API and drives the
// panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	painter "github.com/epi13/rgbmatrix-painter"
	"github.com/epi13/rgbmatrix-painter/config"
	"github.com/epi13/rgbmatrix-painter/server"
)

const shutdownTimeout = 5 * time.Second

// cliFlags holds command-line overrides for the configuration file.
type cliFlags struct {
	configPath  string
	listen      string
	width       int
	height      int
	gamma       float64
	brightness  int
	dither      bool
	background  string
	framebuffer string
	backlight   string
	maxUpload   int64
	logLevel    string
	logFormat   string
}

func parseFlags() *cliFlags {
	f := &cliFlags{}
	def := config.Default()

	flag.StringVar(&f.configPath, "config", "", "YAML configuration file")

	flag.StringVar(&f.listen, "listen", def.Server.Listen, "HTTP listen address")
	flag.Int64Var(&f.maxUpload, "max-upload", def.Server.MaxUploadBytes, "Maximum request body size in bytes")

	flag.IntVar(&f.width, "width", def.Panel.Width, "Panel width in pixels")
	flag.IntVar(&f.height, "height", def.Panel.Height, "Panel height in pixels")

	flag.Float64Var(&f.gamma, "gamma", def.Display.Gamma, "Initial gamma")
	flag.IntVar(&f.brightness, "brightness", def.Display.Brightness, "Initial brightness, 1..100")
	flag.BoolVar(&f.dither, "dither", def.Display.Dither, "Ordered dithering after gamma")
	flag.StringVar(&f.background, "background", def.Display.Background, "Letterbox colour as #rrggbb")

	flag.StringVar(&f.framebuffer, "fb", def.Hardware.Framebuffer, "Framebuffer device, e.g. /dev/fb0 (empty: no hardware)")
	flag.StringVar(&f.backlight, "backlight", def.Hardware.Backlight, "Backlight sysfs brightness file")

	flag.StringVar(&f.logLevel, "log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	flag.StringVar(&f.logFormat, "log-format", def.Log.Format, "Log format (text, json)")

	flag.Parse()
	return f
}

// loadConfig reads the config file, if any, then applies only the flags
// that were set explicitly.
func loadConfig(f *cliFlags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "listen":
			cfg.Server.Listen = f.listen
		case "max-upload":
			cfg.Server.MaxUploadBytes = f.maxUpload
		case "width":
			cfg.Panel.Width = f.width
		case "height":
			cfg.Panel.Height = f.height
		case "gamma":
			cfg.Display.Gamma = f.gamma
		case "brightness":
			cfg.Display.Brightness = f.brightness
		case "dither":
			cfg.Display.Dither = f.dither
		case "background":
			cfg.Display.Background = f.background
		case "fb":
			cfg.Hardware.Framebuffer = f.framebuffer
		case "backlight":
			cfg.Hardware.Backlight = f.backlight
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-format":
			cfg.Log.Format = f.logFormat
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cfg config.Config) error {
	log := logrus.NewEntry(logrus.StandardLogger())

	panel, err := painter.New(cfg, painter.Options{Log: log})
	if err != nil {
		return err
	}
	defer panel.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           server.New(panel, server.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes, Log: log}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	width, height := panel.Size()
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"function": "run",
			"listen":   cfg.Server.Listen,
			"width":    width,
			"height":   height,
		}).Info("Serving")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.WithField("function", "run").Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	f := parseFlags()

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "painterd: %v\n", err)
		os.Exit(2)
	}
	if err := cfg.Log.Apply(logrus.StandardLogger()); err != nil {
		fmt.Fprintf(os.Stderr, "painterd: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Error("painterd failed")
		os.Exit(1)
	}
}
