//go:build linux

// Command gatekeeper-pi runs the gatekeeper firmware on a Raspberry Pi
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/librescoot/gatekeeper/boot"
	"github.com/librescoot/gatekeeper/config"
	"github.com/librescoot/gatekeeper/coordinator"
	"github.com/librescoot/gatekeeper/hal/pihal"
	"github.com/librescoot/gatekeeper/hal/simhal"
	"github.com/librescoot/gatekeeper/ledfeedback"
	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/settings"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/gatekeeper/config.json)")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(*logLevel))); err != nil {
		fmt.Fprintf(os.Stderr, "Error: log level: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error("exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	board, err := pihal.Open(pihal.Config{
		ButtonAPin: cfg.Pi.ButtonAPin,
		ButtonBPin: cfg.Pi.ButtonBPin,
		OutputPin:  cfg.Pi.OutputPin,
		I2CBus:     cfg.Pi.I2CBus,
		ADCAddress: cfg.Pi.ADCAddress,
		ADCChannel: cfg.Pi.ADCChannel,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer board.Close()

	path := cfg.Pi.EEPROMPath
	if path == "" {
		if path, err = config.DefaultEEPROMPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("eeprom dir: %w", err)
	}
	eeprom, err := simhal.OpenFileEEPROM(path, simhal.DefaultEEPROMSize)
	if err != nil {
		return err
	}
	defer eeprom.Close()

	store := settings.NewEEPROMStore(eeprom)
	s, result := boot.Run(board, store, boot.WithLogger(logger))
	logger.Info("boot", "result", result, "mode", modes.Mode(s.Mode))

	coord := coordinator.New(&s, board,
		coordinator.WithStore(store),
		coordinator.WithLogger(logger),
		coordinator.WithCVThresholds(cfg.CV.HighThreshold, cfg.CV.LowThreshold),
	)
	if m := modes.Mode(s.Mode); m < modes.Count {
		coord.SetMode(m)
	}
	coord.Start()

	leds := ledfeedback.New(pihal.NewLEDs(cfg.Pi.LEDPins))
	leds.SetMode(coord.Mode())

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			board.SetOutput(false)
			logger.Info("stopped")
			return nil
		case <-ticker.C:
			coord.Update()
			leds.Update(coord.LEDFeedback(), board.Millis())
			board.SetOutput(coord.Output())
		}
	}
}
