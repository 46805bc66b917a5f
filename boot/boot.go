// Package boot runs the power-on sequence: the factory reset gesture,
// settings load and validation, and the fallback to defaults.
package boot

import (
	"log/slog"

	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/settings"
)

// Result reports where the boot settings came from
type Result uint8

const (
	ResultLoaded Result = iota
	ResultDefaults
	ResultFactoryReset
)

func (r Result) String() string {
	switch r {
	case ResultLoaded:
		return "loaded"
	case ResultDefaults:
		return "defaults"
	case ResultFactoryReset:
		return "factory_reset"
	}
	return "unknown"
}

const (
	ResetHoldMs  = 3000 // both buttons held this long at power-on
	ResetPollMs  = 50
	ResetBlinkMs = 100

	// ResetMaxIterations bounds the hold loop if the clock stalls
	ResetMaxIterations = ResetHoldMs/ResetPollMs + 20

	defaultsBlinkCount = 2
)

type config struct {
	logger *slog.Logger
}

// Option configures Run
type Option func(*config)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Run performs the power-on sequence. It never fails: every storage
// problem degrades to defaults. The caller restores the returned Mode on
// the coordinator.
func Run(board hal.Board, store *settings.EEPROMStore, opts ...Option) (settings.Settings, Result) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("component", "boot")

	if CheckFactoryReset(board) {
		s := settings.Defaults()
		if err := store.Clear(); err != nil {
			logger.Warn("failed to clear settings", "error", err)
		}
		if err := store.Save(s); err != nil {
			logger.Warn("failed to save defaults", "error", err)
		}

		if magic, err := store.Magic(); err != nil || magic != settings.Magic {
			logger.Error("factory reset not persisted", "magic", magic, "error", err)
			signalWriteError(board)
		}

		logger.Info("factory reset")
		return s, ResultFactoryReset
	}

	s, err := store.Load()
	if err == nil {
		logger.Info("settings loaded", "mode", s.Mode)
		return s, ResultLoaded
	}

	logger.Info("using default settings", "reason", err)
	defaultsFeedback(board)
	return settings.Defaults(), ResultDefaults
}

// CheckFactoryReset reports whether both buttons stay held for
// ResetHoldMs. The output blinks while waiting. It gives up at once if
// the clock is not advancing.
func CheckFactoryReset(board hal.Board) bool {
	t1 := board.Millis()
	board.Delay(10)
	if board.Millis() == t1 {
		return false
	}

	if !board.ButtonA() || !board.ButtonB() {
		return false
	}

	start := board.Millis()
	lastBlink := start
	for i := 0; board.Millis()-start < ResetHoldMs && i < ResetMaxIterations; i++ {
		if board.Millis()-lastBlink >= ResetBlinkMs {
			board.SetOutput(!board.Output())
			lastBlink = board.Millis()
		}

		if !board.ButtonA() || !board.ButtonB() {
			board.SetOutput(false)
			return false
		}

		board.Delay(ResetPollMs)
	}

	// Confirmation
	board.SetOutput(true)
	board.Delay(500)
	board.SetOutput(false)
	return true
}

// defaultsFeedback double-blinks the output twice
func defaultsFeedback(board hal.Board) {
	blink := func() {
		for i := 0; i < defaultsBlinkCount; i++ {
			board.SetOutput(true)
			board.Delay(100)
			board.SetOutput(false)
			board.Delay(100)
		}
	}
	blink()
	board.Delay(200)
	blink()
}

func signalWriteError(board hal.Board) {
	for i := 0; i < 10; i++ {
		board.SetOutput(!board.Output())
		board.Delay(50)
	}
	board.SetOutput(false)
}
