// Command gatekeeper-sim runs the gatekeeper firmware against a simulated
// board: interactively in a terminal, or headless from a script, a Lua
// scenario or a command socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"golang.org/x/term"

	"github.com/librescoot/gatekeeper/config"
	"github.com/librescoot/gatekeeper/hal/simhal"
	"github.com/librescoot/gatekeeper/sim"
	"github.com/librescoot/gatekeeper/sim/midiin"
	"github.com/librescoot/gatekeeper/sim/tui"
)

type options struct {
	script     string
	lua        string
	batch      bool
	json       bool
	jsonStream bool
	socket     bool
	socketPath string
	eeprom     string
	memory     bool
	midi       bool
	midiPort   string
	listMIDI   bool
	logLevel   string
	configPath string
}

func main() {
	var opts options
	flag.StringVar(&opts.script, "script", "", "run a timed event script")
	flag.StringVar(&opts.lua, "lua", "", "run a Lua scenario")
	flag.BoolVar(&opts.batch, "batch", false, "plain text output, no TUI")
	flag.BoolVar(&opts.json, "json", false, "print the final state as JSON")
	flag.BoolVar(&opts.jsonStream, "json-stream", false, "print one JSON frame per change")
	flag.BoolVar(&opts.socket, "socket", false, "accept commands on a unix socket")
	flag.StringVar(&opts.socketPath, "socket-path", "", "unix socket path (default in the temp dir)")
	flag.StringVar(&opts.eeprom, "eeprom", "", "EEPROM image file")
	flag.BoolVar(&opts.memory, "memory", false, "use an in-memory EEPROM")
	flag.BoolVar(&opts.midi, "midi", false, "map a MIDI controller onto the inputs")
	flag.StringVar(&opts.midiPort, "midi-port", "", "MIDI input port name (substring)")
	flag.BoolVar(&opts.listMIDI, "list-midi", false, "list MIDI input ports and exit")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/gatekeeper/config.json)")
	flag.Parse()

	if opts.listMIDI {
		for _, name := range midiin.Ports() {
			fmt.Println(name)
		}
		return
	}

	failed, err := run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func run(opts options) (bool, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return false, err
	}

	headless := opts.script != "" || opts.lua != "" || opts.batch || opts.json || opts.jsonStream ||
		!term.IsTerminal(int(os.Stdout.Fd()))

	logger, closeLog, err := newLogger(opts.logLevel, headless)
	if err != nil {
		return false, err
	}
	defer closeLog()
	slog.SetDefault(logger)

	eeprom, err := openEEPROM(opts, cfg)
	if err != nil {
		return false, err
	}
	defer eeprom.Close()

	var simLog io.Writer
	if headless && !opts.json && !opts.jsonStream {
		simLog = os.Stdout
	}

	s := sim.New(sim.Config{
		EEPROM: eeprom,
		CVHigh: cfg.CV.HighThreshold,
		CVLow:  cfg.CV.LowThreshold,
		Logger: logger,
		Log:    simLog,
	})

	var server *sim.Server
	if opts.socket {
		path := opts.socketPath
		if path == "" {
			path = cfg.Sim.SocketPath
		}
		server, err = sim.Listen(sim.ServerOptions{Path: path, Logger: logger})
		if err != nil {
			return false, err
		}
		defer server.Close()
	}

	var midi *midiin.Input
	if opts.midi {
		port := opts.midiPort
		if port == "" {
			port = cfg.MIDI.PortName
		}
		midi, err = midiin.Open(s, port, midiin.Mapping{
			NoteA: cfg.MIDI.NoteA,
			NoteB: cfg.MIDI.NoteB,
			CVCC:  cfg.MIDI.CVCC,
		}, logger)
		if err != nil {
			return false, err
		}
		defer midi.Close()
	}

	if !headless {
		tuiOpts := tui.Options{
			TapReleaseMs: cfg.Sim.TapReleaseMs,
			Server:       server,
			Logger:       logger,
		}
		if midi != nil {
			tuiOpts.Source = midi
		}
		return false, tui.Run(s, tuiOpts)
	}

	source, err := openSource(s, opts, midi)
	if err != nil {
		return false, err
	}
	defer source.Close()

	var renderer sim.Renderer
	switch {
	case opts.jsonStream:
		renderer = sim.NewJSONRenderer(os.Stdout, true)
	case opts.json:
		renderer = sim.NewJSONRenderer(os.Stdout, false)
	default:
		renderer = sim.NewBatchRenderer(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &sim.Runner{
		Sim:      s,
		Source:   source,
		Renderer: renderer,
		Server:   server,
		Logger:   logger,
	}
	if opts.jsonStream {
		runner.RenderIntervalMs = cfg.Sim.RenderIntervalMs
	}

	failed, err := runner.Run(ctx)
	if cerr := renderer.Close(); err == nil {
		err = cerr
	}
	return failed, err
}

func openSource(s *sim.Sim, opts options, midi *midiin.Input) (sim.Source, error) {
	switch {
	case opts.script != "":
		return sim.OpenScript(s, opts.script)
	case opts.lua != "":
		return sim.LoadScenario(s, opts.lua)
	case midi != nil:
		return midi, nil
	}
	return sim.Idle{}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func openEEPROM(opts options, cfg *config.Config) (*simhal.EEPROM, error) {
	if opts.memory {
		return simhal.NewMemEEPROM(simhal.DefaultEEPROMSize), nil
	}

	path := opts.eeprom
	if path == "" {
		path = cfg.Sim.EEPROMPath
	}
	if path == "" {
		p, err := config.DefaultEEPROMPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("eeprom dir: %w", err)
	}
	return simhal.OpenFileEEPROM(path, simhal.DefaultEEPROMSize)
}

// newLogger logs to stderr when headless. The TUI owns the terminal, so its
// logs go to debug.log in the config directory.
func newLogger(level string, headless bool) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	if headless {
		return slog.New(slog.NewTextHandler(os.Stderr, hopts)), func() {}, nil
	}

	dir, err := config.ConfigDir()
	if err == nil {
		err = os.MkdirAll(dir, 0755)
	}
	if err != nil {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	return slog.New(slog.NewTextHandler(f, hopts)), func() { f.Close() }, nil
}
