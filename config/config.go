// Package config holds the host-side configuration of the simulator and
// the Raspberry Pi build.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CVConfig sets the hysteresis thresholds on 8-bit ADC samples
type CVConfig struct {
	HighThreshold uint8 `json:"highThreshold"`
	LowThreshold  uint8 `json:"lowThreshold"`
}

// SimConfig stores simulator preferences
type SimConfig struct {
	TapReleaseMs     uint32 `json:"tapReleaseMs"`
	RenderIntervalMs uint32 `json:"renderIntervalMs"`
	EEPROMPath       string `json:"eepromPath,omitempty"`
	SocketPath       string `json:"socketPath,omitempty"`
}

// PiConfig assigns BCM pins and the I2C ADC
type PiConfig struct {
	ButtonAPin int    `json:"buttonAPin"`
	ButtonBPin int    `json:"buttonBPin"`
	OutputPin  int    `json:"outputPin"`
	LEDPins    [2]int `json:"ledPins"` // mode, activity; 0 disables
	I2CBus     int    `json:"i2cBus"`
	ADCAddress uint8  `json:"adcAddress"`
	ADCChannel uint8  `json:"adcChannel"`
	EEPROMPath string `json:"eepromPath,omitempty"`
}

// MIDIConfig maps a MIDI controller onto the inputs
type MIDIConfig struct {
	PortName string `json:"portName,omitempty"` // substring match
	NoteA    uint8  `json:"noteA"`
	NoteB    uint8  `json:"noteB"`
	CVCC     uint8  `json:"cvCC"`
}

// Config is the main configuration structure
type Config struct {
	CV   CVConfig   `json:"cv"`
	Sim  SimConfig  `json:"sim"`
	Pi   PiConfig   `json:"pi"`
	MIDI MIDIConfig `json:"midi"`
}

// DefaultConfig returns a config with the board's defaults
func DefaultConfig() *Config {
	return &Config{
		CV: CVConfig{
			HighThreshold: 128,
			LowThreshold:  77,
		},
		Sim: SimConfig{
			TapReleaseMs:     200,
			RenderIntervalMs: 16,
		},
		Pi: PiConfig{
			ButtonAPin: 17,
			ButtonBPin: 27,
			OutputPin:  22,
			LEDPins:    [2]int{23, 24},
			I2CBus:     1,
			ADCAddress: 0x48,
			ADCChannel: 0,
		},
		MIDI: MIDIConfig{
			NoteA: 36,
			NoteB: 37,
			CVCC:  1,
		},
	}
}

// Validate checks values the hardware layers rely on
func (c *Config) Validate() error {
	if c.CV.LowThreshold >= c.CV.HighThreshold {
		return fmt.Errorf("cv: low threshold %d must be below high threshold %d",
			c.CV.LowThreshold, c.CV.HighThreshold)
	}
	if c.Pi.ADCChannel > 3 {
		return fmt.Errorf("pi: adc channel %d out of range", c.Pi.ADCChannel)
	}
	if c.MIDI.NoteA > 127 || c.MIDI.NoteB > 127 || c.MIDI.CVCC > 127 {
		return fmt.Errorf("midi: note and cc numbers must be 0-127")
	}
	return nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gatekeeper"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultEEPROMPath returns where the simulated EEPROM image lives
func DefaultEEPROMPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "eeprom.bin"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
