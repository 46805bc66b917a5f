package settings

import (
	"encoding/binary"
	"fmt"

	"github.com/librescoot/gatekeeper/hal"
)

// Saver persists settings
type Saver interface {
	Save(s Settings) error
}

// EEPROMStore reads and writes the settings image on an EEPROM
type EEPROMStore struct {
	dev hal.EEPROM
}

// NewEEPROMStore returns a store backed by dev
func NewEEPROMStore(dev hal.EEPROM) *EEPROMStore {
	return &EEPROMStore{dev: dev}
}

// Load reads and validates the stored settings
func (st *EEPROMStore) Load() (Settings, error) {
	image := make([]byte, ImageSize)
	if _, err := st.dev.ReadAt(image, 0); err != nil {
		return Settings{}, fmt.Errorf("read eeprom: %w", err)
	}
	return Decode(image)
}

// Save writes s with magic, schema and checksum
func (st *EEPROMStore) Save(s Settings) error {
	image := make([]byte, ImageSize)
	if _, err := st.dev.ReadAt(image, 0); err != nil {
		return fmt.Errorf("read eeprom: %w", err)
	}
	if err := Encode(s, image); err != nil {
		return err
	}
	if _, err := st.dev.WriteAt(image, 0); err != nil {
		return fmt.Errorf("write eeprom: %w", err)
	}
	return nil
}

// Clear invalidates the stored image by erasing the magic word
func (st *EEPROMStore) Clear() error {
	var word [2]byte
	binary.LittleEndian.PutUint16(word[:], 0xFFFF)
	if _, err := st.dev.WriteAt(word[:], MagicAddr); err != nil {
		return fmt.Errorf("clear eeprom: %w", err)
	}
	return nil
}

// Magic returns the stored magic word
func (st *EEPROMStore) Magic() (uint16, error) {
	var word [2]byte
	if _, err := st.dev.ReadAt(word[:], MagicAddr); err != nil {
		return 0, fmt.Errorf("read eeprom: %w", err)
	}
	return binary.LittleEndian.Uint16(word[:]), nil
}
