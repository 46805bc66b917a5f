package settings

import (
	"encoding/binary"
	"fmt"
)

// EEPROM image layout
const (
	MagicAddr    = 0x00 // little-endian word
	SchemaAddr   = 0x02
	SettingsAddr = 0x03
	ChecksumAddr = 0x10

	Magic         = 0x474B // "GK"
	SchemaVersion = 2

	// ImageSize is the number of bytes covered by the layout
	ImageSize = ChecksumAddr + 1
)

// Bytes returns the storage representation of s
func (s Settings) Bytes() [Size]byte {
	return [Size]byte{
		s.Mode, s.TriggerPulseIdx, s.TriggerEdge, s.DivideDivisorIdx,
		s.CycleTempoIdx, s.ToggleEdge, s.GateAMode, s.Reserved,
	}
}

// FromBytes is the inverse of Bytes
func FromBytes(b [Size]byte) Settings {
	return Settings{
		Mode:             b[0],
		TriggerPulseIdx:  b[1],
		TriggerEdge:      b[2],
		DivideDivisorIdx: b[3],
		CycleTempoIdx:    b[4],
		ToggleEdge:       b[5],
		GateAMode:        b[6],
		Reserved:         b[7],
	}
}

// Checksum is the XOR of the encoded settings bytes
func Checksum(s Settings) uint8 {
	var sum uint8
	for _, b := range s.Bytes() {
		sum ^= b
	}
	return sum
}

// Encode writes s into image using the EEPROM layout. Bytes outside the
// layout are left untouched.
func Encode(s Settings, image []byte) error {
	if len(image) < ImageSize {
		return fmt.Errorf("settings: image too small: %d < %d", len(image), ImageSize)
	}
	binary.LittleEndian.PutUint16(image[MagicAddr:], Magic)
	image[SchemaAddr] = SchemaVersion
	b := s.Bytes()
	copy(image[SettingsAddr:SettingsAddr+Size], b[:])
	image[ChecksumAddr] = Checksum(s)
	return nil
}

// Decode validates image in order (magic, schema, checksum, ranges) and
// returns the stored settings.
func Decode(image []byte) (Settings, error) {
	if len(image) < ImageSize {
		return Settings{}, fmt.Errorf("settings: image too small: %d < %d", len(image), ImageSize)
	}

	if magic := binary.LittleEndian.Uint16(image[MagicAddr:]); magic != Magic {
		return Settings{}, fmt.Errorf("%w: 0x%04X", ErrBadMagic, magic)
	}

	if schema := image[SchemaAddr]; schema != SchemaVersion {
		return Settings{}, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, schema, SchemaVersion)
	}

	var b [Size]byte
	copy(b[:], image[SettingsAddr:SettingsAddr+Size])
	s := FromBytes(b)

	if stored, calc := image[ChecksumAddr], Checksum(s); stored != calc {
		return Settings{}, fmt.Errorf("%w: stored 0x%02X, computed 0x%02X", ErrChecksum, stored, calc)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s, nil
}
