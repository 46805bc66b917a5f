package simhal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// DefaultEEPROMSize matches the ATtiny85 EEPROM
const DefaultEEPROMSize = 512

const fileModePerm = 0o644

// ErrWriteFault is returned by WriteAt while a write fault is injected
var ErrWriteFault = errors.New("simhal: eeprom write fault")

// EEPROM is a simulated EEPROM held in memory or mapped from an image file.
// Erased cells read as 0xFF.
type EEPROM struct {
	mu        sync.Mutex
	data      []byte
	mapped    mmap.MMap
	fd        *os.File
	writeFail bool
	writes    int
}

// NewMemEEPROM returns an erased in-memory EEPROM
func NewMemEEPROM(size int) *EEPROM {
	data := make([]byte, size)
	erase(data)
	return &EEPROM{data: data}
}

// OpenFileEEPROM maps the image file at path, creating an erased image of
// the given size when the file is missing or empty.
func OpenFileEEPROM(path string, size int) (*EEPROM, error) {
	fd, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, fileModePerm)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image: %w", err)
	}

	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("stat eeprom image: %w", err)
	}
	fresh := info.Size() == 0

	if info.Size() != int64(size) {
		if err := fd.Truncate(int64(size)); err != nil {
			fd.Close()
			return nil, fmt.Errorf("truncate error: %w", err)
		}
	}

	mapped, err := mmap.Map(fd, mmap.RDWR, 0)
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("mmap error: %w", err)
	}

	if fresh {
		erase(mapped)
	}

	return &EEPROM{data: mapped, mapped: mapped, fd: fd}, nil
}

func erase(b []byte) {
	for i := range b {
		b[i] = 0xFF
	}
}

// Size returns the capacity in bytes
func (e *EEPROM) Size() int {
	return len(e.data)
}

func (e *EEPROM) ReadAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if off < 0 || off >= int64(len(e.data)) {
		return 0, io.EOF
	}
	n := copy(p, e.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (e *EEPROM) WriteAt(p []byte, off int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writeFail {
		return 0, ErrWriteFault
	}
	if off < 0 || off+int64(len(p)) > int64(len(e.data)) {
		return 0, fmt.Errorf("simhal: write [%d,%d) outside eeprom of %d bytes", off, off+int64(len(p)), len(e.data))
	}
	n := copy(e.data[off:], p)
	e.writes++
	if e.mapped != nil {
		if err := e.mapped.Flush(); err != nil {
			return n, fmt.Errorf("flush eeprom image: %w", err)
		}
	}
	return n, nil
}

// SetWriteFault makes subsequent writes fail until cleared
func (e *EEPROM) SetWriteFault(on bool) {
	e.mu.Lock()
	e.writeFail = on
	e.mu.Unlock()
}

// WriteFault reports whether a write fault is injected
func (e *EEPROM) WriteFault() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeFail
}

// Writes returns the number of successful write operations
func (e *EEPROM) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}

// Erase resets every cell to 0xFF
func (e *EEPROM) Erase() {
	e.mu.Lock()
	defer e.mu.Unlock()
	erase(e.data)
}

// Close unmaps the image file. In-memory EEPROMs need no Close.
func (e *EEPROM) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mapped == nil {
		return nil
	}
	var errs []error
	if err := e.mapped.Flush(); err != nil {
		errs = append(errs, err)
	}
	if err := e.mapped.Unmap(); err != nil {
		errs = append(errs, err)
	}
	if err := e.fd.Close(); err != nil {
		errs = append(errs, err)
	}
	e.mapped = nil
	e.data = nil
	return errors.Join(errs...)
}
