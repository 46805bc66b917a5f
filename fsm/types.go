package fsm

import (
	"log/slog"
	"time"
)

// Clock supplies the monotonic millisecond timestamp used for timers.
// The value is allowed to wrap; elapsed time is always computed with
// unsigned subtraction.
type Clock interface {
	Millis() uint32
}

// ClockFunc adapts a plain function to the Clock interface
type ClockFunc func() uint32

// Millis implements Clock
func (f ClockFunc) Millis() uint32 { return f() }

// SystemClock returns a Clock counting milliseconds since the call
func SystemClock() Clock {
	start := time.Now()
	return ClockFunc(func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	})
}

// Logger is the default logger used when none is provided
var Logger = slog.Default()
