package modes

import "github.com/librescoot/gatekeeper/hal"

// Feedback describes what the two indicator LEDs should show. The mode
// handler fills the colors; the coordinator fills the application state.
type Feedback struct {
	ModeColor          hal.Color
	ActivityColor      hal.Color
	ActivityBrightness uint8

	Mode         Mode
	Page         uint8
	InMenu       bool
	SettingValue uint8
	SettingCount uint8
}

// LED returns the perform-mode feedback for the active mode
func LED(ctx *Context) Feedback {
	if ctx == nil {
		return Feedback{}
	}

	fb := Feedback{
		ModeColor:     ctx.Mode.Color(),
		ActivityColor: ActivityColor,
		Mode:          ctx.Mode,
	}

	switch {
	case ctx.Mode == Cycle:
		fb.ActivityBrightness = ctx.Cycle.Phase
	case ctx.Output():
		fb.ActivityBrightness = 255
	}

	return fb
}
