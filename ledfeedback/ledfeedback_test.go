package ledfeedback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/librescoot/gatekeeper/coordinator"
	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/hal/simhal"
	"github.com/librescoot/gatekeeper/modes"
)

func TestBlink(t *testing.T) {
	var a Animation
	red := hal.Color{R: 255}
	a.Set(Blink, red, 500)

	assert.Equal(t, red, a.Render(0))
	assert.Equal(t, red, a.Render(249))
	assert.Equal(t, hal.Off, a.Render(250))
	assert.Equal(t, hal.Off, a.Render(499))
	assert.Equal(t, red, a.Render(500))
}

func TestGlowTriangle(t *testing.T) {
	var a Animation
	white := hal.Color{R: 255, G: 255, B: 255}
	a.Set(Glow, white, 1000)

	assert.Equal(t, hal.Off, a.Render(0))
	assert.Equal(t, uint8(254), a.Render(500).R)
	assert.Less(t, a.Render(250).R, a.Render(450).R)
	assert.Greater(t, a.Render(600).R, a.Render(900).R)
}

func TestZeroPeriodFallsBack(t *testing.T) {
	var a Animation
	a.Set(Blink, hal.Color{G: 1}, 0)
	assert.Equal(t, uint16(BlinkPeriodMs), a.PeriodMs)

	b := Animation{Kind: Glow, Color: hal.Color{B: 9}}
	assert.Equal(t, hal.Color{B: 9}, b.Render(123))
}

func TestPageColors(t *testing.T) {
	assert.Equal(t, modes.Trigger.Color(), PageColor(coordinator.PageTriggerPulseLen))
	assert.Equal(t, modes.Divide.Color(), PageColor(coordinator.PageDivideDivisor))
	assert.Equal(t, GlobalColor, PageColor(coordinator.PageCVGlobal))
	assert.Equal(t, unknownColor, PageColor(coordinator.Page(42)))

	assert.Equal(t, Glow, PageKind(coordinator.PageTriggerPulseLen))
	assert.Equal(t, Glow, PageKind(coordinator.PageMenuTimeout))
	assert.Equal(t, Blink, PageKind(coordinator.PageGateCV))
}

func TestPerformShowsModeAndActivity(t *testing.T) {
	board := simhal.NewBoard()
	c := New(board)

	c.Update(modes.Feedback{
		Mode:               modes.Toggle,
		ActivityColor:      modes.ActivityColor,
		ActivityBrightness: 255,
	}, 0)

	mode, activity := c.Colors()
	assert.Equal(t, modes.Toggle.Color(), mode)
	assert.Equal(t, modes.ActivityColor, activity)
	assert.Equal(t, 1, board.Shows())

	c.Update(modes.Feedback{Mode: modes.Toggle, ActivityColor: modes.ActivityColor}, 1)
	_, activity = c.Colors()
	assert.Equal(t, hal.Off, activity)
}

func TestMenuValueEncoding(t *testing.T) {
	page := uint8(coordinator.PageTriggerBehavior)
	color := modes.Trigger.Color()

	tests := []struct {
		value uint8
		at    uint32
		want  hal.Color
	}{
		{0, 0, hal.Off},
		{1, 0, color},
		{2, 0, color},     // blink starts lit
		{2, 250, hal.Off}, // and goes dark after half a period
		{3, 0, hal.Off},   // glow starts dark
	}

	for _, tt := range tests {
		board := simhal.NewBoard()
		c := New(board)
		fb := modes.Feedback{InMenu: true, Page: page, SettingValue: tt.value, SettingCount: 3}

		c.Update(fb, 0)
		if tt.at > 0 {
			c.Update(fb, tt.at)
		}
		_, activity := c.Colors()
		assert.Equal(t, tt.want, activity, "value %d at %d", tt.value, tt.at)
	}
}

func TestMenuEnterAndExit(t *testing.T) {
	board := simhal.NewBoard()
	c := New(board)

	c.Update(modes.Feedback{Mode: modes.Divide}, 0)
	mode, _ := c.Colors()
	assert.Equal(t, modes.Divide.Color(), mode)

	fb := modes.Feedback{Mode: modes.Divide, InMenu: true, Page: uint8(coordinator.PageDivideDivisor), SettingValue: 1}
	c.Update(fb, 1000)
	mode, _ = c.Colors()
	assert.Equal(t, modes.Divide.Color(), mode)

	c.Update(fb, 1250)
	mode, _ = c.Colors()
	assert.Equal(t, hal.Off, mode, "page indicator blinks")

	// Global page in white
	fb.Page = uint8(coordinator.PageCVGlobal)
	c.Update(fb, 1300)
	mode, _ = c.Colors()
	assert.Equal(t, GlobalColor, mode)

	c.Update(modes.Feedback{Mode: modes.Divide}, 1400)
	mode, _ = c.Colors()
	assert.Equal(t, modes.Divide.Color(), mode)
}

func TestFlash(t *testing.T) {
	board := simhal.NewBoard()
	c := New(board)
	fb := modes.Feedback{InMenu: true, SettingValue: 0}
	c.Update(fb, 0)

	c.Flash(hal.Color{R: 255})
	c.Update(fb, 10)
	_, activity := c.Colors()
	assert.Equal(t, hal.Color{R: 255}, activity)
}
