// Package ledfeedback renders coordinator feedback onto the two indicator
// LEDs: the mode LED and the activity LED.
package ledfeedback

import (
	"github.com/librescoot/gatekeeper/coordinator"
	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/modes"
)

// GlobalColor marks pages that are not tied to a mode
var GlobalColor = hal.Color{R: 255, G: 255, B: 255}

// unknownColor marks out of range pages
var unknownColor = hal.Color{R: 128, G: 128, B: 128}

// Controller tracks menu transitions and keeps both LED animations in
// step with the coordinator.
type Controller struct {
	leds hal.LEDs

	mode     Animation
	activity Animation

	inMenu      bool
	currentMode modes.Mode
	currentPage coordinator.Page

	lastValue uint8
	valueSet  bool
}

// New returns a controller showing the Gate color
func New(leds hal.LEDs) *Controller {
	c := &Controller{leds: leds}
	c.SetMode(modes.Gate)
	return c
}

// ModeColor returns the mode indicator color
func ModeColor(m modes.Mode) hal.Color {
	return m.Color()
}

// PageColor returns the mode color of the page's group, white for global
// pages
func PageColor(p coordinator.Page) hal.Color {
	if p >= coordinator.PageCount {
		return unknownColor
	}
	if m, ok := p.Mode(); ok {
		return m.Color()
	}
	return GlobalColor
}

// PageKind returns the mode LED animation for a page: the second page of a
// group glows, every other page blinks
func PageKind(p coordinator.Page) Kind {
	switch p {
	case coordinator.PageTriggerPulseLen, coordinator.PageMenuTimeout:
		return Glow
	}
	return Blink
}

// Update applies one feedback snapshot and renders both LEDs
func (c *Controller) Update(fb modes.Feedback, now uint32) {
	page := coordinator.Page(fb.Page)

	switch {
	case fb.InMenu && !c.inMenu:
		c.enterMenu(page)
	case !fb.InMenu && c.inMenu:
		c.exitMenu()
	}

	if !fb.InMenu && fb.Mode != c.currentMode {
		c.SetMode(fb.Mode)
	}
	if fb.InMenu && page != c.currentPage {
		c.setPage(page)
	}

	if c.inMenu {
		if !c.valueSet || fb.SettingValue != c.lastValue {
			c.showValue(fb.SettingValue)
		}
	} else {
		c.activity.SetStatic(fb.ActivityColor.Scale(fb.ActivityBrightness))
	}

	c.render(now)
}

// SetMode shows the static color of m. Out of range modes show Gate.
func (c *Controller) SetMode(m modes.Mode) {
	if m >= modes.Count {
		m = modes.Gate
	}
	c.currentMode = m
	if !c.inMenu {
		c.mode.SetStatic(ModeColor(m))
	}
}

// Flash blinks the activity LED in color until the next value change
func (c *Controller) Flash(color hal.Color) {
	c.activity.Set(Blink, color, 200)
}

// Colors returns the last rendered mode and activity colors
func (c *Controller) Colors() (mode, activity hal.Color) {
	return c.leds.LED(hal.LEDMode), c.leds.LED(hal.LEDActivity)
}

func (c *Controller) enterMenu(page coordinator.Page) {
	c.inMenu = true
	c.setPage(page)
}

func (c *Controller) exitMenu() {
	c.inMenu = false
	c.mode.SetStatic(ModeColor(c.currentMode))
}

func (c *Controller) setPage(page coordinator.Page) {
	if page >= coordinator.PageCount {
		page = coordinator.PageGateCV
	}
	c.currentPage = page
	c.valueSet = false
	if c.inMenu {
		period := uint16(BlinkPeriodMs)
		kind := PageKind(page)
		if kind == Glow {
			period = GlowPeriodMs
		}
		c.mode.Set(kind, PageColor(page), period)
	}
}

// showValue encodes a setting index on the activity LED:
// 0 off, 1 solid, 2 blink, 3 and above glow
func (c *Controller) showValue(v uint8) {
	c.lastValue = v
	c.valueSet = true
	color := PageColor(c.currentPage)

	switch v {
	case 0:
		c.activity.SetStatic(hal.Off)
	case 1:
		c.activity.SetStatic(color)
	case 2:
		c.activity.Set(Blink, color, BlinkPeriodMs)
	default:
		c.activity.Set(Glow, color, GlowPeriodMs)
	}
}

func (c *Controller) render(now uint32) {
	c.leds.SetLED(hal.LEDMode, c.mode.Render(now))
	c.leds.SetLED(hal.LEDActivity, c.activity.Render(now))
	c.leds.Show()
}
