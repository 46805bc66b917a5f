package coordinator

import (
	"github.com/librescoot/gatekeeper/events"
	"github.com/librescoot/gatekeeper/fsm"
	"github.com/librescoot/gatekeeper/modes"
)

func (c *Coordinator) enterMenu(ctx *fsm.Context[TopState, events.Event]) {
	now := ctx.Now()
	c.menuEntryMode = c.mode.CurrentState()
	c.menuEnterTime = now
	c.lastActivity = now

	page := StartPage(c.menuEntryMode)
	c.menu.SetState(page)

	c.logger.Info("menu entered", "mode", c.menuEntryMode, "page", page)
}

func (c *Coordinator) exitMenu(ctx *fsm.Context[TopState, events.Event]) {
	c.logger.Info("menu exited", "event", ctx.Event, "open_ms", ctx.Now()-c.menuEnterTime)

	if c.settings == nil {
		return
	}
	c.settings.Mode = uint8(c.mode.CurrentState())
	if c.store == nil {
		return
	}
	if err := c.store.Save(*c.settings); err != nil {
		c.logger.Warn("failed to save settings", "error", err)
	}
}

func (c *Coordinator) advanceMode(ctx *fsm.Context[modes.Mode, events.Event]) {
	now := ctx.Now()
	next := ctx.CurrentState().Next()

	c.mode.SetState(next)
	modes.Init(&c.modeCtx, next, c.settings, now)
	c.touch(now)

	c.logger.Info("mode changed", "mode", next)
}

func (c *Coordinator) advancePage(ctx *fsm.Context[Page, events.Event]) {
	next := ctx.CurrentState().Next()
	c.menu.SetState(next)
	c.touch(ctx.Now())
}

// cycleValue steps the setting owned by the current page. A change to the
// active mode's setting takes effect immediately.
func (c *Coordinator) cycleValue(ctx *fsm.Context[Page, events.Event]) {
	if c.settings == nil {
		return
	}
	now := ctx.Now()
	page := ctx.CurrentState()

	if f, ok := page.Field(); ok {
		v := c.settings.Cycle(f)
		c.logger.Debug("setting changed", "page", page, "field", f, "value", v)

		active := c.mode.CurrentState()
		if owner, _ := page.Mode(); owner == active {
			modes.Init(&c.modeCtx, active, c.settings, now)
		}
	}

	c.touch(now)
}
