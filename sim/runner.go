package sim

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	realtimeRenderMs = 100
	batchRenderMs    = 500
)

// Runner drives a Sim from a Source until the source stops, a quit
// command arrives or the context ends
type Runner struct {
	Sim      *Sim
	Source   Source
	Renderer Renderer // optional
	Server   *Server  // optional

	// RenderIntervalMs forces a render even when nothing changed. Zero
	// picks 100 ms for realtime sources and 500 ms otherwise.
	RenderIntervalMs uint32

	Logger *slog.Logger

	lastRender uint32
	lastPush   uint32
}

// Run loops one simulated millisecond per iteration. It reports whether
// the source recorded a failed check.
func (r *Runner) Run(ctx context.Context) (failed bool, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "runner")

	realtime := r.Source.Realtime()
	interval := r.RenderIntervalMs
	if interval == 0 {
		interval = batchRenderMs
		if realtime {
			interval = realtimeRenderMs
		}
	}

	var ticker *time.Ticker
	if realtime {
		ticker = time.NewTicker(time.Millisecond)
		defer ticker.Stop()
	}

	for {
		if ctx.Err() != nil {
			break
		}

		if !r.Source.Update(r.Sim.Now()) {
			break
		}
		if r.drainCommands(logger) {
			break
		}

		r.Sim.Step()

		if realtime {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}

		if err := r.render(interval); err != nil {
			return r.Source.Failed(), err
		}
		r.push(logger)
	}

	if r.Renderer != nil && r.Sim.State().Dirty() {
		if err := r.Renderer.Render(r.Sim.State()); err != nil {
			return r.Source.Failed(), err
		}
	}
	return r.Source.Failed(), nil
}

// drainCommands applies queued socket commands and reports a quit
func (r *Runner) drainCommands(logger *slog.Logger) bool {
	if r.Server == nil {
		return false
	}
	for {
		select {
		case line := <-r.Server.Commands():
			res := Execute(r.Sim, line)
			if res.Quit {
				return true
			}
			if !res.Success {
				logger.Warn("socket command failed", "cmd", res.Type, "error", res.Err)
			}
		default:
			return false
		}
	}
}

func (r *Runner) render(interval uint32) error {
	if r.Renderer == nil {
		return nil
	}
	st := r.Sim.State()
	now := r.Sim.Now()
	if !st.Dirty() && now-r.lastRender < interval {
		return nil
	}
	if err := r.Renderer.Render(st); err != nil {
		return err
	}
	st.ClearDirty()
	r.lastRender = now
	return nil
}

func (r *Runner) push(logger *slog.Logger) {
	if r.Server == nil || !r.Server.Connected() {
		return
	}
	now := r.Sim.Now()
	if now-r.lastPush < PushIntervalMs {
		return
	}
	r.lastPush = now

	st := r.Sim.State()
	data, err := json.Marshal(NewFrame(st, nil))
	if err != nil {
		logger.Error("encode state", "error", err)
		return
	}
	_ = r.Server.Send(data)
}
