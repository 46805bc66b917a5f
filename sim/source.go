package sim

// Source feeds input into a running Sim
type Source interface {
	// Update applies input due at now. It returns false to stop the run.
	Update(now uint32) bool

	// Realtime reports whether the run loop should pace ticks to wall time
	Realtime() bool

	// Failed reports whether any check made by the source failed
	Failed() bool

	Close() error
}

// Idle is a source that never stops and never fails. Interactive front
// ends that inject input themselves run with it.
type Idle struct{}

func (Idle) Update(uint32) bool { return true }
func (Idle) Realtime() bool     { return true }
func (Idle) Failed() bool       { return false }
func (Idle) Close() error       { return nil }
