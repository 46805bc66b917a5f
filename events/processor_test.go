package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stamped struct {
	at uint32
	ev Event
}

// levels returns the input for time t
type levels func(t uint32) (a, b, cv bool)

// run feeds one sample per millisecond from 0 to end inclusive and
// collects every non-None event.
func run(p *Processor, end uint32, in levels) []stamped {
	var out []stamped
	for t := uint32(0); t <= end; t++ {
		a, b, cv := in(t)
		if ev := p.Update(Input{ButtonA: a, ButtonB: b, CV: cv, Now: t}); ev != None {
			out = append(out, stamped{t, ev})
		}
	}
	return out
}

func kinds(s []stamped) []Event {
	out := make([]Event, len(s))
	for i := range s {
		out[i] = s[i].ev
	}
	return out
}

func TestTap(t *testing.T) {
	var p Processor
	got := run(&p, 150, func(t uint32) (bool, bool, bool) { return t < 100, false, false })

	assert.Equal(t, []stamped{{0, APress}, {100, ATap}}, got)
}

func TestTapBelowThreshold(t *testing.T) {
	for _, d := range []uint32{1, 50, 299, 499} {
		var p Processor
		got := run(&p, d+10, func(t uint32) (bool, bool, bool) { return false, t < d, false })
		assert.Equal(t, []Event{BPress, BTap}, kinds(got), "duration %d", d)
	}
}

func TestSoloHoldIsModeNext(t *testing.T) {
	var p Processor
	got := run(&p, 700, func(t uint32) (bool, bool, bool) { return t < 600, false, false })

	assert.Equal(t, []stamped{{0, APress}, {500, AHold}, {600, ModeNext}}, got)
}

func TestBHoldRelease(t *testing.T) {
	var p Processor
	got := run(&p, 700, func(t uint32) (bool, bool, bool) { return false, t < 600, false })

	assert.Equal(t, []stamped{{0, BPress}, {500, BHold}, {600, BRelease}}, got)
}

func TestBTouchedDuringHoldCancelsModeNext(t *testing.T) {
	var p Processor
	// A held from 0 to 900, B tapped at 600..650 after A reached hold
	got := run(&p, 1000, func(t uint32) (bool, bool, bool) {
		return t < 900, t >= 600 && t < 650, false
	})

	assert.Equal(t, []stamped{
		{0, APress},
		{500, AHold},
		{600, BPress},
		{650, BTap},
		{900, ARelease},
	}, got)
	assert.NotContains(t, kinds(got), ModeNext)
}

func TestMenuToggleScenario(t *testing.T) {
	var p Processor
	got := run(&p, 600, func(t uint32) (bool, bool, bool) { return true, t >= 100, false })

	// A reaches hold silently at 500 because B is down
	assert.Equal(t, []stamped{{0, APress}, {100, BPress}, {600, MenuToggle}}, got)
	assert.True(t, p.AHolding())
	assert.True(t, p.BHolding())
}

func TestMenuToggleOncePerSpan(t *testing.T) {
	var p Processor
	// Both held long; B released and pressed again while A stays down
	got := run(&p, 2500, func(t uint32) (bool, bool, bool) {
		b := (t >= 100 && t < 1000) || (t >= 1200 && t < 2000)
		return t < 2200, b, false
	})

	toggles := 0
	for _, s := range got {
		if s.ev == MenuToggle {
			toggles++
		}
	}
	assert.Equal(t, 1, toggles)
	assert.Equal(t, ARelease, got[len(got)-1].ev)

	// Both released at 2200, so the gesture is armed again
	for ts := uint32(3000); ts <= 3600; ts++ {
		ev := p.Update(Input{ButtonA: true, ButtonB: ts >= 3100, Now: ts})
		if ts == 3600 {
			assert.Equal(t, MenuToggle, ev)
		}
	}
}

func TestMenuToggleRequiresAFirst(t *testing.T) {
	var p Processor
	// B first, then A
	got := run(&p, 800, func(t uint32) (bool, bool, bool) { return t >= 100, true, false })

	assert.NotContains(t, kinds(got), MenuToggle)
	assert.Contains(t, kinds(got), BHold)
}

func TestMenuToggleSameTimestampDoesNotFire(t *testing.T) {
	var p Processor
	got := run(&p, 700, func(t uint32) (bool, bool, bool) { return true, true, false })

	// A and B pressed together: A press wins the tick, B press is dropped
	assert.Equal(t, []stamped{{0, APress}, {500, BHold}}, got)
}

func TestAWinsOverCV(t *testing.T) {
	var p Processor
	ev := p.Update(Input{ButtonA: true, CV: true, Now: 0})
	assert.Equal(t, APress, ev)

	// The suppressed CV edge is not replayed
	ev = p.Update(Input{ButtonA: true, CV: true, Now: 1})
	assert.Equal(t, None, ev)
}

func TestCVEdges(t *testing.T) {
	var p Processor
	got := run(&p, 40, func(t uint32) (bool, bool, bool) { return false, false, t >= 10 && t < 30 })

	assert.Equal(t, []stamped{{10, CVRise}, {30, CVFall}}, got)
}

func TestBEventSuppressedByA(t *testing.T) {
	var p Processor
	p.Update(Input{ButtonB: true, Now: 0})

	// A press and B release on the same sample
	ev := p.Update(Input{ButtonA: true, ButtonB: false, Now: 10})
	assert.Equal(t, APress, ev)
	assert.False(t, p.BHolding())

	ev = p.Update(Input{ButtonA: true, Now: 11})
	assert.Equal(t, None, ev)
}

func TestHoldAcrossClockWrap(t *testing.T) {
	var p Processor
	start := uint32(0xFFFFFF00)
	require.Equal(t, APress, p.Update(Input{ButtonA: true, Now: start}))

	var ev Event
	for i := uint32(1); i <= HoldThreshold; i++ {
		if e := p.Update(Input{ButtonA: true, Now: start + i}); e != None {
			ev = e
		}
	}
	assert.Equal(t, AHold, ev)
}

func TestReset(t *testing.T) {
	var p Processor
	p.Update(Input{ButtonA: true, Now: 0})
	require.True(t, p.APressed())

	p.Reset()
	assert.False(t, p.APressed())
	assert.Equal(t, APress, p.Update(Input{ButtonA: true, Now: 5}))
}

func TestNilProcessor(t *testing.T) {
	var p *Processor
	assert.Equal(t, None, p.Update(Input{ButtonA: true}))
	assert.False(t, p.APressed())
	assert.False(t, p.BPressed())
	assert.False(t, p.AHolding())
	assert.False(t, p.BHolding())
	p.Reset()
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "menu_toggle", MenuToggle.String())
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "unknown", Event(200).String())
}
