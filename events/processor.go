package events

const (
	// HoldThreshold is the press duration in milliseconds after which a
	// button counts as held.
	HoldThreshold = 500

	// TapThreshold is reserved; taps are classified by HoldThreshold alone.
	TapThreshold = 300
)

// Input is the raw input snapshot for one processing cycle
type Input struct {
	ButtonA bool
	ButtonB bool
	CV      bool
	Now     uint32 // monotonic milliseconds
}

// Processor turns raw input levels into at most one Event per update.
// The zero value is ready to use.
type Processor struct {
	aPressed, aLast, aHold bool
	bPressed, bLast, bHold bool
	cvState, cvLast        bool

	compoundFired   bool
	bTouchedDuringA bool

	aPressTime uint32
	bPressTime uint32
}

// Reset clears all tracked state
func (p *Processor) Reset() {
	if p == nil {
		return
	}
	*p = Processor{}
}

// Update consumes one input snapshot and returns the single highest
// priority event for this cycle, or None. Button A is evaluated first,
// then button B, then the menu gesture, then CV. CV edges are reported
// only when no button event fired; a suppressed CV edge is not replayed.
func (p *Processor) Update(in Input) Event {
	if p == nil {
		return None
	}

	ev := None
	now := in.Now

	p.aPressed = in.ButtonA
	p.bPressed = in.ButtonB
	p.cvState = in.CV

	switch {
	case p.aPressed && !p.aLast:
		p.aPressTime = now
		p.aHold = false
		p.bTouchedDuringA = false
		ev = APress

	case !p.aPressed && p.aLast:
		switch {
		case !p.aHold:
			ev = ATap
		case !p.bTouchedDuringA && !p.compoundFired:
			ev = ModeNext
		default:
			ev = ARelease
		}
		p.aHold = false

	case p.aPressed && !p.aHold:
		if now-p.aPressTime >= HoldThreshold {
			p.aHold = true
			// B held alongside A is not a solo hold
			if !p.bPressed {
				ev = AHold
			}
		}
	}

	switch {
	case p.bPressed && !p.bLast:
		p.bPressTime = now
		p.bHold = false
		if p.aHold {
			p.bTouchedDuringA = true
		}
		if ev == None {
			ev = BPress
		}

	case !p.bPressed && p.bLast:
		if ev == None {
			if !p.bHold {
				ev = BTap
			} else {
				ev = BRelease
			}
		}
		p.bHold = false

	case p.bPressed && !p.bHold:
		if now-p.bPressTime >= HoldThreshold {
			p.bHold = true
			if ev == None {
				ev = BHold
			}
		}
	}

	if !p.compoundFired && ev == BHold && p.aPressed && p.aPressTime < p.bPressTime {
		ev = MenuToggle
		p.compoundFired = true
	}

	if ev == None {
		if p.cvState && !p.cvLast {
			ev = CVRise
		} else if !p.cvState && p.cvLast {
			ev = CVFall
		}
	}

	if !p.aPressed && !p.bPressed {
		p.compoundFired = false
	}

	p.aLast = p.aPressed
	p.bLast = p.bPressed
	p.cvLast = p.cvState

	return ev
}

// APressed reports the last observed level of button A
func (p *Processor) APressed() bool { return p != nil && p.aPressed }

// BPressed reports the last observed level of button B
func (p *Processor) BPressed() bool { return p != nil && p.bPressed }

// AHolding reports whether button A has passed the hold threshold
func (p *Processor) AHolding() bool { return p != nil && p.aHold }

// BHolding reports whether button B has passed the hold threshold
func (p *Processor) BHolding() bool { return p != nil && p.bHold }
