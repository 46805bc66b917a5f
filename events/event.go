package events

// Event is a semantic input event derived from raw button and CV levels
type Event uint8

const (
	None Event = iota

	// Performance events, emitted on press
	APress
	BPress
	CVRise
	CVFall

	// Configuration events, emitted on release
	ATap
	ARelease
	BTap
	BRelease

	// Hold threshold reached while still pressed
	AHold
	BHold

	// Gestures
	MenuToggle // A held first, then B reaches hold
	ModeNext   // solo A hold released

	Timeout

	count
)

var names = [count]string{
	None:       "none",
	APress:     "a_press",
	BPress:     "b_press",
	CVRise:     "cv_rise",
	CVFall:     "cv_fall",
	ATap:       "a_tap",
	ARelease:   "a_release",
	BTap:       "b_tap",
	BRelease:   "b_release",
	AHold:      "a_hold",
	BHold:      "b_hold",
	MenuToggle: "menu_toggle",
	ModeNext:   "mode_next",
	Timeout:    "timeout",
}

func (e Event) String() string {
	if e < count {
		return names[e]
	}
	return "unknown"
}
