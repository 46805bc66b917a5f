package sim

import (
	"encoding/json"
	"fmt"
	"io"
)

// Renderer presents snapshots
type Renderer interface {
	Render(st *State) error
	Close() error
}

// Frame is the NDJSON wire shape of a snapshot
type Frame struct {
	Version     int          `json:"version"`
	TimestampMs uint32       `json:"timestamp_ms"`
	State       FrameState   `json:"state"`
	Inputs      FrameInputs  `json:"inputs"`
	Outputs     FrameOutputs `json:"outputs"`
	LEDs        []FrameLED   `json:"leds"`
	Events      []FrameEvent `json:"events"`
}

type FrameState struct {
	Top  string  `json:"top"`
	Mode string  `json:"mode"`
	Page *string `json:"page"` // null outside the menu
}

type FrameInputs struct {
	ButtonA bool  `json:"button_a"`
	ButtonB bool  `json:"button_b"`
	CVIn    bool  `json:"cv_in"`
	CVRaw   uint8 `json:"cv_raw"`
}

type FrameOutputs struct {
	Signal bool `json:"signal"`
}

type FrameLED struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	R     uint8  `json:"r"`
	G     uint8  `json:"g"`
	B     uint8  `json:"b"`
}

type FrameEvent struct {
	TimeMs  uint32 `json:"time_ms"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewFrame converts st with the given events
func NewFrame(st *State, evs []LogEvent) Frame {
	f := Frame{
		Version:     st.Version,
		TimestampMs: st.TimestampMs,
		State: FrameState{
			Top:  st.Top.String(),
			Mode: st.Mode.String(),
		},
		Inputs: FrameInputs{
			ButtonA: st.ButtonA,
			ButtonB: st.ButtonB,
			CVIn:    st.CVIn,
			CVRaw:   st.CVVoltage,
		},
		Outputs: FrameOutputs{Signal: st.Output},
		LEDs:    make([]FrameLED, len(st.LEDs)),
		Events:  make([]FrameEvent, 0, len(evs)),
	}
	if page, ok := st.PageName(); ok {
		f.State.Page = &page
	}
	for i, c := range st.LEDs {
		f.LEDs[i] = FrameLED{Index: i, Name: LEDNames[i], R: c.R, G: c.G, B: c.B}
	}
	for _, ev := range evs {
		f.Events = append(f.Events, FrameEvent{
			TimeMs:  ev.TimeMs,
			Type:    ev.Type.String(),
			Message: ev.Message,
		})
	}
	return f
}

// JSONRenderer writes one compact JSON object per render. In stream mode
// every frame carries the whole retained log, otherwise only new events.
type JSONRenderer struct {
	enc    *json.Encoder
	stream bool
	seq    uint64
}

func NewJSONRenderer(w io.Writer, stream bool) *JSONRenderer {
	return &JSONRenderer{enc: json.NewEncoder(w), stream: stream}
}

func (r *JSONRenderer) Render(st *State) error {
	var evs []LogEvent
	if r.stream {
		evs = st.Events()
		_, r.seq = st.EventsSince(r.seq)
	} else {
		evs, r.seq = st.EventsSince(r.seq)
	}
	return r.enc.Encode(NewFrame(st, evs))
}

func (r *JSONRenderer) Close() error {
	return nil
}

// BatchRenderer prints new events as plain text lines for CI logs
type BatchRenderer struct {
	w    io.Writer
	seq  uint64
	last *State
}

func NewBatchRenderer(w io.Writer) *BatchRenderer {
	return &BatchRenderer{w: w}
}

func (r *BatchRenderer) Render(st *State) error {
	r.last = st
	var evs []LogEvent
	evs, r.seq = st.EventsSince(r.seq)
	for _, ev := range evs {
		if _, err := fmt.Fprintf(r.w, "[%8d ms] %-12s %s\n", ev.TimeMs, ev.Type, ev.Message); err != nil {
			return err
		}
	}
	return nil
}

// Close prints a one-line summary of the final state
func (r *BatchRenderer) Close() error {
	if r.last == nil {
		return nil
	}
	_, err := fmt.Fprintln(r.w, Summary(r.last))
	return err
}

// Summary formats the snapshot on one line
func Summary(st *State) string {
	page := "-"
	if p, ok := st.PageName(); ok {
		page = p
	}
	return fmt.Sprintf("t=%d top=%s mode=%s page=%s out=%s a=%t b=%t cv=%t",
		st.TimestampMs, st.Top, st.Mode, page, levelWord(st.Output),
		st.ButtonA, st.ButtonB, st.CVIn)
}
