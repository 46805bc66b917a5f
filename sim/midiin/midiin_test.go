package midiin

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"

	"github.com/librescoot/gatekeeper/sim"
)

var discard = slog.New(slog.DiscardHandler)

func newInput() (*Input, *sim.Sim) {
	s := sim.New(sim.Config{Logger: discard})
	return New(s, Mapping{NoteA: 36, NoteB: 37, CVCC: 1}, discard), s
}

func TestNotesDriveButtons(t *testing.T) {
	in, s := newInput()

	in.handle(midi.NoteOn(0, 36, 100), 0)
	in.handle(midi.NoteOn(9, 37, 1), 0)
	assert.False(t, s.Board().ButtonA(), "applied on update")

	assert.True(t, in.Update(s.Now()))
	assert.True(t, s.Board().ButtonA())
	assert.True(t, s.Board().ButtonB())

	in.handle(midi.NoteOff(0, 36), 0)
	in.handle(midi.NoteOn(9, 37, 0), 0)
	in.Update(s.Now())
	assert.False(t, s.Board().ButtonA())
	assert.False(t, s.Board().ButtonB())
}

func TestUnmappedMessagesIgnored(t *testing.T) {
	in, s := newInput()

	in.handle(midi.NoteOn(0, 60, 100), 0)
	in.handle(midi.ControlChange(0, 7, 127), 0)
	in.Update(s.Now())

	assert.False(t, s.Board().ButtonA())
	assert.Equal(t, uint8(0), s.CV().Value())
}

func TestControlChangeDrivesCV(t *testing.T) {
	in, s := newInput()

	in.handle(midi.ControlChange(0, 1, 127), 0)
	in.Update(s.Now())
	assert.Equal(t, uint8(255), s.CV().Value())

	in.handle(midi.ControlChange(0, 1, 64), 0)
	in.Update(s.Now())
	assert.Equal(t, uint8(128), s.CV().Value())
}

func TestScale(t *testing.T) {
	assert.Equal(t, uint8(0), scale(0))
	assert.Equal(t, uint8(255), scale(127))
	assert.Equal(t, uint8(255), scale(200))
}

func TestSourceContract(t *testing.T) {
	in, _ := newInput()
	assert.True(t, in.Realtime())
	assert.False(t, in.Failed())
	assert.NoError(t, in.Close())
}
