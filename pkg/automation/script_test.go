package automation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/link/sim"
	"github.com/robotalks/swbridge.go/pkg/persist"
)

const testScript = `
name: arceus
steps:
  - leds: both
  - press: {left: up}
  - sequence:
      - {buttons: A, mode: mash, repeat: 2}
      - {buttons: NONE, repeat: 3}
  - press: {buttons: A, dpad: down}
  - wait: 1s
  - count: increment
  - pause
`

func TestLoadScript(t *testing.T) {
	s, err := LoadScript(strings.NewReader(testScript))
	require.NoError(t, err)
	require.Equal(t, "arceus", s.Name)
	require.False(t, s.Loop)
	require.Len(t, s.Steps, 7)

	var kinds []string
	for _, step := range s.Steps {
		kinds = append(kinds, step.Kind)
	}
	require.Equal(t, []string{"leds", "press", "sequence", "press", "wait", "count", "pause"}, kinds)

	require.Equal(t, &SetLEDsStep{LEDs: link.LEDsBoth}, s.Steps[0].Step)
	require.Equal(t, &PressStep{Frame: link.Frame{
		DPad: link.DPadNeutral, Left: link.StickUp, Right: link.StickNeutral,
	}}, s.Steps[1].Step)
	require.Equal(t, &SequenceStep{Entries: []link.SequenceEntry{
		{Buttons: link.ButtonA, DPad: link.DPadNeutral, Mode: link.ModeMash, Repeat: 2},
		{Buttons: link.ButtonNone, DPad: link.DPadNeutral, Mode: link.ModeHold, Repeat: 3},
	}}, s.Steps[2].Step)
	require.Equal(t, &PressStep{Frame: link.Frame{
		Buttons: link.ButtonA, DPad: link.DPadDown, Left: link.StickNeutral, Right: link.StickNeutral,
	}}, s.Steps[3].Step)
	require.Equal(t, &WaitStep{Duration: time.Second}, s.Steps[4].Step)
	require.Equal(t, &CountStep{}, s.Steps[5].Step)
	require.Equal(t, &PauseStep{}, s.Steps[6].Step)
}

func TestLoadScriptErrors(t *testing.T) {
	testCases := []struct {
		name   string
		script string
	}{
		{"empty", "name: empty\n"},
		{"unknown step", "steps:\n  - jump: high\n"},
		{"two keys", "steps:\n  - {wait: 1s, pause: true}\n"},
		{"bad button", "steps:\n  - press: {buttons: Q}\n"},
		{"bad repeat", "steps:\n  - sequence:\n      - {buttons: A, repeat: 2048}\n"},
		{"bad count", "steps:\n  - count: twice\n"},
		{"bad wait", "steps:\n  - wait: soon\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScript(strings.NewReader(tc.script))
			require.Error(t, err)
		})
	}
	_, err := LoadScript(strings.NewReader("steps:\n  - jump: high\n"))
	require.Contains(t, err.Error(), ErrUnknownStep.Error())
}

type scriptTestCtx struct {
	t        *testing.T
	clock    *sim.Clock
	peer     *sim.Port
	ctl      *Controller
	received []link.Frame
}

// newScriptTestCtx runs a controller against a peer which consumes a frame
// every cycle.
func newScriptTestCtx(t *testing.T) *scriptTestCtx {
	c := &scriptTestCtx{t: t, clock: sim.NewClock()}
	var port *sim.Port
	port, c.peer = sim.Pair()
	framer := link.NewFramer(port)
	framer.Waiter = link.Waiter{Clock: c.clock, Interval: link.PollInterval}
	counter, err := persist.NewResetCounter(persist.NewImage())
	require.NoError(t, err)
	c.ctl = NewController(framer, counter)

	var buf []byte
	c.clock.Every(40*time.Millisecond, func() {
		buf = append(buf, c.peer.ReadAll()...)
		for len(buf) >= link.FrameSize {
			fr, err := link.DecodeFrame(buf[:link.FrameSize])
			require.NoError(t, err)
			c.received = append(c.received, fr)
			buf = buf[link.FrameSize:]
		}
		require.NoError(t, c.peer.WriteByte(link.ReadyForData))
	})
	c.peer.WriteByte(link.InitSync)
	_, err = c.ctl.Init()
	require.NoError(t, err)
	return c
}

func (c *scriptTestCtx) flush() []link.Frame {
	c.clock.Advance(80 * time.Millisecond)
	received := c.received
	c.received = nil
	return received
}

func TestScriptRunner(t *testing.T) {
	c := newScriptTestCtx(t)
	s, err := LoadScript(strings.NewReader(testScript))
	require.NoError(t, err)
	r := NewScriptRunner(s, c.ctl)
	require.NoError(t, r.Run())
	frames := c.flush()

	// press, 4 mash, 3 hold, press, released by wait, pause
	require.Len(t, frames, 11)
	for _, fr := range frames {
		require.Equal(t, link.LEDsBoth, fr.LEDs)
	}
	require.Equal(t, link.StickUp, frames[0].Left)
	require.Equal(t, link.ButtonA, frames[1].Buttons)
	require.Equal(t, link.StickUp, frames[1].Left)
	require.Equal(t, link.ButtonNone, frames[2].Buttons)
	require.Equal(t, link.StickUp, frames[7].Left)
	require.Equal(t, link.ButtonA, frames[8].Buttons)
	require.Equal(t, link.DPadDown, frames[8].DPad)
	require.True(t, frames[9].IsNeutral())
	require.True(t, frames[10].IsNeutral())

	count, err := c.ctl.ResetCount()
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	pos, rounds := r.Position()
	require.Equal(t, 7, pos)
	require.Equal(t, 1, rounds)
	require.Equal(t, framework.ErrStopLoop, r.Step())
}

func TestScriptRunnerLoop(t *testing.T) {
	c := newScriptTestCtx(t)
	s, err := LoadScript(strings.NewReader(`
loop: true
steps:
  - count: inc
  - press: {buttons: HOME}
  - pause
`))
	require.NoError(t, err)
	r := NewScriptRunner(s, c.ctl)
	for n := 0; n < 9; n++ {
		require.NoError(t, r.Step())
	}
	_, rounds := r.Position()
	require.Equal(t, 3, rounds)
	count, err := c.ctl.ResetCount()
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)
	require.Len(t, c.flush(), 6)
}

func TestControllerWithoutCounter(t *testing.T) {
	c := NewController(nil, nil)
	_, err := c.ResetCount()
	require.Equal(t, ErrNoCounter, err)
	_, err = c.CountReset()
	require.Equal(t, ErrNoCounter, err)
	require.Equal(t, ErrNoCounter, c.ZeroResets())
}
