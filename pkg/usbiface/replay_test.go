package usbiface

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swbridge.go/pkg/link"
)

func TestReplay(t *testing.T) {
	pressA := link.NeutralFrame
	pressA.Buttons = link.ButtonA
	var leds []link.LEDs
	r, err := NewReplay([]ReplayItem{
		{Frame: pressA, Repeat: 2},
		{Frame: link.NeutralFrame, Repeat: 3},
	}, link.LEDSetterFunc(func(l link.LEDs) {
		leds = append(leds, l)
	}))
	require.NoError(t, err)

	var reports []link.Report
	w := link.ReportWriterFunc(func(rep link.Report) error {
		reports = append(reports, rep)
		return nil
	})
	for n := 0; n < ReplayWarmUp+2*5; n++ {
		require.NoError(t, r.Poll(w))
	}

	neutral, a := link.NeutralFrame.Report(), pressA.Report()
	var expected []link.Report
	for n := 0; n < ReplayWarmUp; n++ {
		expected = append(expected, neutral)
	}
	for n := 0; n < 2; n++ {
		expected = append(expected, a, a, neutral, neutral, neutral)
	}
	require.Equal(t, expected, reports)
	require.Equal(t, []link.LEDs{link.LEDTX, link.LEDsNone, link.LEDTX, link.LEDsNone}, leds)
}

func TestReplayInvalid(t *testing.T) {
	_, err := NewReplay(nil, nil)
	require.Equal(t, ErrEmptyReplay, err)
	_, err = NewReplay([]ReplayItem{{Frame: link.NeutralFrame, Repeat: 0}}, nil)
	require.Error(t, err)
	bad := link.NeutralFrame
	bad.DPad = 10
	_, err = NewReplay([]ReplayItem{{Frame: bad, Repeat: 1}}, nil)
	require.Error(t, err)
}

func TestLoadReplayItems(t *testing.T) {
	items, err := LoadReplayItems(strings.NewReader(`
- buttons: A|B
  repeat: 3
- dpad: down-left
  left: up
  repeat: 1
- right: 10,20
  repeat: 2
`))
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, ReplayItem{
		Frame:  link.Frame{Buttons: link.ButtonA | link.ButtonB, DPad: link.DPadNeutral, Left: link.StickNeutral, Right: link.StickNeutral},
		Repeat: 3,
	}, items[0])
	require.Equal(t, link.DPadDownLeft, items[1].Frame.DPad)
	require.Equal(t, link.StickUp, items[1].Frame.Left)
	require.Equal(t, link.Stick{X: 10, Y: 20}, items[2].Frame.Right)

	_, err = LoadReplayItems(strings.NewReader("- buttons: Q\n  repeat: 1\n"))
	require.Error(t, err)
}
