package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameEncode(t *testing.T) {
	fr := Frame{
		Buttons: ButtonA | ButtonHome,
		DPad:    DPadDownLeft,
		Left:    Stick{1, 2},
		Right:   Stick{3, 4},
		LEDs:    LEDRX,
	}
	require.Equal(t, [FrameSize]byte{0x04, 0x10, 5, 1, 2, 3, 4, 0xae}, fr.Bytes())
	require.Equal(t, Report{0x04, 0x10, 5, 1, 2, 3, 4, 0}, fr.Report())

	decoded, err := DecodeFrame([]byte{0x04, 0x10, 5, 1, 2, 3, 4, 0xae})
	require.NoError(t, err)
	require.Equal(t, fr, decoded)

	rep := fr.Report()
	fr.LEDs = LEDsNone
	require.Equal(t, fr, rep.Frame())
}

func TestNeutralFrame(t *testing.T) {
	require.Equal(t, [FrameSize]byte{0, 0, 0x08, 128, 128, 128, 128, 0xac}, NeutralFrame.Bytes())
	require.True(t, NeutralFrame.IsNeutral())
	withLEDs := NeutralFrame
	withLEDs.LEDs = LEDsBoth
	require.True(t, withLEDs.IsNeutral())
	moved := NeutralFrame
	moved.Right = StickUp
	require.False(t, moved.IsNeutral())
}

func TestDecodeFrameErrors(t *testing.T) {
	_, err := DecodeFrame([]byte{0, 0, 8})
	require.Equal(t, ErrShortFrame, err)

	fr, err := DecodeFrame([]byte{0x02, 0, 8, 128, 128, 128, 128, 0xa8})
	require.Equal(t, ErrBadMagic, err)
	require.Equal(t, ButtonB, fr.Buttons)

	for _, status := range []byte{0xac, 0xad, 0xae, 0xaf} {
		require.True(t, ValidStatus(status))
	}
	for _, status := range []byte{0x00, 0xa8, 0xbc, 0x2c} {
		require.False(t, ValidStatus(status))
	}
}

func TestButtons(t *testing.T) {
	b, err := ParseButtons("a|B+zl, home")
	require.NoError(t, err)
	require.Equal(t, ButtonA|ButtonB|ButtonZL|ButtonHome, b)
	require.Equal(t, "B|A|ZL|HOME", b.String())

	b, err = ParseButtons("start+select")
	require.NoError(t, err)
	require.Equal(t, ButtonPlus|ButtonMinus, b)

	b, err = ParseButtons("none")
	require.NoError(t, err)
	require.Equal(t, ButtonNone, b)
	require.Equal(t, "NONE", b.String())

	_, err = ParseButtons("A|Q")
	require.Error(t, err)
	require.Equal(t, "0x4000", Buttons(0x4000).String())
}

func TestDPad(t *testing.T) {
	for n := DPadUp; n <= DPadNeutral; n++ {
		d, err := ParseDPad(n.String())
		require.NoError(t, err)
		require.Equal(t, n, d)
	}
	d, err := ParseDPad("")
	require.NoError(t, err)
	require.Equal(t, DPadNeutral, d)
	d, err = ParseDPad("Down_Right")
	require.NoError(t, err)
	require.Equal(t, DPadDownRight, d)
	_, err = ParseDPad("sideways")
	require.Error(t, err)
	require.False(t, DPad(9).IsValid())
}

func TestLEDs(t *testing.T) {
	l, err := ParseLEDs("tx")
	require.NoError(t, err)
	require.Equal(t, LEDTX, l)
	l, err = ParseLEDs("both")
	require.NoError(t, err)
	require.Equal(t, LEDsBoth, l)
	require.Equal(t, "tx|rx", l.String())
	l, err = ParseLEDs("off")
	require.NoError(t, err)
	require.Equal(t, LEDsNone, l)
	_, err = ParseLEDs("green")
	require.Error(t, err)
	require.Equal(t, byte(0xae), StatusByte(LEDRX))
}
