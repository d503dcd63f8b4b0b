package msgs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swbridge.go/pkg/link"
)

func TestTypedKinds(t *testing.T) {
	testCases := []struct {
		msg     SerializableMessage
		command bool
		reply   bool
		event   bool
	}{
		{&Press{}, true, false, false},
		{&Sequence{}, true, false, false},
		{&CounterQuery{}, true, false, false},
		{&CounterValue{}, false, true, false},
		{&CommandOK{}, false, true, false},
		{&CommandErr{}, false, true, false},
		{&LinkStatus{}, false, false, true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%T", tc.msg), func(t *testing.T) {
			typed, err := TypedFrom(tc.msg, 1)
			require.NoError(t, err)
			require.Equal(t, tc.command, typed.IsCommand())
			require.Equal(t, tc.reply, typed.IsReply())
			require.Equal(t, tc.event, typed.IsEvent())
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	press := NewPress(link.Frame{
		Buttons: link.ButtonA | link.ButtonZR,
		DPad:    link.DPadDown,
		Left:    link.StickUpLeft,
		Right:   link.StickNeutral,
	})
	data, err := EncodeMessage(press, 42)
	require.NoError(t, err)
	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, PressTypeID, typed.TypeID)
	require.Equal(t, uint32(42), typed.Sequence)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.Equal(t, press, msg)

	fr, err := msg.(*Press).Frame()
	require.NoError(t, err)
	require.Equal(t, link.ButtonA|link.ButtonZR, fr.Buttons)
	require.Equal(t, link.DPadDown, fr.DPad)
	require.Equal(t, link.StickUpLeft, fr.Left)
	require.Equal(t, link.StickNeutral, fr.Right)
}

func TestDecodeUnknownType(t *testing.T) {
	typed := &Typed{TypeID: 0x7f000001}
	_, err := typed.Decode()
	require.Equal(t, &ErrUnknownType{TypeID: 0x7f000001}, err)
	require.EqualError(t, err, "unknown type: 7f000001")
}

func TestPressInvalid(t *testing.T) {
	testCases := []struct {
		name string
		msg  *Press
	}{
		{"buttons", &Press{Buttons: 0x10000, DPad: 8}},
		{"dpad", &Press{DPad: 9}},
		{"stick", &Press{DPad: 8, LeftX: 256}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.msg.Frame()
			require.Error(t, err)
		})
	}
}

func TestSequenceEntries(t *testing.T) {
	entries := []link.SequenceEntry{
		{Buttons: link.ButtonA, DPad: link.DPadNeutral, Mode: link.ModeMash, Repeat: 3},
		{Buttons: link.ButtonNone, DPad: link.DPadLeft, Mode: link.ModeHold, Repeat: 1},
	}
	data, err := EncodeMessage(NewSequence(entries), 7)
	require.NoError(t, err)
	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	decoded, err := msg.(*Sequence).LinkEntries()
	require.NoError(t, err)
	require.Equal(t, entries, decoded)

	_, err = (&Sequence{Entries: []*SequenceEntry{{DPad: 8, Repeat: 2048}}}).LinkEntries()
	require.Error(t, err)
	_, err = (&Sequence{Entries: []*SequenceEntry{{DPad: 9, Repeat: 1}}}).LinkEntries()
	require.Error(t, err)
}

func TestCommandErrFault(t *testing.T) {
	err := fmt.Errorf("press: %w", &link.Fault{Code: link.FaultTransferByte})
	m := NewCommandErr(err)
	require.Equal(t, uint32(link.FaultTransferByte), m.Fault)
	require.Equal(t, err.Error(), m.Error())
}
