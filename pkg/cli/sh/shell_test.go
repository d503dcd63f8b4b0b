package sh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

func TestParsePress(t *testing.T) {
	m, err := ParsePress([]string{"A+B", "up", "left", "up-right"})
	require.NoError(t, err)
	fr, err := m.Frame()
	require.NoError(t, err)
	require.Equal(t, link.Frame{
		Buttons: link.ButtonA | link.ButtonB,
		DPad:    link.DPadUp,
		Left:    link.StickLeft,
		Right:   link.StickUpRight,
	}, fr)

	m, err = ParsePress([]string{"none"})
	require.NoError(t, err)
	fr, err = m.Frame()
	require.NoError(t, err)
	require.True(t, fr.IsNeutral())

	_, err = ParsePress([]string{"A", "sideways"})
	require.Error(t, err)
	_, err = ParsePress([]string{"A", "up", "left", "right", "more"})
	require.Error(t, err)
}

func TestParseSequence(t *testing.T) {
	m, err := ParseSequence([]string{"A~2", "none*10"})
	require.NoError(t, err)
	entries, err := m.LinkEntries()
	require.NoError(t, err)
	require.Equal(t, []link.SequenceEntry{
		{Buttons: link.ButtonA, DPad: link.DPadNeutral, Mode: link.ModeMash, Repeat: 2},
		{Buttons: link.ButtonNone, DPad: link.DPadNeutral, Mode: link.ModeHold, Repeat: 10},
	}, entries)

	_, err = ParseSequence(nil)
	require.Error(t, err)
	_, err = ParseSequence([]string{"A*9999"})
	require.Error(t, err)
}

func TestParseWait(t *testing.T) {
	testCases := []struct {
		arg    string
		millis uint32
	}{
		{"250", 250},
		{"2s", 2000},
		{"1m30s", 90000},
	}
	for _, tc := range testCases {
		t.Run(tc.arg, func(t *testing.T) {
			m, err := ParseWait(tc.arg)
			require.NoError(t, err)
			require.Equal(t, tc.millis, m.Millis)
		})
	}
	_, err := ParseWait("soon")
	require.Error(t, err)
	_, err = ParseWait("-1s")
	require.Error(t, err)
}

func TestFormatReply(t *testing.T) {
	out, err := FormatReply(&msgs.CommandOK{}, false)
	require.NoError(t, err)
	require.Equal(t, "OK", out)

	out, err = FormatReply(&msgs.CounterValue{Count: 3}, false)
	require.NoError(t, err)
	require.Contains(t, out, "CounterValue ")
	require.Contains(t, out, "count:3")

	out, err = FormatReply(&msgs.CounterValue{Count: 3}, true)
	require.NoError(t, err)
	require.Equal(t, `{"count":3}`, out)
}

type fakeConn struct {
	sent  []msgs.SerializableMessage
	reply msgs.SerializableMessage
	err   error
}

func (c *fakeConn) Do(ctx context.Context, msg msgs.SerializableMessage) (msgs.SerializableMessage, error) {
	c.sent = append(c.sent, msg)
	return c.reply, c.err
}

func TestShellDo(t *testing.T) {
	conn := &fakeConn{reply: &msgs.CommandOK{}}
	s := &Shell{Conn: conn, Timeout: time.Second}
	out, err := s.Do(&msgs.Pause{})
	require.NoError(t, err)
	require.Equal(t, "OK", out)
	require.Equal(t, []msgs.SerializableMessage{&msgs.Pause{}}, conn.sent)

	conn.err = errors.New("offline")
	_, err = s.Do(&msgs.Pause{})
	require.EqualError(t, err, "offline")
}
