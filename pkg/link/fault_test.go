package link

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonitorFirstFaultWins(t *testing.T) {
	var notified []FaultCode
	m := NewMonitor("test")
	m.Notifier = PanickedFunc(func(code FaultCode) {
		notified = append(notified, code)
	})
	require.NoError(t, m.Err())
	require.False(t, m.Panicked())

	err := m.Panic(FaultSlowPeer)
	require.Equal(t, &Fault{Code: FaultSlowPeer}, err)
	err = m.Panic(FaultOverrun)
	require.Equal(t, &Fault{Code: FaultSlowPeer}, err)
	require.Equal(t, FaultSlowPeer, m.Code())
	require.Equal(t, []FaultCode{FaultSlowPeer}, notified)
	require.Equal(t, "link panic 6: slow peer", m.Err().Error())
}

func TestMonitorZeroPromoted(t *testing.T) {
	m := NewMonitor("test")
	m.Panic(FaultNone)
	require.Equal(t, FaultCode(1), m.Code())
}

func TestMonitorClear(t *testing.T) {
	m := NewMonitor("test")
	m.Panic(FaultOverrun)
	m.Clear()
	require.False(t, m.Panicked())
	require.False(t, m.Tick())
	m.Panic(FaultStalled)
	require.Equal(t, FaultStalled, m.Code())
}

func TestIsFault(t *testing.T) {
	require.True(t, IsFault(&Fault{Code: FaultBadMagic}))
	require.True(t, IsFault(fmt.Errorf("refresh: %w", &Fault{Code: FaultBadMagic})))
	require.False(t, IsFault(fmt.Errorf("other")))
	require.False(t, IsFault(nil))
}

func TestBlinkPattern(t *testing.T) {
	patterns := []struct {
		code     FaultCode
		expected []bool
	}{
		{FaultBootByte, []bool{true, false, false, false, false, false}},
		{FaultResyncByte, []bool{true, false, true, false, false, false, false, false}},
		{FaultBadMagic, []bool{
			true, false, true, false, true, false, true, false, true, false,
			false, false, false, false,
		}},
	}
	for _, p := range patterns {
		require.Equal(t, len(p.expected), BlinkPeriod(p.code))
		m := NewMonitor("test")
		m.Panic(p.code)
		for rep := 0; rep < 3; rep++ {
			for n, on := range p.expected {
				require.Equal(t, on, BlinkOn(p.code, n), "code %d frame %d", p.code, n)
				require.Equal(t, on, m.Tick(), "code %d rep %d frame %d", p.code, rep, n)
			}
		}
	}
}

func TestBlinkTicksPerFrame(t *testing.T) {
	m := NewMonitor("test")
	m.TicksPerFrame = 3
	require.False(t, m.Tick())
	m.Panic(FaultBootByte)
	var ticks []bool
	for n := 0; n < 2*3*BlinkPeriod(FaultBootByte); n++ {
		ticks = append(ticks, m.Tick())
	}
	expected := []bool{
		true, true, true,
		false, false, false,
		false, false, false,
		false, false, false,
		false, false, false,
		false, false, false,
	}
	require.Equal(t, append(expected, expected...), ticks)
}

func TestFaultCodeString(t *testing.T) {
	require.Equal(t, "stalled transfer", FaultStalled.String())
	require.Equal(t, "fault 42", FaultCode(42).String())
}

func TestMonitorWatch(t *testing.T) {
	m := NewMonitor("usb")
	var trace []string
	m.Notifier = PanickedFunc(func(code FaultCode) {
		trace = append(trace, "notifier")
	})
	m.Watch(PanickedFunc(func(code FaultCode) {
		require.Equal(t, FaultOverrun, code)
		trace = append(trace, "watcher")
	}))
	m.Panic(FaultOverrun)
	m.Panic(FaultStalled)
	require.Equal(t, []string{"watcher", "notifier"}, trace)
}
