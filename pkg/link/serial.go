package link

import (
	"time"
)

// Control bytes sent outside of frames.
const (
	// InitSync is sent by the USB interface once after it boots.
	InitSync byte = 'I'
	// ReadyForData is sent by the USB interface when it can take a frame.
	ReadyForData byte = 'R'
	// ResyncAck is sent by the USB interface to acknowledge a resync query.
	ResyncAck byte = 'S'
	// ResyncQuery is sent repeatedly by the main controller to resync.
	ResyncQuery byte = 0x00
)

// Link timings.
const (
	// BaudRate of the serial link, 8N1.
	BaudRate = 9600
	// BootWait is how long the main controller waits for InitSync.
	BootWait = 12 * time.Millisecond
	// PeerBootDelay is how long the USB interface waits before sending InitSync.
	PeerBootDelay = 11 * time.Millisecond
	// ResyncWait is how long the main controller waits for ResyncAck after
	// each ResyncQuery.
	ResyncWait = 5 * time.Millisecond
	// ResyncTries bounds the number of ResyncQuery bytes. A receiver holding
	// an empty buffer gets full after FrameSize-1 bytes and acknowledges the
	// next one.
	ResyncTries = FrameSize
	// PollInterval is the default interval between predicate checks in busy waits.
	PollInterval = 100 * time.Microsecond
	// Forever disables the timeout of Waiter.Until.
	Forever time.Duration = -1
)

// Serial is one end of the serial channel, modeled after a UART with
// receive-complete and transmit-empty flags.
type Serial interface {
	// Received indicates a byte is available for ReadByte.
	Received() bool
	// ReadByte reads the next received byte.
	ReadByte() (byte, error)
	// TxReady indicates WriteByte can accept a byte.
	TxReady() bool
	// WriteByte transmits a byte.
	WriteByte(byte) error
}

// Clock provides delays for busy waits.
type Clock interface {
	Sleep(time.Duration)
}

// SystemClock implements Clock using time.Sleep.
type SystemClock struct{}

// Sleep implements Clock.
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Waiter polls hardware-ready predicates.
type Waiter struct {
	Clock    Clock
	Interval time.Duration
}

// DefaultWaiter polls with the system clock.
var DefaultWaiter = Waiter{Clock: SystemClock{}, Interval: PollInterval}

// Until polls ready until it returns true or timeout elapses.
// Timeout Forever waits without limit.
func (w Waiter) Until(ready func() bool, timeout time.Duration) bool {
	interval := w.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	for elapsed := time.Duration(0); ; elapsed += interval {
		if ready() {
			return true
		}
		if timeout >= 0 && elapsed >= timeout {
			return false
		}
		w.sleep(interval)
	}
}

// Sleep blocks for the duration.
func (w Waiter) Sleep(d time.Duration) {
	if d > 0 {
		w.sleep(d)
	}
}

func (w Waiter) sleep(d time.Duration) {
	if w.Clock == nil {
		time.Sleep(d)
		return
	}
	w.Clock.Sleep(d)
}

// WriteByteWhenReady waits for the transmit buffer then writes the byte.
func (w Waiter) WriteByteWhenReady(s Serial, b byte) error {
	w.Until(s.TxReady, Forever)
	return s.WriteByte(b)
}

// LEDSetter controls LEDs on a board.
type LEDSetter interface {
	SetLEDs(LEDs)
}

// LEDSetterFunc is the func form of LEDSetter.
type LEDSetterFunc func(LEDs)

// SetLEDs implements LEDSetter.
func (f LEDSetterFunc) SetLEDs(l LEDs) {
	f(l)
}
