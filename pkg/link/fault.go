package link

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// FaultCode identifies the site of a protocol violation. The value is the
// number of blinks of the panic pattern.
type FaultCode uint8

// Fault codes
const (
	FaultNone FaultCode = iota
	// FaultBootByte is an unexpected byte while waiting for the initial sync.
	FaultBootByte
	// FaultResyncByte is an unexpected byte in reply to a resync query.
	FaultResyncByte
	// FaultResyncExhausted means no reply to any resync query.
	FaultResyncExhausted
	// FaultTransferByte is an unexpected byte while waiting for ready-for-data.
	FaultTransferByte
	// FaultBadMagic is a received frame failing the magic check.
	FaultBadMagic
	// FaultSlowPeer means a partial frame when a refresh was due while
	// holding a non-neutral state.
	FaultSlowPeer
	// FaultStalled means no progress on a partial frame for a full cycle.
	FaultStalled
	// FaultOverrun is a byte received while the frame buffer was full.
	FaultOverrun
	// FaultMissedCycle means no frame at all while holding a non-neutral
	// state, only raised with IdleIsFault.
	FaultMissedCycle
)

var faultNames = map[FaultCode]string{
	FaultNone:            "none",
	FaultBootByte:        "unexpected byte at boot",
	FaultResyncByte:      "unexpected byte during resync",
	FaultResyncExhausted: "resync retries exhausted",
	FaultTransferByte:    "unexpected byte during transfer",
	FaultBadMagic:        "bad magic",
	FaultSlowPeer:        "slow peer",
	FaultStalled:         "stalled transfer",
	FaultOverrun:         "buffer overrun",
	FaultMissedCycle:     "missed cycle",
}

// String implements fmt.Stringer.
func (c FaultCode) String() string {
	if name, ok := faultNames[c]; ok {
		return name
	}
	return fmt.Sprintf("fault %d", uint8(c))
}

// Fault is the error reported once a side panicked.
type Fault struct {
	Code FaultCode
}

// Error implements error.
func (e *Fault) Error() string {
	return fmt.Sprintf("link panic %d: %s", e.Code, e.Code)
}

// IsFault indicates err is or wraps a *Fault.
func IsFault(err error) bool {
	var fault *Fault
	return errors.As(err, &fault)
}

// PanicNotifier is called when a fault is latched.
type PanicNotifier interface {
	Panicked(FaultCode)
}

// PanickedFunc is func type of PanicNotifier.
type PanickedFunc func(FaultCode)

// Panicked implements PanicNotifier.
func (f PanickedFunc) Panicked(code FaultCode) {
	f(code)
}

// Blink pattern
const (
	// BlinkPauseFrames is the number of off frames after the blinks.
	BlinkPauseFrames = 4
)

// Monitor latches the first fault and renders the blink pattern.
type Monitor struct {
	// Name is used in logs, e.g. "main" or "usb".
	Name string
	// TicksPerFrame divides the Tick rate, 0 is the same as 1.
	TicksPerFrame uint32
	Notifier      PanicNotifier

	watchers []PanicNotifier
	code     FaultCode
	tick     uint32
	lock     sync.RWMutex
}

// NewMonitor creates a Monitor.
func NewMonitor(name string) *Monitor {
	return &Monitor{Name: name, TicksPerFrame: 1}
}

// Panic latches the fault code. Only the first fault is kept; the returned
// error always carries the latched code.
func (m *Monitor) Panic(code FaultCode) error {
	if code == FaultNone {
		code = FaultBootByte
	}
	m.lock.Lock()
	latched := m.code == FaultNone
	if latched {
		m.code, m.tick = code, 0
	}
	current := m.code
	notifiers := append([]PanicNotifier(nil), m.watchers...)
	if m.Notifier != nil {
		notifiers = append(notifiers, m.Notifier)
	}
	m.lock.Unlock()

	if latched {
		glog.Errorf("%s: panic %d: %s", m.Name, code, code)
		for _, n := range notifiers {
			n.Panicked(code)
		}
	} else if code != current {
		glog.V(2).Infof("%s: ignored fault %d, already panicked with %d", m.Name, code, current)
	}
	return &Fault{Code: current}
}

// Watch registers a notifier called when a fault is latched, before
// Notifier. Link components use it to drop state at the moment of the fault.
func (m *Monitor) Watch(n PanicNotifier) {
	m.lock.Lock()
	m.watchers = append(m.watchers, n)
	m.lock.Unlock()
}

// Code returns the latched code, FaultNone if not panicked.
func (m *Monitor) Code() FaultCode {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.code
}

// Panicked indicates a fault is latched.
func (m *Monitor) Panicked() bool {
	return m.Code() != FaultNone
}

// Err returns the latched fault as an error, nil if not panicked.
func (m *Monitor) Err() error {
	if code := m.Code(); code != FaultNone {
		return &Fault{Code: code}
	}
	return nil
}

// Clear drops the latched fault. It's only used when the peer resyncs.
func (m *Monitor) Clear() {
	m.lock.Lock()
	if m.code != FaultNone {
		glog.Infof("%s: fault %d cleared by resync", m.Name, m.code)
	}
	m.code, m.tick = FaultNone, 0
	m.lock.Unlock()
}

// Tick advances the blink pattern and returns whether the LEDs are on.
// It always returns false when not panicked.
func (m *Monitor) Tick() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.code == FaultNone {
		return false
	}
	div := m.TicksPerFrame
	if div == 0 {
		div = 1
	}
	frame := int(m.tick / div)
	if frame >= BlinkPeriod(m.code) {
		m.tick, frame = 0, 0
	}
	m.tick++
	return BlinkOn(m.code, frame)
}

// BlinkPeriod is the number of frames of one repetition of the pattern.
func BlinkPeriod(code FaultCode) int {
	return 2*int(code) + BlinkPauseFrames
}

// BlinkOn returns the LED state at a frame of the pattern: code on/off
// toggles starting with on, followed by BlinkPauseFrames off frames.
func BlinkOn(code FaultCode, frame int) bool {
	frame %= BlinkPeriod(code)
	return frame < 2*int(code) && frame%2 == 0
}
