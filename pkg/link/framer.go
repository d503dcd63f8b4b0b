package link

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Framer is the sending side of the link on the main controller.
// It holds the pending frame and performs the handshake with the USB
// interface. It's not safe for concurrent sends; State, Frame and
// FramesSent can be read from other goroutines.
type Framer struct {
	Serial  Serial
	Waiter  Waiter
	Monitor *Monitor

	BootWait    time.Duration
	ResyncWait  time.Duration
	ResyncTries int

	frame  Frame
	state  SessionState
	frames uint64
	lock   sync.RWMutex
}

// NewFramer creates a Framer with default timings.
func NewFramer(s Serial) *Framer {
	return &Framer{
		Serial:      s,
		Waiter:      DefaultWaiter,
		Monitor:     NewMonitor("main"),
		BootWait:    BootWait,
		ResyncWait:  ResyncWait,
		ResyncTries: ResyncTries,
		frame:       NeutralFrame,
	}
}

// State gets the session state.
func (f *Framer) State() SessionState {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.state
}

// Frame gets the pending frame.
func (f *Framer) Frame() Frame {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.frame
}

// FramesSent returns the number of frames transmitted.
func (f *Framer) FramesSent() uint64 {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.frames
}

// Init performs the startup handshake.
func (f *Framer) Init() (SyncResult, error) {
	if err := f.Monitor.Err(); err != nil {
		return 0, err
	}
	f.lock.Lock()
	f.frame = NeutralFrame
	f.lock.Unlock()
	f.setState(StateUnsynchronized)

	if f.Waiter.Until(f.Serial.Received, f.BootWait) {
		b, err := f.Serial.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("read sync byte: %w", err)
		}
		switch b {
		case InitSync:
			glog.V(2).Info("initial sync received")
			f.setState(StateAwaitingReady)
			return FreshConnect, nil
		case ReadyForData:
			// the USB interface was already running, it's waiting for a frame
			// and its buffer may hold a partial one.
			glog.V(2).Info("ready received at boot, resync")
		default:
			glog.Warningf("unexpected byte at boot: 0x%02x", b)
			return 0, f.panic(FaultBootByte)
		}
	}

	for tries := 0; tries < f.ResyncTries; tries++ {
		if err := f.Waiter.WriteByteWhenReady(f.Serial, ResyncQuery); err != nil {
			return 0, fmt.Errorf("write resync query: %w", err)
		}
		if !f.Waiter.Until(f.Serial.Received, f.ResyncWait) {
			// receive buffer of the USB interface may not be full yet.
			continue
		}
		b, err := f.Serial.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("read resync ack: %w", err)
		}
		if b != ResyncAck {
			glog.Warningf("unexpected byte during resync: 0x%02x", b)
			return 0, f.panic(FaultResyncByte)
		}
		glog.V(2).Infof("resynced after %d queries", tries+1)
		f.setState(StateAwaitingReady)
		return Resynced, nil
	}
	return 0, f.panic(FaultResyncExhausted)
}

// SetLEDs sets the LED state sent with the next frame.
func (f *Framer) SetLEDs(leds LEDs) {
	f.lock.Lock()
	f.frame.LEDs = leds & LEDsBoth
	f.lock.Unlock()
}

// Send updates the controller state and sends it.
func (f *Framer) Send(buttons Buttons, dpad DPad, left, right Stick) error {
	f.lock.Lock()
	f.frame.Buttons, f.frame.DPad = buttons, dpad
	f.frame.Left, f.frame.Right = left, right
	f.lock.Unlock()
	return f.flush()
}

// SendFrame sends the controller state of fr, keeping the LED state.
func (f *Framer) SendFrame(fr Frame) error {
	return f.Send(fr.Buttons, fr.DPad, fr.Left, fr.Right)
}

// SendCurrent sends the pending frame again, e.g. after SetLEDs.
func (f *Framer) SendCurrent() error {
	return f.flush()
}

// Pause sends a released, centered state. It must be sent before not
// sending frames for longer than a cycle.
func (f *Framer) Pause() error {
	return f.Send(ButtonNone, DPadNeutral, StickNeutral, StickNeutral)
}

// SendSequence sends the entries in order. Sticks keep their state.
// Entries are validated before anything is sent, an invalid entry is a
// programming error and panics.
func (f *Framer) SendSequence(entries []SequenceEntry) error {
	if err := ValidateSequence(entries); err != nil {
		panic(err)
	}
	for _, entry := range entries {
		for n := entry.Repeat; n > 0; n-- {
			f.lock.Lock()
			f.frame.Buttons, f.frame.DPad = entry.Buttons, entry.DPad
			f.lock.Unlock()
			if err := f.flush(); err != nil {
				return err
			}
			if entry.Mode == ModeMash {
				f.lock.Lock()
				f.frame.Buttons, f.frame.DPad = ButtonNone, DPadNeutral
				f.lock.Unlock()
				if err := f.flush(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (f *Framer) flush() error {
	if err := f.Monitor.Err(); err != nil {
		return err
	}
	f.setState(StateAwaitingReady)
	f.Waiter.Until(f.Serial.Received, Forever)
	b, err := f.Serial.ReadByte()
	if err != nil {
		return fmt.Errorf("read ready: %w", err)
	}
	if b != ReadyForData {
		glog.Warningf("unexpected byte during transfer: 0x%02x", b)
		return f.panic(FaultTransferByte)
	}
	f.setState(StateSynchronized)

	f.lock.RLock()
	fr := f.frame
	f.lock.RUnlock()
	data := fr.Bytes()
	for n, c := range data {
		if err := f.Waiter.WriteByteWhenReady(f.Serial, c); err != nil {
			return fmt.Errorf("write frame byte %d: %w", n, err)
		}
	}
	if glog.V(4) {
		glog.Infof("SND %s", fr)
	}

	f.lock.Lock()
	f.frames++
	f.state = StateAwaitingReady
	f.lock.Unlock()
	return nil
}

func (f *Framer) setState(state SessionState) {
	f.lock.Lock()
	f.state = state
	f.lock.Unlock()
}

func (f *Framer) panic(code FaultCode) error {
	f.setState(StatePanicked)
	return f.Monitor.Panic(code)
}
