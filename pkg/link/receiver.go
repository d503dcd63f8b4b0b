package link

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Receiver accumulates frame bytes on the USB interface side and answers
// resync queries.
type Receiver struct {
	Serial  Serial
	Waiter  Waiter
	Monitor *Monitor

	buf   [FrameSize]byte
	count int
	lock  sync.Mutex
}

// NewReceiver creates a Receiver holding a full neutral frame, so the first
// refresh consumes it and sends ready-for-data.
func NewReceiver(s Serial, m *Monitor) *Receiver {
	r := &Receiver{Serial: s, Waiter: DefaultWaiter, Monitor: m}
	r.Reset()
	return r
}

// Reset fills the buffer with the neutral frame.
func (r *Receiver) Reset() {
	r.lock.Lock()
	r.resetLocked()
	r.lock.Unlock()
}

func (r *Receiver) resetLocked() {
	NeutralFrame.Encode(r.buf[:])
	r.count = FrameSize
}

// HandleByte processes one byte received from the main controller.
func (r *Receiver) HandleByte(b byte) error {
	r.lock.Lock()
	if r.count >= FrameSize-1 && b == ResyncQuery {
		r.resetLocked()
		r.lock.Unlock()
		if err := r.Waiter.WriteByteWhenReady(r.Serial, ResyncAck); err != nil {
			return fmt.Errorf("write resync ack: %w", err)
		}
		r.Monitor.Clear()
		glog.V(2).Info("resync query acknowledged")
		return nil
	}
	if r.count < FrameSize {
		r.buf[r.count] = b
		r.count++
		r.lock.Unlock()
		return nil
	}
	r.lock.Unlock()
	glog.Warningf("byte 0x%02x received with a full buffer", b)
	return r.Monitor.Panic(FaultOverrun)
}

// Drain handles all bytes available on the serial link.
func (r *Receiver) Drain() error {
	for r.Serial.Received() {
		b, err := r.Serial.ReadByte()
		if err != nil {
			return fmt.Errorf("read serial: %w", err)
		}
		if err := r.HandleByte(b); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of buffered bytes.
func (r *Receiver) Count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.count
}

// Full indicates a complete frame is buffered.
func (r *Receiver) Full() bool {
	return r.Count() == FrameSize
}

// Bytes returns a copy of the buffered bytes.
func (r *Receiver) Bytes() []byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]byte(nil), r.buf[:r.count]...)
}

// Clear empties the buffer.
func (r *Receiver) Clear() {
	r.lock.Lock()
	r.buf = [FrameSize]byte{}
	r.count = 0
	r.lock.Unlock()
}

func (r *Receiver) snapshot() (buf [FrameSize]byte, count int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.buf, r.count
}
