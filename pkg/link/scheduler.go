package link

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// PollsPerCycle is the number of host polls per refresh.
const PollsPerCycle = 5

// IdlePolicy decides whether an empty buffer is acceptable when the held
// frame is not neutral.
type IdlePolicy int

const (
	// IdleTolerated keeps repeating the held frame.
	IdleTolerated IdlePolicy = iota
	// IdleIsFault panics with FaultMissedCycle.
	IdleIsFault
)

// String implements fmt.Stringer.
func (p IdlePolicy) String() string {
	if p == IdleIsFault {
		return "fault"
	}
	return "tolerate"
}

// ParseIdlePolicy parses "tolerate" or "fault".
func ParseIdlePolicy(s string) (IdlePolicy, error) {
	switch s {
	case "", "tolerate", "tolerated":
		return IdleTolerated, nil
	case "fault":
		return IdleIsFault, nil
	}
	return IdleTolerated, fmt.Errorf("unknown idle policy %q", s)
}

// ReportWriter accepts HID IN reports.
type ReportWriter interface {
	WriteReport(Report) error
}

// ReportWriterFunc is the func form of ReportWriter.
type ReportWriterFunc func(Report) error

// WriteReport implements ReportWriter.
func (f ReportWriterFunc) WriteReport(r Report) error {
	return f(r)
}

// Scheduler paces frames from the Receiver to the host polls.
type Scheduler struct {
	Receiver      *Receiver
	Monitor       *Monitor
	Serial        Serial
	Waiter        Waiter
	LEDs          LEDSetter
	IdlePolicy    IdlePolicy
	PollsPerCycle int

	held      Frame
	sendCount int
	prevCount int
	refreshes uint64
	lock      sync.RWMutex
}

// NewScheduler creates a Scheduler for the receiver. The receiver's serial
// link and monitor are shared.
func NewScheduler(r *Receiver, leds LEDSetter) *Scheduler {
	s := &Scheduler{
		Receiver:      r,
		Monitor:       r.Monitor,
		Serial:        r.Serial,
		Waiter:        r.Waiter,
		LEDs:          leds,
		PollsPerCycle: PollsPerCycle,
		held:          NeutralFrame,
	}
	// a fault latched by any component releases the held state at once,
	// so a resync before the next poll can't resume it.
	s.Monitor.Watch(PanickedFunc(func(FaultCode) {
		s.lock.Lock()
		s.held = NeutralFrame
		s.lock.Unlock()
	}))
	return s
}

// Held returns the frame currently reported to the host.
func (s *Scheduler) Held() Frame {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.held
}

// Refreshes returns the number of frames consumed.
func (s *Scheduler) Refreshes() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.refreshes
}

// Report returns the report for the next poll. Once panicked the neutral
// report is sent.
func (s *Scheduler) Report() Report {
	if s.Monitor.Panicked() {
		return NeutralFrame.Report()
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.held.Report()
}

// Refresh pulls a complete frame from the receiver if available and checks
// the peer keeps up. It returns true when a frame was consumed and the peer
// must be told it can send the next one.
func (s *Scheduler) Refresh() (bool, error) {
	if s.Monitor.Panicked() {
		return false, nil
	}
	buf, count := s.Receiver.snapshot()
	s.lock.Lock()
	notify, code := s.refreshLocked(buf, count)
	s.lock.Unlock()
	if code != FaultNone {
		return false, s.Monitor.Panic(code)
	}
	return notify, nil
}

func (s *Scheduler) refreshLocked(buf [FrameSize]byte, count int) (bool, FaultCode) {
	prevCount := s.prevCount
	s.prevCount = count

	if count == FrameSize {
		fr, err := DecodeFrame(buf[:])
		if err != nil {
			glog.Warningf("invalid frame % x: %v", buf, err)
			return false, FaultBadMagic
		}
		if s.LEDs != nil {
			s.LEDs.SetLEDs(fr.LEDs)
		}
		s.held = fr
		s.refreshes++
		s.Receiver.Clear()
		// the buffer is consumed.
		s.prevCount = 0
		if glog.V(4) {
			glog.Infof("RCV %s", fr)
		}
		return true, FaultNone
	}

	if !s.held.IsNeutral() {
		if count != 0 {
			return false, FaultSlowPeer
		}
		if s.IdlePolicy == IdleIsFault {
			return false, FaultMissedCycle
		}
		return false, FaultNone
	}

	if count != 0 && count == prevCount {
		return false, FaultStalled
	}
	return false, FaultNone
}

// Poll handles one host IN poll: refreshes once per cycle, writes the report
// and notifies the peer if a frame was consumed. A fault is returned after
// the report is written.
func (s *Scheduler) Poll(w ReportWriter) error {
	s.lock.Lock()
	refresh := s.sendCount == 0
	s.sendCount++
	polls := s.PollsPerCycle
	if polls <= 0 {
		polls = PollsPerCycle
	}
	if s.sendCount >= polls {
		s.sendCount = 0
	}
	s.lock.Unlock()

	var notify bool
	var fault error
	if refresh {
		notify, fault = s.Refresh()
	}
	if err := w.WriteReport(s.Report()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if notify {
		if err := s.Waiter.WriteByteWhenReady(s.Serial, ReadyForData); err != nil {
			return fmt.Errorf("write ready: %w", err)
		}
	}
	return fault
}
