// Package automation drives the emulated controller from scripts.
package automation

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/persist"
)

// ErrNoCounter is returned by counter operations without a counter.
var ErrNoCounter = errors.New("no reset counter")

// Controller is the surface scripts use: the link framer and the reset
// counter. It must be used from one goroutine.
type Controller struct {
	Framer  *link.Framer
	Counter *persist.ResetCounter
}

// NewController creates a Controller, counter is optional.
func NewController(f *link.Framer, counter *persist.ResetCounter) *Controller {
	return &Controller{Framer: f, Counter: counter}
}

// Init synchronizes the link with the USB interface.
func (c *Controller) Init() (link.SyncResult, error) {
	result, err := c.Framer.Init()
	if err == nil {
		glog.Infof("link synchronized: %s", result)
	}
	return result, err
}

// SetLEDs sets the LEDs sent with the next frame.
func (c *Controller) SetLEDs(leds link.LEDs) {
	c.Framer.SetLEDs(leds)
}

// Send sends a controller state.
func (c *Controller) Send(fr link.Frame) error {
	return c.Framer.SendFrame(fr)
}

// SendCurrent sends the pending frame again.
func (c *Controller) SendCurrent() error {
	return c.Framer.SendCurrent()
}

// SendSequence sends a validated sequence.
func (c *Controller) SendSequence(entries []link.SequenceEntry) error {
	if err := link.ValidateSequence(entries); err != nil {
		return err
	}
	return c.Framer.SendSequence(entries)
}

// Pause releases everything.
func (c *Controller) Pause() error {
	return c.Framer.Pause()
}

// Wait blocks for d. The USB interface expects a frame every cycle unless
// the controller is released, so a held state is released first.
func (c *Controller) Wait(d time.Duration) error {
	if !c.Framer.Frame().IsNeutral() {
		if err := c.Pause(); err != nil {
			return err
		}
	}
	c.Framer.Waiter.Sleep(d)
	return nil
}

// ResetCount returns the reset count.
func (c *Controller) ResetCount() (uint32, error) {
	if c.Counter == nil {
		return 0, ErrNoCounter
	}
	return c.Counter.Count()
}

// CountReset increments the reset count.
func (c *Controller) CountReset() (uint32, error) {
	if c.Counter == nil {
		return 0, ErrNoCounter
	}
	count, err := c.Counter.Increment()
	if err == nil {
		glog.Infof("reset count: %d", count)
	}
	return count, err
}

// ZeroResets sets the reset count to zero.
func (c *Controller) ZeroResets() error {
	if c.Counter == nil {
		return ErrNoCounter
	}
	glog.Info("reset count zeroed")
	return c.Counter.Zero()
}
