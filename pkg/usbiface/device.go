// Package usbiface implements the USB interface side of the bridge: it
// receives frames from the main controller and reports them to the host as
// a HID joystick.
package usbiface

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/link"
)

// HIDEndpoint is the joystick interface of the USB device.
type HIDEndpoint interface {
	link.ReportWriter
	// Configured indicates the host has configured the device.
	Configured() bool
	// OutReceived indicates an OUT report from the host is pending.
	OutReceived() bool
	// ReadOutReport reads the pending OUT report.
	ReadOutReport() ([]byte, error)
	// InReady indicates the host is polling an IN report.
	InReady() bool
}

// Poller produces an IN report per host poll.
type Poller interface {
	Poll(link.ReportWriter) error
}

// Device is the main loop of the USB interface.
type Device struct {
	Serial    link.Serial
	HID       HIDEndpoint
	LEDs      link.LEDSetter
	Waiter    link.Waiter
	Monitor   *link.Monitor
	Receiver  *link.Receiver
	Scheduler *link.Scheduler
	// Poller defaults to Scheduler, replace it to run a Replay.
	Poller    Poller
	BootDelay time.Duration

	blinking bool
}

// NewDevice creates a Device relaying frames from the serial link.
func NewDevice(s link.Serial, hid HIDEndpoint, leds link.LEDSetter) *Device {
	if leds == nil {
		leds = link.LEDSetterFunc(func(link.LEDs) {})
	}
	d := &Device{
		Serial:    s,
		HID:       hid,
		LEDs:      leds,
		Waiter:    link.DefaultWaiter,
		Monitor:   link.NewMonitor("usb"),
		BootDelay: link.PeerBootDelay,
	}
	d.Receiver = link.NewReceiver(s, d.Monitor)
	d.Scheduler = link.NewScheduler(d.Receiver, leds)
	d.Poller = d.Scheduler
	return d
}

// SetWaiter sets the Waiter of the device and its link components.
func (d *Device) SetWaiter(w link.Waiter) {
	d.Waiter = w
	d.Receiver.Waiter = w
	d.Scheduler.Waiter = w
}

// Boot announces the device to the main controller.
func (d *Device) Boot() error {
	d.Waiter.Sleep(d.BootDelay)
	if err := d.Waiter.WriteByteWhenReady(d.Serial, link.InitSync); err != nil {
		return fmt.Errorf("write initial sync: %w", err)
	}
	glog.V(2).Info("usb: initial sync sent")
	return nil
}

// Step runs one iteration of the loop. Link faults are latched in Monitor
// and presented by blinking, only transport errors are returned.
func (d *Device) Step() error {
	if err := d.Receiver.Drain(); err != nil && !link.IsFault(err) {
		return err
	}
	if d.HID.Configured() {
		if d.HID.OutReceived() {
			if _, err := d.HID.ReadOutReport(); err != nil {
				return fmt.Errorf("read OUT report: %w", err)
			}
		}
		if d.HID.InReady() {
			if err := d.Poller.Poll(d.HID); err != nil && !link.IsFault(err) {
				return err
			}
		}
	}
	d.blink()
	return nil
}

func (d *Device) blink() {
	if !d.Monitor.Panicked() {
		if d.blinking {
			d.blinking = false
			d.LEDs.SetLEDs(link.LEDsNone)
		}
		return
	}
	d.blinking = true
	if d.Monitor.Tick() {
		d.LEDs.SetLEDs(link.LEDsBoth)
	} else {
		d.LEDs.SetLEDs(link.LEDsNone)
	}
}
