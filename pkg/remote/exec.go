// Package remote executes bridge commands on the goroutine owning the link.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/automation"
	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/remote/mqtt"
	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

// ErrTimeout indicates no reply arrived in time.
var ErrTimeout = errors.New("command timeout")

// StatusPublisher publishes status events.
type StatusPublisher interface {
	PublishStatus(*msgs.LinkStatus) error
}

// Executor executes command messages with a controller. It must be used
// from the goroutine owning the controller, as the MessageHandler of a
// framework.Loop.
type Executor struct {
	ID         string
	Controller *automation.Controller
	// Publisher receives a status event after every command, optional.
	Publisher StatusPublisher

	script string
}

// NewExecutor creates an Executor.
func NewExecutor(id string, c *automation.Controller) *Executor {
	return &Executor{ID: id, Controller: c}
}

// Status returns the current status.
func (e *Executor) Status() *msgs.LinkStatus {
	framer := e.Controller.Framer
	status := &msgs.LinkStatus{
		ID:         e.ID,
		State:      framer.State().String(),
		FramesSent: framer.FramesSent(),
		Script:     e.script,
	}
	if code := framer.Monitor.Code(); code != link.FaultNone {
		status.Fault, status.FaultName = uint32(code), code.String()
	}
	if count, err := e.Controller.ResetCount(); err == nil {
		status.ResetCount = count
	}
	return status
}

// PublishStatus publishes the current status if a Publisher is set.
func (e *Executor) PublishStatus() {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.PublishStatus(e.Status()); err != nil {
		glog.Errorf("publish status: %v", err)
	}
}

// SetScript records the name of the running script for status.
func (e *Executor) SetScript(name string) {
	e.script = name
}

// Exec executes a command and returns the reply.
func (e *Executor) Exec(msg msgs.SerializableMessage) msgs.SerializableMessage {
	reply, err := e.exec(msg)
	if err != nil {
		glog.Warningf("command %T failed: %v", msg, err)
		return msgs.NewCommandErr(err)
	}
	if reply == nil {
		return &msgs.CommandOK{}
	}
	return reply
}

func (e *Executor) exec(msg msgs.SerializableMessage) (msgs.SerializableMessage, error) {
	c := e.Controller
	switch m := msg.(type) {
	case *msgs.Init:
		result, err := c.Init()
		if err != nil {
			return nil, err
		}
		return &msgs.StatusReply{Status: e.Status(), Sync: result.String()}, nil
	case *msgs.StatusQuery:
		return &msgs.StatusReply{Status: e.Status()}, nil
	case *msgs.Press:
		fr, err := m.Frame()
		if err != nil {
			return nil, err
		}
		return nil, c.Send(fr)
	case *msgs.Sequence:
		entries, err := m.LinkEntries()
		if err != nil {
			return nil, err
		}
		return nil, c.SendSequence(entries)
	case *msgs.SetLEDs:
		if m.LEDs > uint32(link.LEDsBoth) {
			return nil, fmt.Errorf("invalid LEDs %d", m.LEDs)
		}
		c.SetLEDs(link.LEDs(m.LEDs))
		return nil, c.SendCurrent()
	case *msgs.Pause:
		return nil, c.Pause()
	case *msgs.Wait:
		return nil, c.Wait(time.Duration(m.Millis) * time.Millisecond)
	case *msgs.RunScript:
		script, err := automation.LoadScriptFile(m.Path)
		if err != nil {
			return nil, err
		}
		if script.Loop {
			return nil, fmt.Errorf("script %s loops forever", script.Name)
		}
		e.script = script.Name
		defer func() { e.script = "" }()
		return nil, automation.NewScriptRunner(script, c).Run()
	case *msgs.CounterQuery:
		var count uint32
		var err error
		switch {
		case m.Zero:
			if err = c.ZeroResets(); err == nil {
				count, err = c.ResetCount()
			}
		case m.Increment:
			count, err = c.CountReset()
		default:
			count, err = c.ResetCount()
		}
		if err != nil {
			return nil, err
		}
		return &msgs.CounterValue{Count: count}, nil
	}
	return nil, msgs.ErrUnsupportedCommand
}

// Request is a command posted to the loop in-process.
type Request struct {
	Msg   msgs.SerializableMessage
	reply chan msgs.SerializableMessage
}

// NewRequest creates a Request.
func NewRequest(msg msgs.SerializableMessage) *Request {
	return &Request{Msg: msg, reply: make(chan msgs.SerializableMessage, 1)}
}

// Reply returns the channel receiving the reply.
func (r *Request) Reply() <-chan msgs.SerializableMessage {
	return r.reply
}

// HandleMessage implements framework.MessageHandler, accepting *Request and
// *mqtt.Command.
func (e *Executor) HandleMessage(ctx context.Context, msg framework.Message) {
	switch m := msg.(type) {
	case *Request:
		m.reply <- e.Exec(m.Msg)
	case *mqtt.Command:
		if err := m.Done(e.Exec(m.Msg)); err != nil {
			glog.Errorf("reply command %d: %v", m.Sequence, err)
		}
	default:
		glog.Warningf("unknown message %T", msg)
		return
	}
	e.PublishStatus()
}

// LocalConn sends commands to an Executor running in a loop of the same
// process.
type LocalConn struct {
	Loop    *framework.Loop
	Timeout time.Duration
}

// DefaultLocalTimeout bounds commands sent over LocalConn.
const DefaultLocalTimeout = time.Minute

// Do posts the command to the loop and waits for the reply. A CommandErr
// reply is returned as the error.
func (c *LocalConn) Do(ctx context.Context, msg msgs.SerializableMessage) (msgs.SerializableMessage, error) {
	req := NewRequest(msg)
	c.Loop.PostMessage(req)
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultLocalTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply := <-req.Reply():
		if cmdErr, ok := reply.(*msgs.CommandErr); ok {
			return reply, cmdErr
		}
		return reply, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
