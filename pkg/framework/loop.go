package framework

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
)

// ErrStopLoop is returned by a Stepper to stop the loop without error.
var ErrStopLoop = errors.New("stop loop")

// DefaultLoopInterval matches the cycle of the USB interface.
const DefaultLoopInterval = 40 * time.Millisecond

// Loop runs steppers in turn in a single goroutine, the way firmware runs
// its main loop. Messages posted from other goroutines are handled between
// iterations.
type Loop struct {
	// Interval between iterations, 0 runs iterations back to back.
	Interval time.Duration
	Handler  MessageHandler

	steppers []namedStepper
	runners  []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

type namedStepper struct {
	Stepper
	name string
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail, src.head, src.tail = src.head, src.tail, nil, nil
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{wakeUpCh: make(chan struct{}, 1)}
}

// Add registers a stepper.
func (l *Loop) Add(name string, s Stepper) *Loop {
	l.steppers = append(l.steppers, namedStepper{Stepper: s, name: name})
	if runner, ok := s.(Runnable); ok {
		l.runners = append(l.runners, NamedRun(name, runner))
	}
	return l
}

// AddRunnable adds background runners living as long as the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// PostMessage enqueues the message for the next iteration.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
	l.TriggerNext()
}

// TriggerNext runs the next iteration without waiting for Interval.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Iterate runs one iteration: pending messages then every stepper once.
func (l *Loop) Iterate(ctx context.Context) error {
	var msgs messageList
	l.lock.Lock()
	msgs.splice(&l.messages)
	l.lock.Unlock()
	for item := msgs.head; item != nil; item = item.next {
		if l.Handler != nil {
			l.Handler.HandleMessage(ctx, item.msg)
		} else {
			glog.Warningf("loop: message dropped: %T", item.msg)
		}
	}
	for _, s := range l.steppers {
		if err := s.Step(); err != nil {
			if err == ErrStopLoop {
				return err
			}
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// Run implements Runnable. Runnables added to the loop live as long as the
// loop, and the loop stops when one of them fails.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runner := NewRunnerWith(ctx)
	runner.StopOnError = true
	runner.Go(l.runners...)
	err := l.run(runner.Context)
	runner.Stop()
	if runErr := runner.Wait(); runErr != nil && ctx.Err() == nil &&
		(err == nil || errors.Is(err, context.Canceled)) {
		return runErr
	}
	return err
}

func (l *Loop) run(ctx context.Context) error {
	var timer *time.Ticker
	if l.Interval > 0 {
		timer = time.NewTicker(l.Interval)
		defer timer.Stop()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := l.Iterate(ctx); err != nil {
			if err == ErrStopLoop {
				return nil
			}
			return err
		}
		if timer == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		case <-l.wakeUpCh:
		}
	}
}
