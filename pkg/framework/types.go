package framework

import (
	"context"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Stepper is a component of a cooperative loop. Step must not block for
// longer than the component needs to make progress.
type Stepper interface {
	Step() error
}

// StepFunc is the func form of Stepper.
type StepFunc func() error

// Step implements Stepper.
func (f StepFunc) Step() error {
	return f()
}

// Message is posted to a loop from other goroutines and handled in the
// loop goroutine.
type Message interface{}

// MessageHandler processes a message.
type MessageHandler interface {
	HandleMessage(context.Context, Message)
}

// HandleMessageFunc is the func form of MessageHandler.
type HandleMessageFunc func(context.Context, Message)

// HandleMessage implements MessageHandler.
func (f HandleMessageFunc) HandleMessage(ctx context.Context, msg Message) {
	f(ctx, msg)
}
