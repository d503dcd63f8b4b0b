package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// ErrForcedExit is returned by Wait when stop is requested twice.
var ErrForcedExit = errors.New("forced exit")

// Runner runs Runnables in background goroutines sharing one context and
// collects their errors, each prefixed with the name of the Runnable.
type Runner struct {
	Context context.Context
	Runners []Runnable
	// StopOnError stops all Runnables when one fails.
	StopOnError bool

	cancel context.CancelFunc
	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner derived from ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	ctx, cancel := context.WithCancel(ctx)
	return &Runner{
		Context: ctx,
		cancel:  cancel,
		errCh:   make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals stops the runner on CtrlC or SIGTERM. A second signal makes
// Wait return ErrForcedExit without waiting.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested, interrupt again to force exit")
		r.Stop()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Stop cancels the context of all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// Go spawns Runnables.
func (r *Runner) Go(runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := strconv.Itoa(len(r.Runners))
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.Runners = append(r.Runners, runner)
		go r.run(name, runner)
	}
	return r
}

func (r *Runner) run(name string, runner Runnable) {
	glog.V(4).Infof("Runner[%s] started", name)
	err := runner.Run(r.Context)
	glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%s: %w", name, err)
		if r.StopOnError {
			r.Stop()
		}
	}
	r.errCh <- err
}

// GoFunc spawns a named func.
func (r *Runner) GoFunc(name string, fn func(context.Context) error) *Runner {
	return r.Go(NamedRun(name, RunFunc(fn)))
}

// Wait waits until all Runnables stop and aggregates errors.
// Cancellation is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			if !errors.Is(err, context.Canceled) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't accept a context. onCancel is
// called only when ctx is done before fn returns, and must make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
	}
	<-errCh
	return context.Canceled
}

// RunWithContextCloser runs fn until ctx is done, closer is closed in
// either case.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	canceled := false
	err := RunWithContextCancel(ctx, func() {
		canceled = true
		closer.Close()
	}, fn)
	if !canceled {
		closer.Close()
	}
	return err
}
