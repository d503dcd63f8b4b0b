package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopIterate(t *testing.T) {
	var trace []string
	l := NewLoop()
	l.Handler = HandleMessageFunc(func(ctx context.Context, msg Message) {
		trace = append(trace, msg.(string))
	})
	l.Add("a", StepFunc(func() error {
		trace = append(trace, "step-a")
		return nil
	})).Add("b", StepFunc(func() error {
		trace = append(trace, "step-b")
		return nil
	}))

	require.NoError(t, l.Iterate(context.Background()))
	l.PostMessage("msg1")
	l.PostMessage("msg2")
	require.NoError(t, l.Iterate(context.Background()))
	require.NoError(t, l.Iterate(context.Background()))
	require.Equal(t, []string{
		"step-a", "step-b",
		"msg1", "msg2", "step-a", "step-b",
		"step-a", "step-b",
	}, trace)
}

func TestLoopStepError(t *testing.T) {
	failure := errors.New("failure")
	l := NewLoop().Add("bad", StepFunc(func() error {
		return failure
	}))
	err := l.Run(context.Background())
	require.True(t, errors.Is(err, failure))
	require.EqualError(t, err, "bad: failure")
}

func TestLoopStop(t *testing.T) {
	count := 0
	l := NewLoop()
	l.Interval = time.Millisecond
	l.Add("counter", StepFunc(func() error {
		count++
		if count == 3 {
			return ErrStopLoop
		}
		return nil
	}))
	require.NoError(t, l.Run(context.Background()))
	require.Equal(t, 3, count)
}

func TestLoopCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	stopped := make(chan struct{})
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}))
	go func() {
		<-started
		cancel()
	}()
	require.Equal(t, context.Canceled, l.Run(ctx))
	<-stopped
}

func TestLoopRunnableFailure(t *testing.T) {
	failure := errors.New("failure")
	steps := 0
	l := NewLoop()
	l.Interval = time.Millisecond
	l.Add("step", StepFunc(func() error {
		steps++
		return nil
	})).AddRunnable(NamedRun("bridge", RunFunc(func(ctx context.Context) error {
		return failure
	})))
	err := l.Run(context.Background())
	require.EqualError(t, err, "bridge: failure")
	require.True(t, errors.Is(err, failure))
}

func TestRunnerAggregatesErrors(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner().
		GoFunc("ok", func(context.Context) error { return nil }).
		GoFunc("canceled", func(context.Context) error { return context.Canceled }).
		GoFunc("failed", func(context.Context) error { return failure })
	err := r.Wait()
	require.EqualError(t, err, "failed: failure")
	require.True(t, errors.Is(err, failure))

	r = NewRunner().
		GoFunc("a", func(context.Context) error { return failure }).
		GoFunc("b", func(context.Context) error { return failure })
	err = r.Wait()
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 2)
	require.True(t, errors.Is(err, failure))
	require.Contains(t, err.Error(), "2 errors: ")
}

func TestRunnerStopOnError(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner()
	r.StopOnError = true
	r.GoFunc("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}).GoFunc("failed", func(context.Context) error { return failure })
	require.EqualError(t, r.Wait(), "failed: failure")
	require.Error(t, r.Context.Err())
}

func TestRunWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	canceled := false
	go cancel()
	err := RunWithContextCancel(ctx, func() {
		canceled = true
		close(release)
	}, func() error {
		<-release
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.True(t, canceled)
}
