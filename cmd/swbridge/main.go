package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/automation"
	"github.com/robotalks/swbridge.go/pkg/env"
	"github.com/robotalks/swbridge.go/pkg/framework"
	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/remote"
	"github.com/robotalks/swbridge.go/pkg/remote/mqtt"
)

var (
	scriptFile string
	loopScript bool
)

func init() {
	env.SetupFlags()
	flag.StringVar(&scriptFile, "script", scriptFile, "Automation script to run")
	flag.BoolVar(&loopScript, "loop", loopScript, "Loop the script")
}

// scriptStepper runs a script step by step in the loop and stays idle once
// the script ends, so remote commands keep being served.
type scriptStepper struct {
	runner *automation.ScriptRunner
	exec   *remote.Executor
	loop   *framework.Loop
	done   bool
}

func (s *scriptStepper) Step() error {
	if s.done {
		return nil
	}
	err := s.runner.Step()
	switch {
	case err == nil:
		s.loop.TriggerNext()
		return nil
	case err == framework.ErrStopLoop:
		glog.Infof("script %s done", s.runner.Script.Name)
	case link.IsFault(err):
		glog.Errorf("script %s stopped: %v", s.runner.Script.Name, err)
	default:
		return err
	}
	s.done = true
	s.exec.SetScript("")
	s.exec.PublishStatus()
	return nil
}

// faultBlinker renders the blink pattern of a latched fault. The host has
// no board LEDs, so the pattern is logged.
type faultBlinker struct {
	monitor *link.Monitor
	on      bool
}

// blinkTicks is the number of loop iterations per blink frame.
const blinkTicks = 5

func (b *faultBlinker) Step() error {
	if !b.monitor.Panicked() {
		return nil
	}
	if on := b.monitor.Tick(); on != b.on {
		b.on = on
		glog.V(1).Infof("fault %d: LEDs %v", b.monitor.Code(), on)
	}
	return nil
}

func main() {
	flag.Parse()

	runner := framework.NewRunner().HandleSignals()
	ctx := runner.Context
	conf := env.NewConfig()
	e := conf.MustNewEnv(ctx)
	defer e.Close()

	exec := remote.NewExecutor(conf.BridgeID(), e.Controller)
	loop := framework.NewLoop()
	loop.Interval = framework.DefaultLoopInterval
	loop.Handler = exec
	e.Framer.Monitor.TicksPerFrame = blinkTicks
	e.Framer.Monitor.Notifier = link.PanickedFunc(func(link.FaultCode) {
		exec.PublishStatus()
	})
	loop.Add("blink", &faultBlinker{monitor: e.Framer.Monitor})
	if e.Bridge != nil {
		exec.Publisher = e.Bridge
		e.Bridge.Handler = mqtt.HandleCommandFunc(func(cmd *mqtt.Command) {
			loop.PostMessage(cmd)
		})
		e.AddToLoop(loop)
	}

	if _, err := e.Controller.Init(); err != nil {
		if !link.IsFault(err) {
			log.Fatalln(err)
		}
		glog.Errorf("link init failed: %v", err)
	} else if e.Counter != nil {
		if _, err := e.Controller.CountReset(); err != nil {
			glog.Errorf("count reset: %v", err)
		}
	}

	if scriptFile != "" && !e.Framer.Monitor.Panicked() {
		script, err := automation.LoadScriptFile(scriptFile)
		if err != nil {
			log.Fatalln(err)
		}
		if loopScript {
			script.Loop = true
		}
		exec.SetScript(script.Name)
		loop.Add("script", &scriptStepper{
			runner: automation.NewScriptRunner(script, e.Controller),
			exec:   exec,
			loop:   loop,
		})
	}
	exec.PublishStatus()

	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}
