package automation

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/swbridge.go/pkg/framework"
)

// ScriptRunner executes one step of a script per Step call, so the script
// can share a framework.Loop with remote commands.
type ScriptRunner struct {
	Script     *Script
	Controller *Controller

	pos    int
	rounds int
	lock   sync.Mutex
}

// NewScriptRunner creates a ScriptRunner.
func NewScriptRunner(s *Script, c *Controller) *ScriptRunner {
	return &ScriptRunner{Script: s, Controller: c}
}

// Position returns the index of the next step and completed rounds.
func (r *ScriptRunner) Position() (pos, rounds int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.pos, r.rounds
}

// Step implements framework.Stepper. It returns framework.ErrStopLoop
// after the last step unless the script loops.
func (r *ScriptRunner) Step() error {
	r.lock.Lock()
	if r.pos >= len(r.Script.Steps) {
		if !r.Script.Loop {
			r.lock.Unlock()
			return framework.ErrStopLoop
		}
		r.pos = 0
	}
	n := r.pos
	step := r.Script.Steps[n]
	r.pos++
	if r.pos >= len(r.Script.Steps) {
		r.rounds++
	}
	r.lock.Unlock()

	glog.V(2).Infof("script %s: step %d: %s", r.Script.Name, n, step.Kind)
	if err := step.Exec(r.Controller); err != nil {
		return fmt.Errorf("script %s step %d (%s): %w", r.Script.Name, n, step.Kind, err)
	}
	return nil
}

// Run runs all steps of the script once, or forever if it loops.
func (r *ScriptRunner) Run() error {
	for {
		if err := r.Step(); err != nil {
			if err == framework.ErrStopLoop {
				return nil
			}
			return err
		}
	}
}
