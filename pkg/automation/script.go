package automation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/swbridge.go/pkg/link"
)

var (
	// ErrUnknownStep is returned decoding a step of unknown kind.
	ErrUnknownStep = errors.New("unknown step")
	// ErrEmptyScript is returned when a script has no steps.
	ErrEmptyScript = errors.New("script has no steps")
)

// Step is an action of a script.
type Step interface {
	Exec(*Controller) error
}

// SetLEDsStep sets the LEDs of the next frame.
type SetLEDsStep struct {
	LEDs link.LEDs
}

// Exec implements Step.
func (s *SetLEDsStep) Exec(c *Controller) error {
	c.SetLEDs(s.LEDs)
	return nil
}

// PressStep sends one frame.
type PressStep struct {
	Frame link.Frame
}

// Exec implements Step.
func (s *PressStep) Exec(c *Controller) error {
	return c.Send(s.Frame)
}

// SequenceStep sends a button sequence.
type SequenceStep struct {
	Entries []link.SequenceEntry
}

// Exec implements Step.
func (s *SequenceStep) Exec(c *Controller) error {
	return c.SendSequence(s.Entries)
}

// WaitStep waits, releasing the controller first if needed.
type WaitStep struct {
	Duration time.Duration
}

// Exec implements Step.
func (s *WaitStep) Exec(c *Controller) error {
	return c.Wait(s.Duration)
}

// PauseStep releases the controller.
type PauseStep struct{}

// Exec implements Step.
func (s *PauseStep) Exec(c *Controller) error {
	return c.Pause()
}

// CountStep updates the reset counter.
type CountStep struct {
	// Zero resets the count instead of incrementing it.
	Zero bool
}

// Exec implements Step.
func (s *CountStep) Exec(c *Controller) error {
	if s.Zero {
		return c.ZeroResets()
	}
	_, err := c.CountReset()
	return err
}

// Script is a named list of steps.
type Script struct {
	Name string `yaml:"name"`
	// Loop restarts the script after the last step.
	Loop  bool       `yaml:"loop"`
	Steps []StepNode `yaml:"steps"`
}

// StepNode decodes a step from a single-key mapping, e.g. "wait: 2s".
type StepNode struct {
	Step
	Kind string
}

type frameYAML struct {
	Buttons link.Buttons `yaml:"buttons"`
	DPad    link.DPad    `yaml:"dpad"`
	Left    link.Stick   `yaml:"left"`
	Right   link.Stick   `yaml:"right"`
}

func (f *frameYAML) UnmarshalYAML(node *yaml.Node) error {
	type plain frameYAML
	p := plain{DPad: link.DPadNeutral, Left: link.StickNeutral, Right: link.StickNeutral}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = frameYAML(p)
	return nil
}

type entryYAML struct {
	Buttons link.Buttons      `yaml:"buttons"`
	DPad    link.DPad         `yaml:"dpad"`
	Mode    link.SequenceMode `yaml:"mode"`
	Repeat  uint16            `yaml:"repeat"`
}

func (e *entryYAML) UnmarshalYAML(node *yaml.Node) error {
	type plain entryYAML
	p := plain{DPad: link.DPadNeutral, Repeat: 1}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = entryYAML(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *StepNode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Value == "pause" {
		n.Kind, n.Step = "pause", &PauseStep{}
		return nil
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: a step must be a single-key mapping", node.Line)
	}
	key, value := node.Content[0], node.Content[1]
	n.Kind = key.Value
	switch key.Value {
	case "leds":
		var leds link.LEDs
		if err := value.Decode(&leds); err != nil {
			return err
		}
		n.Step = &SetLEDsStep{LEDs: leds}
	case "press":
		var fr frameYAML
		if err := value.Decode(&fr); err != nil {
			return err
		}
		if !fr.DPad.IsValid() {
			return fmt.Errorf("line %d: invalid d-pad %d", value.Line, fr.DPad)
		}
		n.Step = &PressStep{Frame: link.Frame{Buttons: fr.Buttons, DPad: fr.DPad, Left: fr.Left, Right: fr.Right}}
	case "sequence":
		var entries []entryYAML
		if err := value.Decode(&entries); err != nil {
			return err
		}
		step := &SequenceStep{}
		for _, e := range entries {
			step.Entries = append(step.Entries, link.SequenceEntry{
				Buttons: e.Buttons,
				DPad:    e.DPad,
				Mode:    e.Mode,
				Repeat:  e.Repeat,
			})
		}
		if err := link.ValidateSequence(step.Entries); err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		n.Step = step
	case "wait":
		var d time.Duration
		if err := value.Decode(&d); err != nil {
			return err
		}
		n.Step = &WaitStep{Duration: d}
	case "pause":
		n.Step = &PauseStep{}
	case "count":
		switch value.Value {
		case "increment", "inc", "":
			n.Step = &CountStep{}
		case "zero":
			n.Step = &CountStep{Zero: true}
		default:
			return fmt.Errorf("line %d: invalid count %q", value.Line, value.Value)
		}
	default:
		return fmt.Errorf("line %d: %w %q", key.Line, ErrUnknownStep, key.Value)
	}
	return nil
}

// LoadScript decodes a YAML script.
func LoadScript(r io.Reader) (*Script, error) {
	var s Script
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, ErrEmptyScript
	}
	return &s, nil
}

// LoadScriptFile decodes a YAML script file.
func LoadScriptFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := LoadScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
