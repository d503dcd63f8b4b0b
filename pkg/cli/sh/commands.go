package sh

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swbridge.go/pkg/link"
	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

// ParsePress parses BUTTONS [DPAD] [LEFT] [RIGHT].
func ParsePress(args []string) (*msgs.Press, error) {
	if len(args) > 4 {
		return nil, fmt.Errorf("too many arguments")
	}
	fr := link.NeutralFrame
	var err error
	if len(args) > 0 {
		if fr.Buttons, err = link.ParseButtons(args[0]); err != nil {
			return nil, err
		}
	}
	if len(args) > 1 {
		if fr.DPad, err = link.ParseDPad(args[1]); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		if fr.Left, err = link.ParseStick(args[2]); err != nil {
			return nil, err
		}
	}
	if len(args) > 3 {
		if fr.Right, err = link.ParseStick(args[3]); err != nil {
			return nil, err
		}
	}
	return msgs.NewPress(fr), nil
}

// ParseSequence parses sequence entries, see link.ParseSequenceEntry.
func ParseSequence(args []string) (*msgs.Sequence, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one entry required")
	}
	entries := make([]link.SequenceEntry, 0, len(args))
	for _, arg := range args {
		entry, err := link.ParseSequenceEntry(arg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return msgs.NewSequence(entries), nil
}

// ParseWait parses a duration like 2s, or milliseconds.
func ParseWait(arg string) (*msgs.Wait, error) {
	if ms, err := strconv.ParseUint(arg, 10, 32); err == nil {
		return &msgs.Wait{Millis: uint32(ms)}, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid duration %q", arg)
	}
	return &msgs.Wait{Millis: uint32(d / time.Millisecond)}, nil
}

func withArgs(min int, fn func(c *ishell.Context) (msgs.SerializableMessage, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if len(c.Args) < min {
			c.Err(fmt.Errorf("usage: %s %s", c.Cmd.Name, c.Cmd.Help))
			return
		}
		msg, err := fn(c)
		if err != nil {
			c.Err(err)
			return
		}
		DoCommand(c, msg)
	}
}

func send(msg msgs.SerializableMessage) func(c *ishell.Context) {
	return withArgs(0, func(*ishell.Context) (msgs.SerializableMessage, error) {
		return msg, nil
	})
}

var (
	// InitCmd synchronizes the link.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "",
		Func: send(&msgs.Init{}),
	}

	// StatusCmd shows the link status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func:    send(&msgs.StatusQuery{}),
	}

	// PressCmd sends one controller state.
	PressCmd = ishell.Cmd{
		Name:    "press",
		Aliases: []string{"p"},
		Help:    "BUTTONS [DPAD] [LEFT] [RIGHT]",
		Func: withArgs(1, func(c *ishell.Context) (msgs.SerializableMessage, error) {
			return ParsePress(c.Args)
		}),
	}

	// SeqCmd sends a sequence.
	SeqCmd = ishell.Cmd{
		Name:    "seq",
		Aliases: []string{"s"},
		Help:    "BUTTONS[@DPAD][*HOLD|~MASH] ...",
		Func: withArgs(1, func(c *ishell.Context) (msgs.SerializableMessage, error) {
			return ParseSequence(c.Args)
		}),
	}

	// LEDsCmd sets the LEDs.
	LEDsCmd = ishell.Cmd{
		Name: "leds",
		Help: "none|tx|rx|both",
		Func: withArgs(1, func(c *ishell.Context) (msgs.SerializableMessage, error) {
			leds, err := link.ParseLEDs(c.Args[0])
			if err != nil {
				return nil, err
			}
			return &msgs.SetLEDs{LEDs: uint32(leds)}, nil
		}),
	}

	// PauseCmd releases the controller.
	PauseCmd = ishell.Cmd{
		Name: "pause",
		Help: "",
		Func: send(&msgs.Pause{}),
	}

	// WaitCmd waits.
	WaitCmd = ishell.Cmd{
		Name:    "wait",
		Aliases: []string{"w"},
		Help:    "DURATION",
		Func: withArgs(1, func(c *ishell.Context) (msgs.SerializableMessage, error) {
			return ParseWait(c.Args[0])
		}),
	}

	// RunCmd runs a script file on the bridge host.
	RunCmd = ishell.Cmd{
		Name: "run",
		Help: "SCRIPT-FILE",
		Func: withArgs(1, func(c *ishell.Context) (msgs.SerializableMessage, error) {
			return &msgs.RunScript{Path: c.Args[0]}, nil
		}),
	}

	// CountCmd shows the reset count.
	CountCmd = ishell.Cmd{
		Name: "count",
		Help: "",
		Func: send(&msgs.CounterQuery{}),
	}

	// CountIncCmd increments the reset count.
	CountIncCmd = ishell.Cmd{
		Name: "count.inc",
		Help: "",
		Func: send(&msgs.CounterQuery{Increment: true}),
	}

	// CountZeroCmd zeroes the reset count.
	CountZeroCmd = ishell.Cmd{
		Name: "count.zero",
		Help: "",
		Func: send(&msgs.CounterQuery{Zero: true}),
	}
)
