// Package sh provides the interactive shell driving a bridge.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/swbridge.go/pkg/remote/msgs"
)

// Conn sends commands to a bridge.
type Conn interface {
	Do(context.Context, msgs.SerializableMessage) (msgs.SerializableMessage, error)
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Timeout     time.Duration

	Shell *ishell.Shell
	Conn  Conn
}

const (
	shellKey = "$shell"

	// DefaultTimeout bounds a command, scripts may run for long.
	DefaultTimeout = 10 * time.Minute
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&InitCmd,
		&StatusCmd,
		&PressCmd,
		&SeqCmd,
		&LEDsCmd,
		&PauseCmd,
		&WaitCmd,
		&RunCmd,
		&CountCmd,
		&CountIncCmd,
		&CountZeroCmd,
	}
)

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conn Conn, prompt string) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell: ishell.New(),
		Conn:  conn,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt + " > ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// FormatReply formats the reply for display.
func FormatReply(reply msgs.SerializableMessage, asJSON bool) (string, error) {
	if asJSON {
		out, err := json.Marshal(reply)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if _, ok := reply.(*msgs.CommandOK); ok {
		return "OK", nil
	}
	return fmt.Sprintf("%s %s",
		reflect.Indirect(reflect.ValueOf(reply)).Type().Name(),
		reply.String()), nil
}

// Do runs a command and waits for result.
func (s *Shell) Do(msg msgs.SerializableMessage) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()
	reply, err := s.Conn.Do(ctx, msg)
	if err != nil {
		return "", err
	}
	return FormatReply(reply, s.OutputJSON)
}

// DoCommand runs a command and prints the result.
func DoCommand(c *ishell.Context, msg msgs.SerializableMessage) error {
	out, err := ShellFrom(c).Do(msg)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(out)
	return nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}
