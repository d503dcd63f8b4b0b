package usbiface

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/swbridge.go/pkg/link"
)

// ReplayWarmUp is the number of neutral reports before a replay starts.
const ReplayWarmUp = 10

// ErrEmptyReplay is returned for a replay without items.
var ErrEmptyReplay = errors.New("empty replay")

// ReplayItem is a report sent Repeat times in a row.
type ReplayItem struct {
	Frame  link.Frame
	Repeat int
}

type replayItemYAML struct {
	Buttons link.Buttons `yaml:"buttons"`
	DPad    link.DPad    `yaml:"dpad"`
	Left    link.Stick   `yaml:"left"`
	Right   link.Stick   `yaml:"right"`
	Repeat  int          `yaml:"repeat"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *ReplayItem) UnmarshalYAML(node *yaml.Node) error {
	item := replayItemYAML{
		DPad:  link.DPadNeutral,
		Left:  link.StickNeutral,
		Right: link.StickNeutral,
	}
	if err := node.Decode(&item); err != nil {
		return err
	}
	i.Frame = link.Frame{Buttons: item.Buttons, DPad: item.DPad, Left: item.Left, Right: item.Right}
	i.Repeat = item.Repeat
	return nil
}

// LoadReplayItems decodes a YAML list of items.
func LoadReplayItems(r io.Reader) ([]ReplayItem, error) {
	var items []ReplayItem
	if err := yaml.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	return items, nil
}

// Replay sends a fixed sequence of reports in a loop without the main
// controller, to test the host side. The TX LED toggles on each item.
type Replay struct {
	Items []ReplayItem
	LEDs  link.LEDSetter

	started bool
	warmUp  int
	pos     int
	remain  int
	leds    link.LEDs
	lock    sync.Mutex
}

// NewReplay validates the items and creates a Replay.
func NewReplay(items []ReplayItem, leds link.LEDSetter) (*Replay, error) {
	if len(items) == 0 {
		return nil, ErrEmptyReplay
	}
	for n, item := range items {
		if item.Repeat <= 0 {
			return nil, fmt.Errorf("replay[%d]: repeat must be positive", n)
		}
		if !item.Frame.DPad.IsValid() {
			return nil, fmt.Errorf("replay[%d]: invalid d-pad %d", n, item.Frame.DPad)
		}
	}
	if leds == nil {
		leds = link.LEDSetterFunc(func(link.LEDs) {})
	}
	return &Replay{Items: items, LEDs: leds}, nil
}

// Poll implements Poller.
func (r *Replay) Poll(w link.ReportWriter) error {
	return w.WriteReport(r.next())
}

func (r *Replay) next() link.Report {
	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.started {
		r.warmUp++
		if r.warmUp >= ReplayWarmUp {
			r.started = true
			r.pos, r.remain = 0, r.Items[0].Repeat
			r.setLEDs(link.LEDTX)
		}
		return link.NeutralFrame.Report()
	}
	if r.remain == 0 {
		r.pos = (r.pos + 1) % len(r.Items)
		r.remain = r.Items[r.pos].Repeat
		r.setLEDs(r.leds ^ link.LEDTX)
	}
	r.remain--
	return r.Items[r.pos].Frame.Report()
}

func (r *Replay) setLEDs(leds link.LEDs) {
	r.leds = leds
	r.LEDs.SetLEDs(leds)
}
