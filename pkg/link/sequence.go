package link

import (
	"fmt"
	"strconv"
	"strings"
)

// SequenceMode defines how an entry of a sequence is sent.
type SequenceMode uint8

const (
	// ModeHold keeps the buttons held for the repeated frames.
	ModeHold SequenceMode = iota
	// ModeMash sends a released frame after each held frame.
	ModeMash
)

// String implements fmt.Stringer.
func (m SequenceMode) String() string {
	if m == ModeMash {
		return "mash"
	}
	return "hold"
}

// ParseSequenceMode parses "hold" or "mash".
func ParseSequenceMode(s string) (SequenceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hold":
		return ModeHold, nil
	case "mash":
		return ModeMash, nil
	}
	return ModeHold, fmt.Errorf("unknown sequence mode %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SequenceMode) UnmarshalText(text []byte) (err error) {
	*m, err = ParseSequenceMode(string(text))
	return
}

// MaxRepeat is the largest repeat count of a sequence entry.
const MaxRepeat = 2047

// SequenceEntry is a button/d-pad state sent for a number of cycles.
type SequenceEntry struct {
	Buttons Buttons
	DPad    DPad
	Mode    SequenceMode
	Repeat  uint16
}

// Validate checks the entry can be sent.
func (e SequenceEntry) Validate() error {
	if e.Repeat > MaxRepeat {
		return fmt.Errorf("repeat count %d exceeds %d", e.Repeat, MaxRepeat)
	}
	if !e.DPad.IsValid() {
		return fmt.Errorf("invalid d-pad %d", e.DPad)
	}
	if e.Mode != ModeHold && e.Mode != ModeMash {
		return fmt.Errorf("invalid sequence mode %d", e.Mode)
	}
	return nil
}

// Frames returns the number of frames sent for the entry.
func (e SequenceEntry) Frames() int {
	if e.Mode == ModeMash {
		return 2 * int(e.Repeat)
	}
	return int(e.Repeat)
}

// ValidateSequence validates all entries.
func ValidateSequence(entries []SequenceEntry) error {
	for n, entry := range entries {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("sequence[%d]: %v", n, err)
		}
	}
	return nil
}

// ParseSequenceEntry parses BUTTONS[@DPAD][*N|~N], where *N holds for N
// cycles and ~N mashes N times, e.g. "A~3" or "NONE@left*10".
func ParseSequenceEntry(s string) (entry SequenceEntry, err error) {
	entry.DPad, entry.Repeat = DPadNeutral, 1
	if pos := strings.IndexAny(s, "*~"); pos >= 0 {
		if s[pos] == '~' {
			entry.Mode = ModeMash
		}
		n, err := strconv.ParseUint(s[pos+1:], 10, 16)
		if err != nil {
			return entry, fmt.Errorf("invalid repeat in %q", s)
		}
		if n > MaxRepeat {
			return entry, fmt.Errorf("repeat count %d exceeds %d", n, MaxRepeat)
		}
		entry.Repeat, s = uint16(n), s[:pos]
	}
	if pos := strings.IndexByte(s, '@'); pos >= 0 {
		if entry.DPad, err = ParseDPad(s[pos+1:]); err != nil {
			return entry, err
		}
		s = s[:pos]
	}
	entry.Buttons, err = ParseButtons(s)
	return entry, err
}
