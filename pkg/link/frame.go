package link

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame layout and status byte.
const (
	// FrameSize is the size of a frame on the wire, which is also the size
	// of a HID report sent to the host.
	FrameSize = 8
	// ReportSize is the size of a HID IN report.
	ReportSize = FrameSize

	statusIndex = FrameSize - 1

	// MagicMask selects the magic bits of the status byte.
	MagicMask byte = 0xfc
	// MagicValue is the fixed value of the magic bits.
	MagicValue byte = 0xac
	// StatusTX is the TX LED bit of the status byte.
	StatusTX byte = 0x01
	// StatusRX is the RX LED bit of the status byte.
	StatusRX byte = 0x02
)

var (
	// ErrShortFrame indicates less than FrameSize bytes were provided.
	ErrShortFrame = errors.New("short frame")
	// ErrBadMagic indicates the status byte doesn't carry the magic value.
	ErrBadMagic = errors.New("bad magic")
)

// Buttons is the bitset of pressed buttons.
type Buttons uint16

// Buttons
const (
	ButtonNone    Buttons = 0x0000
	ButtonY       Buttons = 0x0001
	ButtonB       Buttons = 0x0002
	ButtonA       Buttons = 0x0004
	ButtonX       Buttons = 0x0008
	ButtonL       Buttons = 0x0010
	ButtonR       Buttons = 0x0020
	ButtonZL      Buttons = 0x0040
	ButtonZR      Buttons = 0x0080
	ButtonMinus   Buttons = 0x0100
	ButtonPlus    Buttons = 0x0200
	ButtonLStick  Buttons = 0x0400
	ButtonRStick  Buttons = 0x0800
	ButtonHome    Buttons = 0x1000
	ButtonCapture Buttons = 0x2000
)

var buttonNames = []struct {
	button Buttons
	name   string
}{
	{ButtonY, "Y"},
	{ButtonB, "B"},
	{ButtonA, "A"},
	{ButtonX, "X"},
	{ButtonL, "L"},
	{ButtonR, "R"},
	{ButtonZL, "ZL"},
	{ButtonZR, "ZR"},
	{ButtonMinus, "MINUS"},
	{ButtonPlus, "PLUS"},
	{ButtonLStick, "LSTICK"},
	{ButtonRStick, "RSTICK"},
	{ButtonHome, "HOME"},
	{ButtonCapture, "CAPTURE"},
}

// String implements fmt.Stringer.
func (b Buttons) String() string {
	if b == ButtonNone {
		return "NONE"
	}
	var names []string
	for _, n := range buttonNames {
		if b&n.button != 0 {
			names = append(names, n.name)
			b &^= n.button
		}
	}
	if b != 0 {
		names = append(names, fmt.Sprintf("0x%04x", uint16(b)))
	}
	return strings.Join(names, "|")
}

// ParseButtons parses names separated by '|', '+' or ','.
// Names are case insensitive, "none" or an empty string means no buttons.
func ParseButtons(s string) (Buttons, error) {
	var b Buttons
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == '+' || r == ',' || r == ' '
	})
	for _, field := range fields {
		name := strings.ToUpper(field)
		switch name {
		case "NONE":
			continue
		case "-", "SELECT":
			name = "MINUS"
		case "START":
			name = "PLUS"
		}
		found := false
		for _, n := range buttonNames {
			if n.name == name {
				b |= n.button
				found = true
				break
			}
		}
		if !found {
			return ButtonNone, fmt.Errorf("unknown button %q", field)
		}
	}
	return b, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Buttons) UnmarshalText(text []byte) (err error) {
	*b, err = ParseButtons(string(text))
	return
}

// DPad is the direction of the d-pad, exactly one value at a time.
type DPad uint8

// D-pad directions
const (
	DPadUp DPad = iota
	DPadUpRight
	DPadRight
	DPadDownRight
	DPadDown
	DPadDownLeft
	DPadLeft
	DPadUpLeft
	DPadNeutral
)

var dpadNames = [...]string{
	"up", "up-right", "right", "down-right",
	"down", "down-left", "left", "up-left",
	"neutral",
}

// IsValid indicates the value is one of the 9 directions.
func (d DPad) IsValid() bool {
	return d <= DPadNeutral
}

// String implements fmt.Stringer.
func (d DPad) String() string {
	if d.IsValid() {
		return dpadNames[d]
	}
	return fmt.Sprintf("dpad(%d)", uint8(d))
}

// ParseDPad parses the name of a direction. An empty string is neutral.
func ParseDPad(s string) (DPad, error) {
	name := strings.Replace(strings.ToLower(strings.TrimSpace(s)), "_", "-", -1)
	switch name {
	case "", "none", "center":
		return DPadNeutral, nil
	case "top":
		return DPadUp, nil
	case "bottom":
		return DPadDown, nil
	}
	for n, dn := range dpadNames {
		if dn == name {
			return DPad(n), nil
		}
	}
	return DPadNeutral, fmt.Errorf("unknown d-pad direction %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DPad) UnmarshalText(text []byte) (err error) {
	*d, err = ParseDPad(string(text))
	return
}

// LEDs is the state of the TX/RX LEDs on the USB interface board.
type LEDs uint8

// LED states
const (
	LEDsNone LEDs = 0x00
	LEDTX    LEDs = 0x01
	LEDRX    LEDs = 0x02
	LEDsBoth LEDs = LEDTX | LEDRX
)

// String implements fmt.Stringer.
func (l LEDs) String() string {
	switch l & LEDsBoth {
	case LEDTX:
		return "tx"
	case LEDRX:
		return "rx"
	case LEDsBoth:
		return "tx|rx"
	}
	return "none"
}

// ParseLEDs parses "none", "tx", "rx", "both" or "tx|rx".
func ParseLEDs(s string) (LEDs, error) {
	var l LEDs
	for _, field := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '|' || r == '+' || r == ',' || r == ' '
	}) {
		switch field {
		case "none", "off":
		case "tx":
			l |= LEDTX
		case "rx":
			l |= LEDRX
		case "both", "all":
			l |= LEDsBoth
		default:
			return LEDsNone, fmt.Errorf("unknown LED %q", field)
		}
	}
	return l, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *LEDs) UnmarshalText(text []byte) (err error) {
	*l, err = ParseLEDs(string(text))
	return
}

// StatusByte builds the status byte with the magic value and LED bits.
func StatusByte(leds LEDs) byte {
	return MagicValue | (byte(leds) & (StatusTX | StatusRX))
}

// ValidStatus checks the magic bits of a status byte.
func ValidStatus(b byte) bool {
	return b&MagicMask == MagicValue
}

// Frame is the controller state exchanged over the link.
type Frame struct {
	Buttons Buttons
	DPad    DPad
	Left    Stick
	Right   Stick
	LEDs    LEDs
}

// NeutralFrame has no buttons pressed and both sticks centered.
var NeutralFrame = Frame{
	DPad:  DPadNeutral,
	Left:  StickNeutral,
	Right: StickNeutral,
}

// IsNeutral indicates the controller part of the frame is neutral.
// LEDs are not part of the controller state.
func (f Frame) IsNeutral() bool {
	return f.Buttons == ButtonNone &&
		f.DPad == DPadNeutral &&
		f.Left == StickNeutral &&
		f.Right == StickNeutral
}

// Encode writes the wire encoding into b, which must hold FrameSize bytes.
func (f Frame) Encode(b []byte) {
	_ = b[statusIndex]
	binary.LittleEndian.PutUint16(b[0:2], uint16(f.Buttons))
	b[2] = byte(f.DPad)
	b[3], b[4] = f.Left.X, f.Left.Y
	b[5], b[6] = f.Right.X, f.Right.Y
	b[statusIndex] = StatusByte(f.LEDs)
}

// Bytes returns the wire encoding.
func (f Frame) Bytes() [FrameSize]byte {
	var b [FrameSize]byte
	f.Encode(b[:])
	return b
}

// Report returns the HID report of the frame. The status byte is not part
// of the report and is left zero.
func (f Frame) Report() Report {
	var r Report
	f.Encode(r[:])
	r[statusIndex] = 0
	return r
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("buttons=%s dpad=%s left=%s right=%s leds=%s",
		f.Buttons, f.DPad, f.Left, f.Right, f.LEDs)
}

// DecodeFrame decodes the wire encoding and validates the magic bits.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	f := decodeController(b)
	status := b[statusIndex]
	if !ValidStatus(status) {
		return f, ErrBadMagic
	}
	f.LEDs = LEDs(status & (StatusTX | StatusRX))
	return f, nil
}

func decodeController(b []byte) Frame {
	return Frame{
		Buttons: Buttons(binary.LittleEndian.Uint16(b[0:2])),
		DPad:    DPad(b[2]),
		Left:    Stick{X: b[3], Y: b[4]},
		Right:   Stick{X: b[5], Y: b[6]},
	}
}

// Report is a HID IN report sent to the host.
type Report [ReportSize]byte

// Frame decodes the controller state carried by the report.
func (r Report) Frame() Frame {
	return decodeController(r[:])
}
