package link

import (
	"fmt"
	"strconv"
	"strings"
)

// Stick is the position of an analog stick, 128 is centered on both axis.
type Stick struct {
	X uint8
	Y uint8
}

// Predefined stick positions.
var (
	StickNeutral   = Stick{128, 128}
	StickUp        = Stick{128, 0}
	StickUpRight   = Stick{219, 37}
	StickRight     = Stick{255, 128}
	StickDownRight = Stick{219, 219}
	StickDown      = Stick{128, 255}
	StickDownLeft  = Stick{37, 219}
	StickLeft      = Stick{0, 128}
	StickUpLeft    = Stick{37, 37}
)

var stickNames = map[string]Stick{
	"neutral":    StickNeutral,
	"center":     StickNeutral,
	"up":         StickUp,
	"up-right":   StickUpRight,
	"right":      StickRight,
	"down-right": StickDownRight,
	"down":       StickDown,
	"down-left":  StickDownLeft,
	"left":       StickLeft,
	"up-left":    StickUpLeft,
}

// Scaled scales down the inclination of the stick, from 0 (neutral) to
// 255 (unchanged).
func (s Stick) Scaled(val uint8) Stick {
	return Stick{X: scaleAxis(s.X, val), Y: scaleAxis(s.Y, val)}
}

func scaleAxis(c, val uint8) uint8 {
	return uint8((int(c)-128)*int(val)/255 + 128)
}

// String implements fmt.Stringer.
func (s Stick) String() string {
	return fmt.Sprintf("(%d,%d)", s.X, s.Y)
}

// ParseStick parses a named position (e.g. "up-left") or "X,Y".
// A named position may be followed by "@N" to scale it, e.g. "up@128".
func ParseStick(s string) (Stick, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return StickNeutral, nil
	}
	if pos := strings.IndexByte(s, ','); pos >= 0 {
		x, err := strconv.ParseUint(strings.TrimSpace(s[:pos]), 10, 8)
		if err != nil {
			return StickNeutral, fmt.Errorf("invalid stick x %q: %v", s[:pos], err)
		}
		y, err := strconv.ParseUint(strings.TrimSpace(s[pos+1:]), 10, 8)
		if err != nil {
			return StickNeutral, fmt.Errorf("invalid stick y %q: %v", s[pos+1:], err)
		}
		return Stick{X: uint8(x), Y: uint8(y)}, nil
	}
	name, scale := s, ""
	if pos := strings.IndexByte(s, '@'); pos >= 0 {
		name, scale = s[:pos], s[pos+1:]
	}
	stick, ok := stickNames[strings.Replace(name, "_", "-", -1)]
	if !ok {
		return StickNeutral, fmt.Errorf("unknown stick position %q", name)
	}
	if scale != "" {
		val, err := strconv.ParseUint(scale, 10, 8)
		if err != nil {
			return StickNeutral, fmt.Errorf("invalid stick scale %q: %v", scale, err)
		}
		stick = stick.Scaled(uint8(val))
	}
	return stick, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stick) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStick(string(text))
	return
}
