package graph

import (
	"encoding/json"
	"fmt"
)

// Color is an RGBA color with an explicit unset state. The zero value is
// Unset, which differs from every explicit color including transparent
// black.
type Color struct {
	R, G, B, A uint8
	set        bool
}

// Unset is the color of a node that has not been given one.
var Unset = Color{}

// RGBA returns an explicit color.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a, set: true}
}

// Named colors.
var (
	Black  = RGBA(0, 0, 0, 255)
	White  = RGBA(255, 255, 255, 255)
	Red    = RGBA(255, 0, 0, 255)
	Green  = RGBA(0, 128, 0, 255)
	Blue   = RGBA(0, 0, 255, 255)
	Pink   = RGBA(255, 192, 203, 255)
	Violet = RGBA(238, 130, 238, 255)
)

var namedColors = map[string]Color{
	"black":  Black,
	"white":  White,
	"red":    Red,
	"green":  Green,
	"blue":   Blue,
	"pink":   Pink,
	"violet": Violet,
}

// ColorByName looks up one of the named colors.
func ColorByName(name string) (Color, bool) {
	c, ok := namedColors[name]
	return c, ok
}

// IsSet reports whether c is an explicit color.
func (c Color) IsSet() bool { return c.set }

func (c Color) String() string {
	if !c.set {
		return "unset"
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%d)", c.R, c.G, c.B, c.A)
}

// MarshalJSON encodes an explicit color as [r,g,b,a] and Unset as "unset".
func (c Color) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte(`"unset"`), nil
	}
	return json.Marshal([4]uint8{c.R, c.G, c.B, c.A})
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (c *Color) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unset" {
			return fmt.Errorf("graph: invalid color %q", s)
		}
		*c = Unset
		return nil
	}
	var v [4]uint8
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) != 4 {
		return fmt.Errorf("graph: color must be \"unset\" or 4 numbers, got %s", data)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("graph: color: %w", err)
	}
	*c = RGBA(v[0], v[1], v[2], v[3])
	return nil
}
