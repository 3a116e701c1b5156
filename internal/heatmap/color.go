package heatmap

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an immutable RGB value. Channels are nominally in 0..1 but may
// leave that range after Scale; Hex clamps.
type Color struct {
	c colorful.Color
}

// ParseColor parses a "#rrggbb" or "#rgb" hex color.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 && len(s) != 4 {
		return Color{}, invalid("color %q: want #rrggbb or #rgb", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, invalid("color %q: %v", s, err)
	}
	return Color{c: c}, nil
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// RGB returns a Color from float channels.
func RGB(r, g, b float64) Color {
	return Color{c: colorful.Color{R: r, G: g, B: b}}
}

// Scale multiplies every channel by f.
func (c Color) Scale(f float64) Color {
	return Color{c: colorful.Color{R: c.c.R * f, G: c.c.G * f, B: c.c.B * f}}
}

// Hex renders the color as lowercase "#rrggbb". Channels are clamped, then
// truncated to 8 bits, matching the map engine's own color formatting.
func (c Color) Hex() string {
	k := c.c.Clamped()
	return fmt.Sprintf("#%02x%02x%02x", uint8(k.R*255), uint8(k.G*255), uint8(k.B*255))
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}
