// Package colorutil provides shared color utilities for channel tints and
// track palettes.
package colorutil

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Common tint and overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Orange  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

var named = map[string]color.RGBA{
	"black":   Black,
	"white":   White,
	"red":     Red,
	"green":   Green,
	"blue":    Blue,
	"cyan":    Cyan,
	"magenta": Magenta,
	"yellow":  Yellow,
	"orange":  Orange,
}

// Parse parses a color from a name ("cyan") or hex string ("#00ffff",
// "#0ff"). An empty string parses as white, the default channel tint.
func Parse(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return White, nil
	}
	if c, ok := named[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}

func parseHex(s string) (color.RGBA, error) {
	if len(s) == 3 {
		// Expand shorthand: #0ff -> #00ffff
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

// Palette returns a stable, distinguishable color for an index. Used to
// assign default track and channel colors.
func Palette(i int) color.RGBA {
	palette := []color.RGBA{
		Cyan, Magenta, Yellow, Green, Orange, Red, Blue, White,
	}
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// Lighten returns the color blended toward white by the given fraction
// (0 = unchanged, 1 = white). Used for track highlight colors.
func Lighten(c color.RGBA, frac float64) color.RGBA {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	blend := func(v uint8) uint8 {
		return uint8(float64(v) + (255-float64(v))*frac)
	}
	return color.RGBA{R: blend(c.R), G: blend(c.G), B: blend(c.B), A: c.A}
}
