package imgops

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"blue":    "#0000ff",
	"magenta": "#ff00ff",
	"cyan":    "#00ffff",
	"yellow":  "#ffff00",
	"gray":    "#808080",
	"grey":    "#808080",
}

// ParseHexColor parses "#rgb", "#rrggbb", "#rrggbbaa" or a basic colour name.
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color")
	}
	if s == "transparent" {
		return color.NRGBA{}, nil
	}
	if hex, ok := namedColors[strings.ToLower(s)]; ok {
		s = hex
	}
	if s[0] != '#' {
		s = "#" + s
	}
	alpha := uint8(255)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:9], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = uint8(a)
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatHexColor is the inverse of ParseHexColor; alpha is only written when not opaque.
func FormatHexColor(c color.NRGBA) string {
	s := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
	if c.A != 255 {
		s += fmt.Sprintf("%02x", c.A)
	}
	return s
}

// HSV returns hue, saturation and value of c, all in [0,1].
func HSV(c color.NRGBA) (h, s, v float64) {
	h, s, v = colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsv()
	return h / 360.0, s, v
}

// FromHSV builds an opaque colour from hue, saturation and value in [0,1].
func FromHSV(h, s, v float64) color.NRGBA {
	h = math.Mod(clamp01(h)*360.0, 360.0)
	r, g, b := colorful.Hsv(h, clamp01(s), clamp01(v)).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
