package track

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a named display color.
type Color struct {
	Name    string
	R, G, B uint8
}

// KML returns the color in KML's aabbggrr hex notation.
func (c Color) KML(alpha uint8) string {
	return fmt.Sprintf("%02x%02x%02x%02x", alpha, c.B, c.G, c.R)
}

// Hex returns the color as #RRGGBB.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) NRGBA(alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

var (
	Red       = Color{Name: "red", R: 0xFF}
	Green     = Color{Name: "green", G: 0xFF}
	Blue      = Color{Name: "blue", B: 0xFF}
	Yellow    = Color{Name: "yellow", R: 0xFF, G: 0xFF}
	Magenta   = Color{Name: "magenta", R: 0xFF, B: 0xFF}
	Cyan      = Color{Name: "cyan", G: 0xFF, B: 0xFF}
	Orange    = Color{Name: "orange", R: 0xFF, G: 0x88}
	Purple    = Color{Name: "purple", R: 0x88, B: 0xFF}
	Pink      = Color{Name: "pink", R: 0xFF, B: 0x88}
	Turquoise = Color{Name: "turquoise", G: 0xFF, B: 0x88}
)

// DefaultPalette is cycled through when tracks are added to a batch.
var DefaultPalette = []Color{Red, Green, Blue, Yellow, Magenta, Cyan, Orange, Purple, Pink, Turquoise}

// ParseColor accepts a DefaultPalette name or a #RRGGBB hex string.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	for _, c := range DefaultPalette {
		if strings.EqualFold(c.Name, s) {
			return c, nil
		}
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{Name: "#" + strings.ToUpper(hex), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// PaletteCursor hands out palette colors round-robin. Each ingestion run
// owns its cursor; there is no shared cursor.
type PaletteCursor struct {
	palette []Color
	next    int
}

// NewPaletteCursor starts at the first color of palette, or of
// DefaultPalette if palette is empty.
func NewPaletteCursor(palette []Color) *PaletteCursor {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &PaletteCursor{palette: palette}
}

// Next returns palette[i mod len(palette)] for the i-th call.
func (c *PaletteCursor) Next() Color {
	col := c.palette[c.next%len(c.palette)]
	c.next++
	return col
}

// Position is the number of colors handed out so far.
func (c *PaletteCursor) Position() int { return c.next }
