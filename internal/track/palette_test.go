package track

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColor_Encodings(t *testing.T) {
	tests := []struct {
		c       Color
		kmlFull string
		hex     string
	}{
		{Red, "ff0000ff", "#FF0000"},
		{Green, "ff00ff00", "#00FF00"},
		{Blue, "ffff0000", "#0000FF"},
		{Yellow, "ff00ffff", "#FFFF00"},
		{Magenta, "ffff00ff", "#FF00FF"},
		{Cyan, "ffffff00", "#00FFFF"},
		{Orange, "ff0088ff", "#FF8800"},
		{Purple, "ffff0088", "#8800FF"},
		{Pink, "ff8800ff", "#FF0088"},
		{Turquoise, "ff88ff00", "#00FF88"},
	}
	for _, tt := range tests {
		t.Run(tt.c.Name, func(t *testing.T) {
			assert.Equal(t, tt.kmlFull, tt.c.KML(0xff))
			assert.Equal(t, tt.hex, tt.c.Hex())
		})
	}

	assert.Equal(t, "990000ff", Red.KML(0x99))
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0x80}, Red.NRGBA(0x80))
}

func TestPaletteCursor_Cycles(t *testing.T) {
	cursor := NewPaletteCursor(nil)
	p := len(DefaultPalette)
	require.Equal(t, 10, p)

	for i := 0; i < 3*p+4; i++ {
		assert.Equal(t, DefaultPalette[i%p], cursor.Next(), "call %d", i)
	}
	assert.Equal(t, 3*p+4, cursor.Position())

	custom := NewPaletteCursor([]Color{Blue, Pink})
	assert.Equal(t, Blue, custom.Next())
	assert.Equal(t, Pink, custom.Next())
	assert.Equal(t, Blue, custom.Next())
}

func TestPaletteCursor_Independent(t *testing.T) {
	a := NewPaletteCursor(nil)
	b := NewPaletteCursor(nil)
	a.Next()
	a.Next()
	assert.Equal(t, DefaultPalette[0], b.Next())
	assert.Equal(t, DefaultPalette[2], a.Next())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("Turquoise")
	require.NoError(t, err)
	assert.Equal(t, Turquoise, c)

	c, err = ParseColor("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, Color{Name: "#1A2B3C", R: 0x1a, G: 0x2b, B: 0x3c}, c)
	assert.Equal(t, "ff3c2b1a", c.KML(0xff))

	for _, bad := range []string{"", "chartreuse", "#12345", "#GGGGGG", "123456"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}
