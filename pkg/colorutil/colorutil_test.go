package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("cyan")
	require.NoError(t, err)
	assert.Equal(t, Cyan, c)

	c, err = Parse("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xFF, G: 0x80, B: 0x00, A: 0xFF}, c)

	c, err = Parse("#0ff")
	require.NoError(t, err)
	assert.Equal(t, Cyan, c)

	// Empty is the default channel tint.
	c, err = Parse("")
	require.NoError(t, err)
	assert.Equal(t, White, c)

	_, err = Parse("chartreuseish")
	assert.Error(t, err)
	_, err = Parse("#12")
	assert.Error(t, err)
}

func TestPaletteStable(t *testing.T) {
	assert.Equal(t, Palette(1), Palette(1))
	assert.NotEqual(t, Palette(0), Palette(1))
	assert.Equal(t, Palette(0), Palette(8), "palette cycles")
	assert.Equal(t, Palette(2), Palette(-2))
}

func TestLighten(t *testing.T) {
	assert.Equal(t, Red, Lighten(Red, 0))
	assert.Equal(t, White, Lighten(Red, 1))

	half := Lighten(color.RGBA{R: 0, G: 100, B: 200, A: 255}, 0.5)
	assert.Equal(t, uint8(127), half.R)
	assert.Equal(t, uint8(177), half.G)
	assert.Equal(t, uint8(227), half.B)
}
