package volume

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGrayPNG(t *testing.T, path string, w, h int, value uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadDirGrayscale(t *testing.T) {
	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "z000.png"), 4, 3, 10)
	writeGrayPNG(t, filepath.Join(dir, "z001.png"), 4, 3, 20)

	vol, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, vol.Width)
	assert.Equal(t, 3, vol.Height)
	assert.Equal(t, 2, vol.Depth)
	assert.Equal(t, 1, vol.Channels)

	// Slices load in lexical filename order.
	assert.Equal(t, uint8(10), vol.At(0, 0, 0, 0))
	assert.Equal(t, uint8(20), vol.At(0, 0, 0, 1))
}

func TestLoadDirColor(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "slice.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	f.Close()

	vol, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Equal(t, 3, vol.Channels)
	assert.Equal(t, uint8(200), vol.At(0, 1, 1, 0))
	assert.Equal(t, uint8(100), vol.At(1, 1, 1, 0))
	assert.Equal(t, uint8(50), vol.At(2, 1, 1, 0))
}

func TestLoadDirRejectsMismatchedSlices(t *testing.T) {
	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "a.png"), 4, 4, 1)
	writeGrayPNG(t, filepath.Join(dir, "b.png"), 5, 4, 1)

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadDirIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeGrayPNG(t, filepath.Join(dir, "a.png"), 2, 2, 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	vol, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, vol.Depth)
}
