package app

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

// writeTestDataset lays out a dataset on disk: two grayscale slices, a
// descriptor with dense, segmentation, and streamed channels, and a tiny
// track file.
func writeTestDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chDir := filepath.Join(dir, "ch0")
	require.NoError(t, os.Mkdir(chDir, 0o755))

	for z, value := range []uint8{60, 70} {
		img := image.NewGray(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				img.SetGray(x, y, color.Gray{Y: value})
			}
		}
		f, err := os.Create(filepath.Join(chDir, "z"+string(rune('0'+z))+".png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		f.Close()
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracks.csv"),
		[]byte("track_id,t,z,y,x\n1,0,0,1,1\n1,3,1,2,2\n"), 0o644))

	desc := `
name: fixture
voxel_scale:
  x: 1
  y: 1
  z: 2
channels:
  - name: nuclei
    dir: ch0
    tint: green
  - name: bodies
    dir: ch0
    segmentation: true
  - name: remote
    dir: ch0
    streamed: true
tracks: tracks.csv
`
	path := filepath.Join(dir, "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(desc), 0o644))
	return path
}

func TestLoadDataset(t *testing.T) {
	s := NewState()
	var loaded int
	s.On(EventDatasetLoaded, func(interface{}) { loaded++ })

	require.NoError(t, s.LoadDataset(writeTestDataset(t)))
	assert.Equal(t, 1, loaded)
	assert.Equal(t, "fixture", s.DatasetName)

	require.Len(t, s.Layers, 3)
	assert.Equal(t, 4, s.Primary.Width)
	assert.Equal(t, 2, s.Primary.Depth)
	assert.Equal(t, 2.0, s.VoxelScale.Z)

	// Dense channel keeps its volume; streamed channel gets a source.
	assert.NotNil(t, s.Layers[0].Volume)
	assert.Nil(t, s.Layers[0].Source)
	assert.Nil(t, s.Layers[2].Volume)
	require.NotNil(t, s.Layers[2].Source)
	assert.Contains(t, s.Sources, 2)

	// Segmentation labels mirror the intensity channel.
	seg := s.Layers[1]
	assert.True(t, seg.Segmentation)
	require.NotNil(t, seg.Volume.Labels)
	assert.Equal(t, uint32(60), seg.Volume.LabelAt(0, 0, 0))
	assert.Equal(t, uint32(70), seg.Volume.LabelAt(0, 0, 1))

	require.Len(t, s.Tracks, 1)
	assert.Equal(t, 3, s.MaxTime)

	reqs := s.StreamRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 2, reqs[0].Layer)
}

func TestLoadDatasetBadPath(t *testing.T) {
	s := NewState()
	assert.Error(t, s.LoadDataset(filepath.Join(t.TempDir(), "missing.yaml")))
}
