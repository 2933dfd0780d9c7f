package volume

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscope/pkg/geometry"
)

func uniform(w, h, d, channels int, value uint8) *Volume {
	v := New(w, h, d, channels)
	for i := range v.Data {
		v.Data[i] = value
	}
	return v
}

func TestBuildPyramidLevels(t *testing.T) {
	p := BuildPyramid(uniform(8, 8, 4, 1, 50), 2)
	src := &MemorySource{Pyramid: p}

	levels := src.Levels()
	require.Len(t, levels, 3)

	assert.Equal(t, LevelInfo{Channels: 1, Depth: 4, Height: 8, Width: 8, ScaleX: 1, ScaleY: 1, ScaleZ: 1}, levels[0])
	assert.Equal(t, LevelInfo{Channels: 1, Depth: 2, Height: 4, Width: 4, ScaleX: 2, ScaleY: 2, ScaleZ: 2}, levels[1])
	assert.Equal(t, LevelInfo{Channels: 1, Depth: 1, Height: 2, Width: 2, ScaleX: 4, ScaleY: 4, ScaleZ: 4}, levels[2])
}

func TestBuildPyramidBoxFilterPreservesUniform(t *testing.T) {
	p := BuildPyramid(uniform(16, 16, 2, 2, 77), 4)
	for i := 0; ; i++ {
		lv := p.Level(i)
		if lv == nil {
			break
		}
		for _, s := range lv.Data {
			require.Equal(t, uint8(77), s, "level %d", i)
		}
	}
}

func TestBuildPyramidEmptyBase(t *testing.T) {
	p := BuildPyramid(nil, 4)
	assert.Nil(t, p.Level(0))
	assert.Empty(t, (&MemorySource{Pyramid: p}).Levels())
}

func TestMemorySourceReadRegion(t *testing.T) {
	vol := New(8, 8, 2, 1)
	vol.Set(0, 3, 2, 1, 200)
	src := &MemorySource{Pyramid: BuildPyramid(vol, 8)}

	region, err := src.ReadRegion(context.Background(), RegionRequest{
		Level: 0,
		Slice: 1,
		Rect:  geometry.RectInt{X: 2, Y: 1, Width: 4, Height: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, region.X)
	assert.Equal(t, 1, region.Y)
	assert.Equal(t, 4, region.Width)
	assert.Equal(t, uint8(200), region.At(0, 1, 1)) // voxel (3,2) in region-local coordinates
}

func TestMemorySourceClampsRect(t *testing.T) {
	src := &MemorySource{Pyramid: BuildPyramid(uniform(8, 8, 1, 1, 9), 8)}

	region, err := src.ReadRegion(context.Background(), RegionRequest{
		Rect: geometry.RectInt{X: 4, Y: 4, Width: 100, Height: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, region.Width)
	assert.Equal(t, 4, region.Height)
}

func TestMemorySourceBadLevel(t *testing.T) {
	src := &MemorySource{Pyramid: BuildPyramid(uniform(8, 8, 1, 1, 9), 8)}

	_, err := src.ReadRegion(context.Background(), RegionRequest{
		Level: 5,
		Rect:  geometry.RectInt{Width: 1, Height: 1},
	})
	assert.Error(t, err)
}

func TestMemorySourceHonorsCancellation(t *testing.T) {
	src := &MemorySource{
		Pyramid: BuildPyramid(uniform(8, 8, 1, 1, 9), 8),
		Delay:   time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.ReadRegion(ctx, RegionRequest{Rect: geometry.RectInt{Width: 8, Height: 8}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVolumeAtClamps(t *testing.T) {
	v := New(4, 4, 2, 1)
	v.Set(0, 3, 3, 1, 123)

	assert.Equal(t, uint8(123), v.At(0, 3, 3, 1))
	assert.Equal(t, uint8(123), v.At(0, 10, 10, 10), "reads clamp to the edge")
	assert.Equal(t, uint8(0), v.At(5, 0, 0, 0), "bad channel reads zero")
}

func TestLabelAtExact(t *testing.T) {
	v := New(2, 2, 1, 1)
	v.Labels = []uint32{1, 2, 3, 4}

	assert.Equal(t, uint32(1), v.LabelAt(0, 0, 0))
	assert.Equal(t, uint32(4), v.LabelAt(1, 1, 0))
	assert.Equal(t, uint32(4), v.LabelAt(9, 9, 9))

	v.Labels = nil
	assert.Zero(t, v.LabelAt(0, 0, 0))
}
