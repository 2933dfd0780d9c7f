package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

func testLevels(factors ...int) []volume.LevelInfo {
	levels := make([]volume.LevelInfo, len(factors))
	for i, f := range factors {
		levels[i] = volume.LevelInfo{
			Width: 1024 / f, Height: 1024 / f, Depth: 16,
			ScaleX: f, ScaleY: f, ScaleZ: 1, Channels: 1,
		}
	}
	return levels
}

func TestDesiredScale(t *testing.T) {
	assert.Equal(t, 2.0, DesiredScale(0.5, 1))
	assert.Equal(t, 4.0, DesiredScale(0.5, 0.5))

	// Zooming past full resolution still reads level 0.
	assert.Equal(t, 1.0, DesiredScale(2, 1))
	assert.Equal(t, 1.0, DesiredScale(1, 1))
}

func TestPickLevelClosest(t *testing.T) {
	levels := testLevels(1, 2, 4, 8)

	assert.Equal(t, 0, PickLevel(levels, 1))
	assert.Equal(t, 1, PickLevel(levels, 2.4))
	assert.Equal(t, 2, PickLevel(levels, 5))
	assert.Equal(t, 3, PickLevel(levels, 100))
}

func TestPickLevelTiePrefersHigherResolution(t *testing.T) {
	// Desired 3 is equidistant from factors 2 and 4.
	assert.Equal(t, 1, PickLevel(testLevels(1, 2, 4, 8), 3))

	// Order-independent: same answer with the list reversed.
	assert.Equal(t, 2, PickLevel(testLevels(8, 4, 2, 1), 3))
}

func TestPickLevelEmpty(t *testing.T) {
	assert.Equal(t, -1, PickLevel(nil, 2))
}

func TestLevelRegion(t *testing.T) {
	info := volume.LevelInfo{Width: 16, Height: 16, Depth: 4, ScaleX: 2, ScaleY: 2, ScaleZ: 2}
	visible := geometry.Rect{X: 10, Y: 10, Width: 20, Height: 20}

	r := LevelRegion(info, visible, 8)
	assert.Equal(t, geometry.RectInt{X: 1, Y: 1, Width: 15, Height: 15}, r)
}

func TestLevelRegionOutsideLevel(t *testing.T) {
	info := volume.LevelInfo{Width: 16, Height: 16, ScaleX: 1, ScaleY: 1}
	visible := geometry.Rect{X: 100, Y: 100, Width: 10, Height: 10}

	r := LevelRegion(info, visible, 0)
	assert.True(t, r.Empty())
}

func TestSliceAtLevel(t *testing.T) {
	info := volume.LevelInfo{Depth: 4, ScaleZ: 2}
	assert.Equal(t, 0, SliceAtLevel(info, 0))
	assert.Equal(t, 3, SliceAtLevel(info, 7))
	assert.Equal(t, 3, SliceAtLevel(info, 100))
	assert.Equal(t, 0, SliceAtLevel(info, -5))
}
