package stream

import (
	"math"

	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

// DefaultPadding is the fixed pixel padding added around the visible region
// before converting it to level coordinates.
const DefaultPadding = 8.0

// DesiredScale derives the downsample factor the current zoom calls for.
// Never below 1: zooming in past full resolution still reads level 0.
func DesiredScale(viewScale, pixelRatio float64) float64 {
	d := viewScale * pixelRatio
	if d < 1e-9 {
		d = 1e-9
	}
	return math.Max(1, 1/d)
}

// PickLevel returns the index of the level whose downsample factor is
// closest in absolute difference to desired. Ties prefer the
// higher-resolution (smaller factor) candidate, so the choice is
// deterministic regardless of level order. Returns -1 for an empty list.
func PickLevel(levels []volume.LevelInfo, desired float64) int {
	best := -1
	bestErr := math.Inf(1)
	for i, lv := range levels {
		factor := float64(lv.ScaleX)
		e := math.Abs(factor - desired)
		if best < 0 || e < bestErr ||
			(e == bestErr && lv.ScaleX < levels[best].ScaleX) {
			best = i
			bestErr = e
		}
	}
	return best
}

// LevelRegion converts a visible rectangle in full-resolution voxel
// coordinates into a level-local region: pad, divide by the level's per-axis
// scale, round outward to guarantee full coverage, and clamp to the level's
// shape.
func LevelRegion(info volume.LevelInfo, visible geometry.Rect, padding float64) geometry.RectInt {
	padded := visible.Pad(padding)
	sx := float64(info.ScaleX)
	sy := float64(info.ScaleY)
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}
	local := geometry.Rect{
		X:      padded.X / sx,
		Y:      padded.Y / sy,
		Width:  padded.Width / sx,
		Height: padded.Height / sy,
	}
	return local.OuterInt().ClampTo(info.Width, info.Height)
}

// SliceAtLevel maps a full-resolution slice index to the level's depth
// range.
func SliceAtLevel(info volume.LevelInfo, slice int) int {
	sz := info.ScaleZ
	if sz < 1 {
		sz = 1
	}
	s := slice / sz
	if s < 0 {
		s = 0
	}
	if info.Depth > 0 && s > info.Depth-1 {
		s = info.Depth - 1
	}
	return s
}
