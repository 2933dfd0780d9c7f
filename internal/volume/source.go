package volume

import (
	"context"

	"volscope/pkg/geometry"
)

// LevelInfo describes one level of a multi-resolution pyramid. The scale
// factors are the integer per-axis downsample relative to the full-resolution
// level; each is always >= 1.
type LevelInfo struct {
	Channels int
	Depth    int
	Height   int
	Width    int
	ScaleX   int
	ScaleY   int
	ScaleZ   int
}

// RegionRequest identifies an XY sub-region of one Z slice at one mip level.
type RegionRequest struct {
	Level int
	Slice int // z index in level-local coordinates
	Rect  geometry.RectInt

	// Priority is a scheduling hint for remote sources; higher is sooner.
	Priority int
}

// Region is the result of a region read: a rectangle of samples for every
// channel at one mip level. Samples are stored channel-major:
// Pix[(c*Height+y)*Width+x].
type Region struct {
	Level    int
	ScaleX   int
	ScaleY   int
	ScaleZ   int
	X        int // offset of the region within the level
	Y        int
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// At returns the sample for channel c at region-local pixel (x, y), with
// each axis clamped to the region bounds.
func (r *Region) At(c, x, y int) uint8 {
	if r == nil || r.Width <= 0 || r.Height <= 0 || c < 0 || c >= r.Channels {
		return 0
	}
	x = clampInt(x, 0, r.Width-1)
	y = clampInt(y, 0, r.Height-1)
	return r.Pix[(c*r.Height+y)*r.Width+x]
}

// Bytes returns the size of the sample buffer in bytes.
func (r *Region) Bytes() int {
	if r == nil {
		return 0
	}
	return len(r.Pix)
}

// Source is a multi-resolution volume that serves arbitrary sub-regions
// asynchronously. Reads honor context cancellation; a cancelled read returns
// ctx.Err(). The source is owned externally and only borrowed here.
type Source interface {
	Levels() []LevelInfo
	ReadRegion(ctx context.Context, req RegionRequest) (*Region, error)
}
