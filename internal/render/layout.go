// Package render provides the slice layout engine, per-layer samplers, and
// the software compositor that flattens visible channel layers into one RGBA
// image.
package render

import (
	"math"

	"volscope/pkg/geometry"
)

// orthoGap is the fixed pixel gap between the XY pane and the orthogonal
// panes in the block layout.
const orthoGap = 10.0

// VoxelScale is the per-axis display scale applied to voxel dimensions when
// deriving pane sizes. Values that are non-positive or non-finite are
// treated as 1.
type VoxelScale struct {
	X float64
	Y float64
	Z float64
}

// Sanitized returns the scale with invalid components replaced by 1.
func (s VoxelScale) Sanitized() VoxelScale {
	fix := func(v float64) float64 {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 1
		}
		return v
	}
	return VoxelScale{X: fix(s.X), Y: fix(s.Y), Z: fix(s.Z)}
}

// Pane is one slice view's rectangle within the block coordinate space.
type Pane struct {
	Origin geometry.Point2D
	Size   geometry.Size
}

// Center returns the pane's center in block coordinates.
func (p Pane) Center() geometry.Point2D {
	return geometry.Point2D{
		X: p.Origin.X + p.Size.Width/2,
		Y: p.Origin.Y + p.Size.Height/2,
	}
}

// Layout is the derived arrangement of slice panes within the shared block
// coordinate space: a single XY view, or XY plus the two orthogonal views.
type Layout struct {
	Block    geometry.Size
	XY       Pane
	XZ       Pane
	ZY       Pane
	HasOrtho bool
}

// Center returns the center of the whole block.
func (l Layout) Center() geometry.Point2D {
	return geometry.Point2D{X: l.Block.Width / 2, Y: l.Block.Height / 2}
}

// Empty returns true if the layout has no extent.
func (l Layout) Empty() bool {
	return l.Block.Width <= 0 || l.Block.Height <= 0
}

// ComputeLayout derives the block layout for a volume of the given voxel
// dimensions. With depth <= 1 or ortho disabled, the block is exactly the XY
// pane. Otherwise the ZY pane sits right of XY and the XZ pane below it,
// separated by a fixed gap. A zero-sized volume yields a zero layout.
func ComputeLayout(width, height, depth int, scale VoxelScale, ortho bool) Layout {
	if width <= 0 || height <= 0 || depth <= 0 {
		return Layout{}
	}
	s := scale.Sanitized()

	xyW := float64(width) * s.X
	xyH := float64(height) * s.Y
	zExt := float64(depth) * s.Z

	layout := Layout{
		XY: Pane{Size: geometry.NewSize(xyW, xyH)},
	}
	if depth <= 1 || !ortho {
		layout.Block = geometry.NewSize(xyW, xyH)
		return layout
	}

	layout.HasOrtho = true
	layout.ZY = Pane{
		Origin: geometry.Point2D{X: xyW + orthoGap},
		Size:   geometry.NewSize(zExt, xyH),
	}
	layout.XZ = Pane{
		Origin: geometry.Point2D{Y: xyH + orthoGap},
		Size:   geometry.NewSize(xyW, zExt),
	}
	layout.Block = geometry.NewSize(xyW+orthoGap+zExt, xyH+orthoGap+zExt)
	return layout
}
