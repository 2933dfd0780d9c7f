// Package view owns the planar view state: zoom scale, pan offset, and
// rotation, plus the screen/block coordinate transforms derived from them.
package view

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"volscope/internal/render"
	"volscope/pkg/geometry"
)

// Zoom bounds.
const (
	MinScale = 0.05
	MaxScale = 40.0
)

// scaleEpsilon guards divisions by a near-zero scale.
const scaleEpsilon = 1e-6

// View holds the current planar view transform. One instance per viewer;
// mutated only from the UI event goroutine, read at draw time.
type View struct {
	Scale    float64
	OffsetX  float64 // pan, screen pixels
	OffsetY  float64
	Rotation float64 // radians
}

// New returns an identity view.
func New() *View {
	return &View{Scale: 1}
}

// Zoom multiplies the scale by factor, clamped to [MinScale, MaxScale].
func (v *View) Zoom(factor float64) {
	v.Scale = clampScale(v.Scale * factor)
}

// Pan shifts the view by (dx, dy) screen pixels.
func (v *View) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// Rotate adds delta radians to the view rotation.
func (v *View) Rotate(delta float64) {
	v.Rotation += delta
}

// ResetOrFit resets the view to identity when the layout has no extent;
// otherwise it zeroes pan and rotation and picks the scale that fits the
// whole block inside the viewport.
func (v *View) ResetOrFit(viewport geometry.Size, layout render.Layout) {
	v.OffsetX = 0
	v.OffsetY = 0
	v.Rotation = 0
	if layout.Empty() || viewport.Width <= 0 || viewport.Height <= 0 {
		v.Scale = 1
		return
	}
	fit := math.Min(viewport.Width/layout.Block.Width, viewport.Height/layout.Block.Height)
	v.Scale = clampScale(fit)
}

// safeScale returns the scale floored away from zero for use as a divisor.
func (v *View) safeScale() float64 {
	if v.Scale < scaleEpsilon {
		return scaleEpsilon
	}
	return v.Scale
}

// matrix builds the homogeneous block-to-screen affine:
// translate(viewport center + pan) * rotate * scale * translate(-block center).
func (v *View) matrix(viewport geometry.Size, layout render.Layout) *mat.Dense {
	s := v.safeScale()
	sin, cos := math.Sincos(v.Rotation)
	center := layout.Center()

	translateIn := mat.NewDense(3, 3, []float64{
		1, 0, -center.X,
		0, 1, -center.Y,
		0, 0, 1,
	})
	rotScale := mat.NewDense(3, 3, []float64{
		cos * s, -sin * s, 0,
		sin * s, cos * s, 0,
		0, 0, 1,
	})
	translateOut := mat.NewDense(3, 3, []float64{
		1, 0, viewport.Width/2 + v.OffsetX,
		0, 1, viewport.Height/2 + v.OffsetY,
		0, 0, 1,
	})

	var m mat.Dense
	m.Mul(rotScale, translateIn)
	m.Mul(translateOut, &m)
	return &m
}

// Projector is a captured block-to-screen transform, cheap to apply to many
// points (track projection during picking and overlay drawing).
type Projector struct {
	m *mat.Dense
}

// Projector captures the current block-to-screen transform.
func (v *View) Projector(viewport geometry.Size, layout render.Layout) Projector {
	return Projector{m: v.matrix(viewport, layout)}
}

// Apply maps a block-space point to screen space.
func (p Projector) Apply(pt geometry.Point2D) geometry.Point2D {
	m := p.m
	return geometry.Point2D{
		X: m.At(0, 0)*pt.X + m.At(0, 1)*pt.Y + m.At(0, 2),
		Y: m.At(1, 0)*pt.X + m.At(1, 1)*pt.Y + m.At(1, 2),
	}
}

// BlockToScreen maps a block-space point to screen space under the current
// transform.
func (v *View) BlockToScreen(p geometry.Point2D, viewport geometry.Size, layout render.Layout) geometry.Point2D {
	return v.Projector(viewport, layout).Apply(p)
}

// ScreenToBlock maps a screen-space point back into block space: undo the
// viewport-center and pan translation, inverse-rotate, divide by scale, then
// restore the block-center origin.
func (v *View) ScreenToBlock(p geometry.Point2D, viewport geometry.Size, layout render.Layout) geometry.Point2D {
	var inv mat.Dense
	if err := inv.Inverse(v.matrix(viewport, layout)); err != nil {
		// Singular only when scale underflows; safeScale makes this
		// unreachable, but fall back to the untransformed point.
		return p
	}
	return Projector{m: &inv}.Apply(p)
}

// VisibleBlockRect returns the axis-aligned block-space rectangle covering
// everything currently visible in the viewport, by mapping the four viewport
// corners through the inverse transform.
func (v *View) VisibleBlockRect(viewport geometry.Size, layout render.Layout) geometry.Rect {
	corners := []geometry.Point2D{
		{X: 0, Y: 0},
		{X: viewport.Width, Y: 0},
		{X: 0, Y: viewport.Height},
		{X: viewport.Width, Y: viewport.Height},
	}
	var pts []geometry.Point2D
	for _, c := range corners {
		pts = append(pts, v.ScreenToBlock(c, viewport, layout))
	}
	return geometry.PolylineBounds(pts)
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
