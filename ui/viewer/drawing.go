package viewer

import (
	"image"
	"image/color"
	"math"

	"volscope/internal/app"
	"volscope/internal/render"
	"volscope/internal/track"
	"volscope/pkg/geometry"
)

const (
	minLineWidth = 0.1
	maxLineWidth = 10.0

	followedWidthBoost = 1.35
	selectedWidthBoost = 1.5
)

// draw renders the full widget raster: the composited slice panes blitted
// through the view transform, then the track overlay on top.
func (v *Viewer) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return out
	}

	viewport := geometry.NewSize(float64(w), float64(h))

	v.mu.Lock()
	resized := viewport != v.viewport
	v.viewport = viewport
	v.ensureLayoutLocked()
	layout := v.layout
	v.ensureImagesLocked(layout)
	v.ensureEntriesLocked(layout)
	xy, xz, zy := v.xyImage, v.xzImage, v.zyImage
	entries := v.entries
	v.mu.Unlock()

	if resized {
		go v.requestRegions()
	}
	if layout.Empty() {
		return out
	}

	v.followTrack(layout)

	v.blit(out, layout, xy, xz, zy)
	v.drawTracks(out, viewport, layout, entries)
	return out
}

// ensureLayoutLocked recomputes the block layout when invalidated, fitting
// the view on the first layout after a dataset load and preserving the
// on-screen anchor when the block center moves afterwards.
func (v *Viewer) ensureLayoutLocked() {
	if v.layoutValid {
		return
	}
	prev := v.layout
	scale := v.state.VoxelScale
	var next render.Layout
	if !v.state.Primary.Empty() {
		next = render.ComputeLayout(
			v.state.Primary.Width, v.state.Primary.Height, v.state.Primary.Depth,
			scale, v.state.OrthoViews)
	}
	v.layout = next
	v.layoutValid = true

	if next.Empty() {
		return
	}
	if !v.fitted {
		v.view.ResetOrFit(v.viewport, next)
		v.fitted = true
		return
	}
	if prev.Empty() {
		return
	}
	// Keep the block point under the viewport center fixed when the block
	// center shifts: offset' = offset + R*S*(c' - c).
	dc := next.Center().Sub(prev.Center())
	sin, cos := math.Sincos(v.view.Rotation)
	s := v.view.Scale
	v.view.OffsetX += (cos*dc.X - sin*dc.Y) * s
	v.view.OffsetY += (sin*dc.X + cos*dc.Y) * s
}

// ensureImagesLocked recomposites the slice panes when invalidated. The
// orthogonal panes are anchored at the volume center.
func (v *Viewer) ensureImagesLocked(layout render.Layout) {
	if v.imgValid || layout.Empty() || v.state.Primary.Empty() {
		return
	}
	vol := v.state.Primary
	scale := v.state.VoxelScale

	base := render.Params{
		PrimaryWidth:  vol.Width,
		PrimaryHeight: vol.Height,
		PrimaryDepth:  vol.Depth,
		Regions:       v.regions,
	}

	p := base
	p.Plane = render.PlaneXY
	p.Anchor = v.state.SliceIndex
	p.Width = int(layout.XY.Size.Width + 0.5)
	p.Height = int(layout.XY.Size.Height + 0.5)
	p.ScaleU = scale.X
	p.ScaleV = scale.Y
	v.xyImage = render.Composite(v.state.Layers, p)

	if layout.HasOrtho {
		p = base
		p.Plane = render.PlaneXZ
		p.Anchor = vol.Height / 2
		p.Width = int(layout.XZ.Size.Width + 0.5)
		p.Height = int(layout.XZ.Size.Height + 0.5)
		p.ScaleU = scale.X
		p.ScaleV = scale.Z
		v.xzImage = render.Composite(v.state.Layers, p)

		p = base
		p.Plane = render.PlaneZY
		p.Anchor = vol.Width / 2
		p.Width = int(layout.ZY.Size.Width + 0.5)
		p.Height = int(layout.ZY.Size.Height + 0.5)
		p.ScaleU = scale.Z
		p.ScaleV = scale.Y
		v.zyImage = render.Composite(v.state.Layers, p)
	} else {
		v.xzImage = nil
		v.zyImage = nil
	}
	v.imgValid = true
}

// ensureEntriesLocked rebuilds the track render entries for the current time
// cursor.
func (v *Viewer) ensureEntriesLocked(layout render.Layout) {
	if v.entriesValid {
		return
	}
	scale := v.state.VoxelScale
	v.entries = track.BuildRenderEntries(
		v.state.Tracks, v.state.TimeIndex,
		scale.X, scale.Y,
		layout.XY.Origin, v.state.TrackOffset)
	v.entriesValid = true
}

// blit maps every output pixel back into block space through the inverse
// view transform and copies the nearest pane pixel. The rotation and scale
// factors are hoisted out of the pixel loop.
func (v *Viewer) blit(out *image.RGBA, layout render.Layout, xy, xz, zy *render.SliceImage) {
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()

	sin, cos := math.Sincos(v.view.Rotation)
	scale := v.view.Scale
	if scale < 1e-9 {
		scale = 1e-9
	}
	inv := 1 / scale
	cx := float64(w)/2 + v.view.OffsetX
	cy := float64(h)/2 + v.view.OffsetY
	center := layout.Center()

	for py := 0; py < h; py++ {
		dy := float64(py) - cy
		row := out.Pix[py*out.Stride : py*out.Stride+w*4]
		for px := 0; px < w; px++ {
			dx := float64(px) - cx
			// Inverse rotation then inverse scale.
			bx := (cos*dx+sin*dy)*inv + center.X
			by := (-sin*dx+cos*dy)*inv + center.Y

			off := px * 4
			if !copyPane(row[off:off+4], layout.XY, xy, bx, by) &&
				layout.HasOrtho {
				if !copyPane(row[off:off+4], layout.XZ, xz, bx, by) {
					copyPane(row[off:off+4], layout.ZY, zy, bx, by)
				}
			}
			row[off+3] = 0xFF
		}
	}
}

// copyPane copies the pane pixel under a block coordinate into dst, or
// returns false when the coordinate misses the pane.
func copyPane(dst []uint8, pane render.Pane, img *render.SliceImage, bx, by float64) bool {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return false
	}
	lx := bx - pane.Origin.X
	ly := by - pane.Origin.Y
	if lx < 0 || ly < 0 || lx >= pane.Size.Width || ly >= pane.Size.Height {
		return false
	}
	ix := int(lx)
	iy := int(ly)
	if ix >= img.Width {
		ix = img.Width - 1
	}
	if iy >= img.Height {
		iy = img.Height - 1
	}
	off := (iy*img.Width + ix) * 4
	copy(dst, img.Pix[off:off+4])
	return true
}

// drawTracks projects every render entry into screen space and strokes its
// polyline, widening and highlighting the hovered, selected, and followed
// tracks. The current endpoint gets a filled marker.
func (v *Viewer) drawTracks(out *image.RGBA, viewport geometry.Size, layout render.Layout, entries []track.RenderEntry) {
	if len(entries) == 0 {
		return
	}
	projector := v.view.Projector(viewport, layout)

	selected := v.state.SelectedTrack
	followed := v.state.FollowedTrack
	hovered := v.state.HoveredTrack

	for _, e := range entries {
		style, ok := v.state.Styles[e.Channel]
		if !ok {
			style = app.ChannelStyle{LineWidth: 1.5, Opacity: 1}
		}
		lw := clampf(style.LineWidth, minLineWidth, maxLineWidth)
		c := e.Color
		switch {
		case e.TrackID == selected:
			lw *= selectedWidthBoost
			c = e.Highlight
		case e.TrackID == followed:
			lw *= followedWidthBoost
			c = e.Highlight
		case e.TrackID == hovered:
			c = e.Highlight
		}
		c.A = opacityByte(style.Opacity)

		thickness := int(math.Round(lw))
		if thickness < 1 {
			thickness = 1
		}

		var prev geometry.Point2D
		for i, p := range e.Points {
			sp := projector.Apply(p)
			if i > 0 {
				drawLine(out, prev, sp, c, thickness)
			}
			prev = sp
		}
		// Marker at the track's current position.
		fillCircle(out, prev, float64(thickness)+track.EndpointRadius-1, c)
	}
}

// drawLine strokes a thick line with Bresenham stepping, stamping a filled
// square of the given thickness at each step.
func drawLine(img *image.RGBA, a, b geometry.Point2D, c color.RGBA, thickness int) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	half := thickness / 2
	for {
		stamp(img, x0, y0, half, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// stamp fills a (2*half+1)-sized square centered at (x, y).
func stamp(img *image.RGBA, x, y, half int, c color.RGBA) {
	for oy := -half; oy <= half; oy++ {
		for ox := -half; ox <= half; ox++ {
			blendPixel(img, x+ox, y+oy, c)
		}
	}
}

// fillCircle fills a disc centered at p.
func fillCircle(img *image.RGBA, p geometry.Point2D, r float64, c color.RGBA) {
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	ri := int(math.Ceil(r))
	r2 := r * r
	for oy := -ri; oy <= ri; oy++ {
		for ox := -ri; ox <= ri; ox++ {
			if float64(ox*ox+oy*oy) <= r2 {
				blendPixel(img, cx+ox, cy+oy, c)
			}
		}
	}
}

// blendPixel source-over blends c onto the image at (x, y).
func blendPixel(img *image.RGBA, x, y int, c color.RGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if c.A == 0xFF {
		img.SetRGBA(x, y, c)
		return
	}
	off := img.PixOffset(x, y)
	a := uint32(c.A)
	na := 255 - a
	img.Pix[off] = uint8((uint32(c.R)*a + uint32(img.Pix[off])*na) / 255)
	img.Pix[off+1] = uint8((uint32(c.G)*a + uint32(img.Pix[off+1])*na) / 255)
	img.Pix[off+2] = uint8((uint32(c.B)*a + uint32(img.Pix[off+2])*na) / 255)
	img.Pix[off+3] = 0xFF
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func opacityByte(o float64) uint8 {
	if o <= 0 {
		return 0
	}
	if o >= 1 {
		return 0xFF
	}
	return uint8(o*255 + 0.5)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
