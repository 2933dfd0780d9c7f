package volume

import (
	"context"
	"fmt"
	"time"

	"volscope/pkg/geometry"
)

// Pyramid is an in-memory mip pyramid: level 0 is the full-resolution volume
// and each successive level halves X and Y (and Z while depth allows).
type Pyramid struct {
	levels []*Volume
	info   []LevelInfo
}

// BuildPyramid constructs a pyramid by repeated 2x box-filter downsampling
// until the smallest level fits within minExtent on both planar axes. A nil
// or empty base yields an empty pyramid.
func BuildPyramid(base *Volume, minExtent int) *Pyramid {
	p := &Pyramid{}
	if base.Empty() {
		return p
	}
	if minExtent < 1 {
		minExtent = 1
	}

	cur := base
	sx, sy, sz := 1, 1, 1
	for {
		p.levels = append(p.levels, cur)
		p.info = append(p.info, LevelInfo{
			Channels: cur.Channels,
			Depth:    cur.Depth,
			Height:   cur.Height,
			Width:    cur.Width,
			ScaleX:   sx,
			ScaleY:   sy,
			ScaleZ:   sz,
		})
		if cur.Width/2 < minExtent || cur.Height/2 < minExtent {
			break
		}
		halveZ := cur.Depth/2 >= 1 && cur.Depth > 1
		cur = downsample(cur, halveZ)
		sx *= 2
		sy *= 2
		if halveZ {
			sz *= 2
		}
	}
	return p
}

// downsample produces a half-resolution copy of v using a box filter over
// each 2x2 (or 2x2x2) neighborhood, clamping at the volume edges.
func downsample(v *Volume, halveZ bool) *Volume {
	w := v.Width / 2
	h := v.Height / 2
	d := v.Depth
	zStep := 1
	if halveZ {
		d = v.Depth / 2
		zStep = 2
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if d < 1 {
		d = 1
	}

	out := New(w, h, d, v.Channels)
	for c := 0; c < v.Channels; c++ {
		for z := 0; z < d; z++ {
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					var sum, n int
					for dz := 0; dz < zStep; dz++ {
						for dy := 0; dy < 2; dy++ {
							for dx := 0; dx < 2; dx++ {
								sum += int(v.At(c, x*2+dx, y*2+dy, z*zStep+dz))
								n++
							}
						}
					}
					out.Set(c, x, y, z, uint8(sum/n))
				}
			}
		}
	}
	return out
}

// Level returns the dense volume backing the given level, or nil if out of
// range.
func (p *Pyramid) Level(i int) *Volume {
	if i < 0 || i >= len(p.levels) {
		return nil
	}
	return p.levels[i]
}

// MemorySource adapts a Pyramid to the Source interface. Reads are
// synchronous copies but honor context cancellation, so the streaming layer
// treats it identically to a remote tiled source. An optional Delay
// simulates read latency for tests.
type MemorySource struct {
	Pyramid *Pyramid
	Delay   time.Duration
}

// Levels implements Source.
func (m *MemorySource) Levels() []LevelInfo {
	return m.Pyramid.info
}

// ReadRegion implements Source. The requested rectangle is clamped to the
// level's shape; the returned region covers the clamped rectangle for every
// channel.
func (m *MemorySource) ReadRegion(ctx context.Context, req RegionRequest) (*Region, error) {
	if req.Level < 0 || req.Level >= len(m.Pyramid.levels) {
		return nil, fmt.Errorf("level %d out of range (have %d)", req.Level, len(m.Pyramid.levels))
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lv := m.Pyramid.levels[req.Level]
	info := m.Pyramid.info[req.Level]
	rect := req.Rect.ClampTo(lv.Width, lv.Height)
	if rect.Empty() {
		return nil, fmt.Errorf("region %+v outside level %d shape %dx%d", req.Rect, req.Level, lv.Width, lv.Height)
	}
	z := clampInt(req.Slice, 0, lv.Depth-1)

	out := &Region{
		Level:    req.Level,
		ScaleX:   info.ScaleX,
		ScaleY:   info.ScaleY,
		ScaleZ:   info.ScaleZ,
		X:        rect.X,
		Y:        rect.Y,
		Width:    rect.Width,
		Height:   rect.Height,
		Channels: lv.Channels,
		Pix:      make([]uint8, lv.Channels*rect.Width*rect.Height),
	}
	for c := 0; c < lv.Channels; c++ {
		for y := 0; y < rect.Height; y++ {
			srcOff := ((c*lv.Depth+z)*lv.Height+rect.Y+y)*lv.Width + rect.X
			dstOff := (c*rect.Height + y) * rect.Width
			copy(out.Pix[dstOff:dstOff+rect.Width], lv.Data[srcOff:srcOff+rect.Width])
		}
	}
	return out, nil
}

var _ Source = (*MemorySource)(nil)

// FullRect returns the rectangle covering an entire level.
func (info LevelInfo) FullRect() geometry.RectInt {
	return geometry.RectInt{Width: info.Width, Height: info.Height}
}
