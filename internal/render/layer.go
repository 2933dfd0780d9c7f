package render

import (
	"image/color"

	"volscope/internal/volume"
)

// Layer is one channel's renderable state. A layer is backed either by a
// dense in-memory volume or by a streamable source (in which case the
// compositor samples whatever cached region the streaming layer supplies).
type Layer struct {
	ID int

	Volume *volume.Volume // dense backing; nil for streamed layers
	Source volume.Source  // streamed backing; nil for dense layers

	Visible   bool
	WindowMin float64 // normalized [0,1]
	WindowMax float64
	Invert    bool
	Tint      color.RGBA

	// OffsetX/OffsetY shift the layer in XY voxel coordinates. Sub-pixel
	// offsets trigger bilinear sampling.
	OffsetX float64
	OffsetY float64

	// Segmentation marks label volumes: hover probes read exact voxel
	// labels and never interpolate.
	Segmentation bool
}

// NewLayer returns a visible layer with the full window and a white tint.
func NewLayer(id int) *Layer {
	return &Layer{
		ID:        id,
		Visible:   true,
		WindowMax: 1,
		Tint:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// windowSpanEpsilon floors the window range to avoid division by zero.
const windowSpanEpsilon = 1e-5

// window maps a raw 0-255 sample into [0,1] through the layer's window
// range, inverting if requested.
func (l *Layer) window(raw float64) float64 {
	span := l.WindowMax - l.WindowMin
	if span < windowSpanEpsilon {
		span = windowSpanEpsilon
	}
	v := (raw/255 - l.WindowMin) / span
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	if l.Invert {
		v = 1 - v
	}
	return v
}
