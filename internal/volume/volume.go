// Package volume provides in-memory volumes, multi-resolution pyramids, and
// the streamable region source interface.
package volume

// Volume is a dense multi-channel volume held fully in memory. Samples are
// stored channel-major: Data[((c*Depth+z)*Height+y)*Width+x].
type Volume struct {
	Width    int
	Height   int
	Depth    int
	Channels int
	Data     []uint8

	// Labels holds optional per-voxel segmentation labels, indexed
	// [z][y][x]. Nil for intensity volumes.
	Labels []uint32
}

// New allocates a zeroed volume with the given dimensions.
func New(width, height, depth, channels int) *Volume {
	if width <= 0 || height <= 0 || depth <= 0 || channels <= 0 {
		return &Volume{}
	}
	return &Volume{
		Width:    width,
		Height:   height,
		Depth:    depth,
		Channels: channels,
		Data:     make([]uint8, width*height*depth*channels),
	}
}

// Empty returns true if the volume holds no samples.
func (v *Volume) Empty() bool {
	return v == nil || v.Width <= 0 || v.Height <= 0 || v.Depth <= 0 || v.Channels <= 0
}

// At returns the sample for channel c at voxel (x, y, z), with each axis
// clamped to the volume bounds. An empty volume reads as zero.
func (v *Volume) At(c, x, y, z int) uint8 {
	if v.Empty() || c < 0 || c >= v.Channels {
		return 0
	}
	x = clampInt(x, 0, v.Width-1)
	y = clampInt(y, 0, v.Height-1)
	z = clampInt(z, 0, v.Depth-1)
	return v.Data[((c*v.Depth+z)*v.Height+y)*v.Width+x]
}

// Set stores a sample for channel c at voxel (x, y, z). Out-of-range
// coordinates are ignored.
func (v *Volume) Set(c, x, y, z int, value uint8) {
	if v.Empty() || c < 0 || c >= v.Channels ||
		x < 0 || x >= v.Width || y < 0 || y >= v.Height || z < 0 || z >= v.Depth {
		return
	}
	v.Data[((c*v.Depth+z)*v.Height+y)*v.Width+x] = value
}

// LabelAt returns the segmentation label at voxel (x, y, z) using exact
// nearest-voxel lookup. Label ids must never be interpolated. Returns 0 when
// the volume carries no labels.
func (v *Volume) LabelAt(x, y, z int) uint32 {
	if v.Empty() || v.Labels == nil {
		return 0
	}
	x = clampInt(x, 0, v.Width-1)
	y = clampInt(y, 0, v.Height-1)
	z = clampInt(z, 0, v.Depth-1)
	return v.Labels[(z*v.Height+y)*v.Width+x]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
