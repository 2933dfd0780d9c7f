package render

import (
	"math"

	"volscope/internal/volume"
)

// Plane selects which slice orientation the compositor renders. The
// orthogonal planes reuse the same sampler machinery but hold one axis fixed
// at an anchor coordinate.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneZY
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneXZ:
		return "XZ"
	case PlaneZY:
		return "ZY"
	default:
		return "Unknown"
	}
}

// sampler produces raw 0-255 channel values at fractional plane coordinates.
// Returns false when the layer has no data at that position.
type sampler interface {
	sample(u, v float64, out []float64) bool
	channels() int
}

// exactEpsilon decides when a sample position counts as landing exactly on a
// voxel, in which case no interpolation is performed.
const exactEpsilon = 1e-9

// denseSampler reads from an in-memory volume. With a zero offset and
// integral sample positions it performs exact lookups; otherwise it
// bilinearly interpolates the four neighboring voxels, clamping each axis to
// the volume edge independently.
type denseSampler struct {
	vol     *volume.Volume
	plane   Plane
	anchor  int // fixed coordinate on the third axis
	offsetX float64
	offsetY float64
}

func (s *denseSampler) channels() int {
	return s.vol.Channels
}

// voxelAt maps plane coordinates to a voxel sample through the plane's axis
// assignment.
func (s *denseSampler) voxelAt(c, u, v int) uint8 {
	switch s.plane {
	case PlaneXZ:
		return s.vol.At(c, u, s.anchor, v)
	case PlaneZY:
		return s.vol.At(c, s.anchor, v, u)
	default:
		return s.vol.At(c, u, v, s.anchor)
	}
}

func (s *denseSampler) sample(u, v float64, out []float64) bool {
	pu := u - s.offsetX
	pv := v - s.offsetY

	u0 := math.Floor(pu)
	v0 := math.Floor(pv)
	fu := pu - u0
	fv := pv - v0
	iu := int(u0)
	iv := int(v0)

	if fu < exactEpsilon && fv < exactEpsilon {
		for c := 0; c < s.vol.Channels; c++ {
			out[c] = float64(s.voxelAt(c, iu, iv))
		}
		return true
	}

	for c := 0; c < s.vol.Channels; c++ {
		s00 := float64(s.voxelAt(c, iu, iv))
		s10 := float64(s.voxelAt(c, iu+1, iv))
		s01 := float64(s.voxelAt(c, iu, iv+1))
		s11 := float64(s.voxelAt(c, iu+1, iv+1))
		out[c] = (s00*(1-fu)+s10*fu)*(1-fv) + (s01*(1-fu)+s11*fu)*fv
	}
	return true
}

// regionSampler reads from a cached streamed region. Plane coordinates are
// de-offset, divided by the region's per-axis downsample factor, and shifted
// by the region's origin before the same four-neighbor interpolation.
type regionSampler struct {
	region  *volume.Region
	offsetX float64
	offsetY float64
}

func (s *regionSampler) channels() int {
	return s.region.Channels
}

func (s *regionSampler) sample(u, v float64, out []float64) bool {
	sx := float64(s.region.ScaleX)
	sy := float64(s.region.ScaleY)
	if sx < 1 {
		sx = 1
	}
	if sy < 1 {
		sy = 1
	}

	lu := (u-s.offsetX)/sx - float64(s.region.X)
	lv := (v-s.offsetY)/sy - float64(s.region.Y)

	u0 := math.Floor(lu)
	v0 := math.Floor(lv)
	fu := lu - u0
	fv := lv - v0
	iu := int(u0)
	iv := int(v0)

	for c := 0; c < s.region.Channels; c++ {
		s00 := float64(s.region.At(c, iu, iv))
		s10 := float64(s.region.At(c, iu+1, iv))
		s01 := float64(s.region.At(c, iu, iv+1))
		s11 := float64(s.region.At(c, iu+1, iv+1))
		out[c] = (s00*(1-fu)+s10*fu)*(1-fv) + (s01*(1-fu)+s11*fu)*fv
	}
	return true
}
