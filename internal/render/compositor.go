package render

import (
	"volscope/internal/volume"
)

// alphaFloor keeps 1- and 2-channel layers faintly legible even at zero
// windowed intensity. A layer is only fully invisible when hidden.
const alphaFloor = 0.05

// Rec.709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// SliceImage is the compositor's output raster: tightly packed RGBA bytes.
// HasLayer reports whether any layer contributed a pixel with alpha > 0,
// used to suppress hover readout when nothing is visible.
type SliceImage struct {
	Width    int
	Height   int
	Pix      []uint8
	HasLayer bool
}

// Params describes one compositing pass.
type Params struct {
	Plane  Plane
	Anchor int // fixed coordinate on the plane's third axis

	// Output raster dimensions (the full pane's pixel dimensions).
	Width  int
	Height int

	// Block pixels per voxel along the pane's horizontal and vertical
	// axes.
	ScaleU float64
	ScaleV float64

	// Regions holds streamed results by layer ID for the current
	// generation. Only the XY plane samples streamed regions.
	Regions map[int]*volume.Region

	// Primary volume dimensions. Dense layers whose volumes disagree are
	// skipped silently.
	PrimaryWidth  int
	PrimaryHeight int
	PrimaryDepth  int
}

type boundSampler struct {
	layer *Layer
	smp   sampler
}

// Composite flattens every visible layer into a single RGBA image.
// Layers blend strictly in list order with the premultiplied "over"
// operator, accumulated in floating point and unpremultiplied once at the
// end. Degenerate dimensions yield an empty image.
func Composite(layers []*Layer, p Params) *SliceImage {
	out := &SliceImage{Width: p.Width, Height: p.Height}
	if p.Width <= 0 || p.Height <= 0 {
		out.Width, out.Height = 0, 0
		return out
	}
	out.Pix = make([]uint8, p.Width*p.Height*4)

	bound := bindSamplers(layers, p)
	if len(bound) == 0 {
		return out
	}

	su := p.ScaleU
	sv := p.ScaleV
	if su < 1e-9 {
		su = 1
	}
	if sv < 1e-9 {
		sv = 1
	}

	raw := make([]float64, 4)
	for py := 0; py < p.Height; py++ {
		v := float64(py) / sv
		for px := 0; px < p.Width; px++ {
			u := float64(px) / su

			var accR, accG, accB, accA float64
			for _, b := range bound {
				if !b.smp.sample(u, v, raw) {
					continue
				}
				r, g, bl, a := shade(b.layer, raw[:b.smp.channels()])
				if a <= 0 {
					continue
				}
				out.HasLayer = true
				// Premultiplied over: accumulate in float, divide
				// only once at the very end.
				accR = r*a + accR*(1-a)
				accG = g*a + accG*(1-a)
				accB = bl*a + accB*(1-a)
				accA = a + accA*(1-a)
			}

			off := (py*p.Width + px) * 4
			if accA > 1e-6 {
				out.Pix[off] = roundByte(accR / accA * 255)
				out.Pix[off+1] = roundByte(accG / accA * 255)
				out.Pix[off+2] = roundByte(accB / accA * 255)
				out.Pix[off+3] = roundByte(accA * 255)
			}
			// accA ~ 0: transparent black, already zeroed.
		}
	}
	return out
}

// bindSamplers builds the per-layer sampler set for one pass, skipping
// hidden layers, dense layers with mismatched dimensions, and streamed
// layers with no cached region this generation.
func bindSamplers(layers []*Layer, p Params) []boundSampler {
	var bound []boundSampler
	for _, l := range layers {
		if l == nil || !l.Visible {
			continue
		}
		switch {
		case l.Volume != nil:
			if l.Volume.Empty() {
				continue
			}
			if l.Volume.Width != p.PrimaryWidth ||
				l.Volume.Height != p.PrimaryHeight ||
				l.Volume.Depth != p.PrimaryDepth {
				continue
			}
			bound = append(bound, boundSampler{
				layer: l,
				smp: &denseSampler{
					vol:     l.Volume,
					plane:   p.Plane,
					anchor:  p.Anchor,
					offsetX: l.OffsetX,
					offsetY: l.OffsetY,
				},
			})
		case l.Source != nil:
			if p.Plane != PlaneXY {
				continue
			}
			region, ok := p.Regions[l.ID]
			if !ok || region == nil {
				continue
			}
			bound = append(bound, boundSampler{
				layer: l,
				smp: &regionSampler{
					region:  region,
					offsetX: l.OffsetX,
					offsetY: l.OffsetY,
				},
			})
		}
	}
	return bound
}

// shade converts raw channel values into a straight-alpha RGBA contribution
// in [0,1] according to the layer's channel count, window, and tint.
func shade(l *Layer, raw []float64) (r, g, b, a float64) {
	switch len(raw) {
	case 1:
		w := l.window(raw[0])
		r = float64(l.Tint.R) / 255 * w
		g = float64(l.Tint.G) / 255 * w
		b = float64(l.Tint.B) / 255 * w
		a = maxf(w, alphaFloor)
	case 2:
		w0 := l.window(raw[0])
		w1 := l.window(raw[1])
		r, g, b = w0, w1, 0
		a = maxf((w0+w1)/2, alphaFloor)
	case 3:
		w0 := l.window(raw[0])
		w1 := l.window(raw[1])
		w2 := l.window(raw[2])
		r, g, b = w0, w1, w2
		a = lumaR*w0 + lumaG*w1 + lumaB*w2
	case 4:
		w0 := l.window(raw[0])
		w1 := l.window(raw[1])
		w2 := l.window(raw[2])
		r, g, b = w0, w1, w2
		// The fourth component is not windowed; it only competes for
		// the luminance that drives alpha.
		a = maxf(maxf(w0, w1), maxf(w2, raw[3]/255))
	default:
		return 0, 0, 0, 0
	}
	return r, g, b, a
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func roundByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
