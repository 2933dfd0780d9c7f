package render

// LayerProbe is one layer's raw readout at a voxel, used for hover display.
type LayerProbe struct {
	LayerID      int
	Values       []uint8
	Label        uint32
	Segmentation bool
}

// Probe reads the raw channel values (and segmentation label, if any) of
// every visible dense layer at the given voxel. Segmentation layers use
// exact nearest-voxel lookup since label ids must not be blended. Streamed
// layers are not probed.
func Probe(layers []*Layer, x, y, z int) []LayerProbe {
	var probes []LayerProbe
	for _, l := range layers {
		if l == nil || !l.Visible || l.Volume == nil || l.Volume.Empty() {
			continue
		}
		p := LayerProbe{LayerID: l.ID, Segmentation: l.Segmentation}
		if l.Segmentation {
			p.Label = l.Volume.LabelAt(x, y, z)
		}
		for c := 0; c < l.Volume.Channels; c++ {
			p.Values = append(p.Values, l.Volume.At(c, x, y, z))
		}
		probes = append(probes, p)
	}
	return probes
}
