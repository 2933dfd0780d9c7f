package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscope/internal/volume"
)

func TestProbeReadsRawValues(t *testing.T) {
	vol := volume.New(4, 4, 2, 2)
	vol.Set(0, 1, 2, 1, 40)
	vol.Set(1, 1, 2, 1, 90)

	l := NewLayer(0)
	l.Volume = vol
	// Windowing must not affect the probe readout.
	l.WindowMin = 0.5
	l.WindowMax = 0.6

	probes := Probe([]*Layer{l}, 1, 2, 1)
	require.Len(t, probes, 1)
	assert.Equal(t, []uint8{40, 90}, probes[0].Values)
	assert.False(t, probes[0].Segmentation)
}

func TestProbeSegmentationLabel(t *testing.T) {
	vol := volume.New(2, 2, 1, 1)
	vol.Labels = []uint32{0, 0, 0, 1234}

	l := NewLayer(0)
	l.Volume = vol
	l.Segmentation = true

	probes := Probe([]*Layer{l}, 1, 1, 0)
	require.Len(t, probes, 1)
	assert.True(t, probes[0].Segmentation)
	assert.Equal(t, uint32(1234), probes[0].Label)
}

func TestProbeSkipsHiddenAndStreamed(t *testing.T) {
	hidden := NewLayer(0)
	hidden.Volume = volume.New(2, 2, 1, 1)
	hidden.Visible = false

	streamed := NewLayer(1)
	streamed.Source = &volume.MemorySource{Pyramid: volume.BuildPyramid(volume.New(2, 2, 1, 1), 1)}

	assert.Empty(t, Probe([]*Layer{hidden, streamed}, 0, 0, 0))
}
