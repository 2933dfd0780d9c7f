package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

func testSource(value uint8, delay time.Duration) *volume.MemorySource {
	vol := volume.New(64, 64, 4, 1)
	for i := range vol.Data {
		vol.Data[i] = value
	}
	return &volume.MemorySource{
		Pyramid: volume.BuildPyramid(vol, 16),
		Delay:   delay,
	}
}

func fullParams() Params {
	return Params{
		ViewScale:  1,
		PixelRatio: 1,
		Visible:    geometry.Rect{X: 0, Y: 0, Width: 64, Height: 64},
		Slice:      0,
	}
}

func waitBatch(t *testing.T, s *Session) Batch {
	t.Helper()
	select {
	case b := <-s.Batches():
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
		return Batch{}
	}
}

func TestSessionFetchDeliversRegions(t *testing.T) {
	s := NewSession(nil)
	layers := []LayerRequest{{Layer: 0, Source: testSource(42, 0)}}

	gen := s.Fetch(layers, fullParams())
	b := waitBatch(t, s)

	assert.Equal(t, gen, b.Gen)
	require.Contains(t, b.Regions, 0)
	region := b.Regions[0]
	assert.Equal(t, 64, region.Width)
	assert.Equal(t, uint8(42), region.At(0, 10, 10))
	assert.Equal(t, 1, s.Cache().Len())
}

func TestSessionNewerGenerationSupersedes(t *testing.T) {
	s := NewSession(nil)
	slow := []LayerRequest{{Layer: 0, Source: testSource(1, 200 * time.Millisecond)}}

	s.Fetch(slow, fullParams())
	time.Sleep(20 * time.Millisecond)

	p2 := fullParams()
	p2.Slice = 1
	gen2 := s.Fetch(slow, p2)

	b := waitBatch(t, s)
	assert.Equal(t, gen2, b.Gen, "superseded generation must not publish")

	// The cancelled generation never cached its region.
	select {
	case stale := <-s.Batches():
		t.Fatalf("unexpected second batch: gen %d", stale.Gen)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, 1, s.Cache().Len())
}

func TestSessionServesFromCache(t *testing.T) {
	s := NewSession(nil)
	layers := []LayerRequest{{Layer: 0, Source: testSource(7, 0)}}

	s.Fetch(layers, fullParams())
	first := waitBatch(t, s)
	require.Contains(t, first.Regions, 0)

	// An identical fetch hits the cache and returns the same region.
	s.Fetch(layers, fullParams())
	second := waitBatch(t, s)
	assert.Same(t, first.Regions[0], second.Regions[0])
	assert.Equal(t, 1, s.Cache().Len())
}

func TestSessionCancelStopsPublication(t *testing.T) {
	s := NewSession(nil)
	slow := []LayerRequest{{Layer: 0, Source: testSource(1, 150 * time.Millisecond)}}

	s.Fetch(slow, fullParams())
	s.Cancel()

	select {
	case b := <-s.Batches():
		t.Fatalf("cancelled fetch published batch gen %d", b.Gen)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestSessionGenerationIncrements(t *testing.T) {
	s := NewSession(nil)
	layers := []LayerRequest{{Layer: 0, Source: testSource(1, 0)}}

	g1 := s.Fetch(layers, fullParams())
	g2 := s.Fetch(layers, fullParams())
	assert.Greater(t, g2, g1)
}

func TestSessionMultipleLayers(t *testing.T) {
	s := NewSession(nil)
	layers := []LayerRequest{
		{Layer: 0, Source: testSource(10, 0)},
		{Layer: 3, Source: testSource(20, 0)},
	}

	s.Fetch(layers, fullParams())
	b := waitBatch(t, s)

	require.Len(t, b.Regions, 2)
	assert.Equal(t, uint8(10), b.Regions[0].At(0, 0, 0))
	assert.Equal(t, uint8(20), b.Regions[3].At(0, 0, 0))
}
