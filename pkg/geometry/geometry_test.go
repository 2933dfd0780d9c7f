package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceToSegment(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 10, Y: 0}

	assert.InDelta(t, 3, DistanceToSegment(Point2D{X: 5, Y: 3}, a, b), 1e-12)

	// Beyond the endpoints the distance is to the nearest endpoint, not
	// the infinite line.
	assert.InDelta(t, 5, DistanceToSegment(Point2D{X: -3, Y: 4}, a, b), 1e-12)
	assert.InDelta(t, 5, DistanceToSegment(Point2D{X: 13, Y: 4}, a, b), 1e-12)

	// Degenerate segment behaves as a point.
	assert.InDelta(t, 5, DistanceToSegment(Point2D{X: 3, Y: 4}, a, a), 1e-12)
}

func TestDistanceToPolyline(t *testing.T) {
	pts := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}

	assert.InDelta(t, 1, DistanceToPolyline(Point2D{X: 5, Y: 1}, pts), 1e-12)
	assert.InDelta(t, 2, DistanceToPolyline(Point2D{X: 12, Y: 5}, pts), 1e-12)
	assert.True(t, math.IsInf(DistanceToPolyline(Point2D{}, nil), 1))

	// Single point polyline.
	assert.InDelta(t, 5, DistanceToPolyline(Point2D{X: 3, Y: 4}, pts[:1]), 1e-12)
}

func TestPolylineBounds(t *testing.T) {
	pts := []Point2D{{X: 3, Y: -1}, {X: -2, Y: 4}, {X: 7, Y: 0}}
	r := PolylineBounds(pts)
	assert.Equal(t, Rect{X: -2, Y: -1, Width: 9, Height: 5}, r)

	assert.Equal(t, Rect{}, PolylineBounds(nil))
}

func TestRectOuterInt(t *testing.T) {
	r := Rect{X: 1.2, Y: -0.7, Width: 3.1, Height: 2.0}.OuterInt()
	assert.Equal(t, RectInt{X: 1, Y: -1, Width: 4, Height: 3}, r)
}

func TestRectIntClampTo(t *testing.T) {
	r := RectInt{X: -2, Y: 3, Width: 10, Height: 10}.ClampTo(6, 8)
	assert.Equal(t, RectInt{X: 0, Y: 3, Width: 6, Height: 5}, r)

	// Fully outside clamps to empty.
	assert.True(t, RectInt{X: 20, Y: 20, Width: 5, Height: 5}.ClampTo(6, 8).Empty())
}

func TestRectPadAndContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 4, Height: 4}.Pad(2)
	assert.Equal(t, Rect{X: 8, Y: 8, Width: 8, Height: 8}, r)
	assert.True(t, r.Contains(Point2D{X: 8, Y: 16}))
	assert.False(t, r.Contains(Point2D{X: 7.9, Y: 12}))
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 2, Height: 2}
	b := Rect{X: 5, Y: -1, Width: 1, Height: 1}
	assert.Equal(t, Rect{X: 0, Y: -1, Width: 6, Height: 3}, a.Union(b))
}
