package geometry

import "math"

// DistanceToSegment returns the shortest distance from point p to the line
// segment between a and b.
func DistanceToSegment(p, a, b Point2D) float64 {
	abX := b.X - a.X
	abY := b.Y - a.Y
	lenSq := abX*abX + abY*abY
	if lenSq < 1e-12 {
		// Degenerate segment, treat as a point.
		return p.Distance(a)
	}

	t := ((p.X-a.X)*abX + (p.Y-a.Y)*abY) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	proj := Point2D{X: a.X + t*abX, Y: a.Y + t*abY}
	return p.Distance(proj)
}

// DistanceToPolyline returns the shortest distance from point p to a polyline,
// taking the minimum over every vertex and every segment between consecutive
// vertices. Returns +Inf for an empty polyline.
func DistanceToPolyline(p Point2D, points []Point2D) float64 {
	best := math.Inf(1)
	for i, pt := range points {
		if d := p.Distance(pt); d < best {
			best = d
		}
		if i > 0 {
			if d := DistanceToSegment(p, points[i-1], pt); d < best {
				best = d
			}
		}
	}
	return best
}

// PolylineBounds returns the bounding rectangle of a polyline, or an empty
// Rect if the polyline has no points.
func PolylineBounds(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
