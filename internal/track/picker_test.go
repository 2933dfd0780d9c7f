package track

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"volscope/pkg/geometry"
)

func identity(p geometry.Point2D) geometry.Point2D { return p }

func lineCandidate(id int, pts ...geometry.Point2D) Candidate {
	return Candidate{
		Entry:     RenderEntry{TrackID: id, Points: pts},
		LineWidth: 1.5,
		Opacity:   1,
		Visible:   true,
	}
}

func TestPickDirectHit(t *testing.T) {
	candidates := []Candidate{
		lineCandidate(1, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0}),
		lineCandidate(2, geometry.Point2D{X: 0, Y: 50}, geometry.Point2D{X: 10, Y: 50}),
	}

	id, ok := Pick(geometry.Point2D{X: 5, Y: 1}, candidates, identity, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestPickMissBeyondThreshold(t *testing.T) {
	candidates := []Candidate{
		lineCandidate(1, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0}),
	}

	_, ok := Pick(geometry.Point2D{X: 5, Y: 100}, candidates, identity, 1)
	assert.False(t, ok)
}

func TestPickTieBreaksToLowestID(t *testing.T) {
	// Two tracks on the exact same polyline.
	pts := []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}
	candidates := []Candidate{
		lineCandidate(7, pts...),
		lineCandidate(3, pts...),
	}

	id, ok := Pick(geometry.Point2D{X: 5, Y: 2}, candidates, identity, 1)
	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestPickSkipsIneligible(t *testing.T) {
	hidden := lineCandidate(1, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0})
	hidden.Visible = false
	zeroOpacity := lineCandidate(2, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0})
	zeroOpacity.Opacity = 0

	_, ok := Pick(geometry.Point2D{X: 5, Y: 0}, []Candidate{hidden, zeroOpacity}, identity, 1)
	assert.False(t, ok)

	// Selection overrides both visibility rules.
	hidden.Selected = true
	id, ok := Pick(geometry.Point2D{X: 5, Y: 0}, []Candidate{hidden}, identity, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestPickUsesProjection(t *testing.T) {
	candidates := []Candidate{
		lineCandidate(1, geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0}),
	}
	shift := func(p geometry.Point2D) geometry.Point2D {
		return geometry.Point2D{X: p.X + 100, Y: p.Y + 100}
	}

	_, ok := Pick(geometry.Point2D{X: 5, Y: 0}, candidates, shift, 1)
	assert.False(t, ok)

	id, ok := Pick(geometry.Point2D{X: 105, Y: 100}, candidates, shift, 1)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

func TestPickSinglePointTrack(t *testing.T) {
	candidates := []Candidate{
		lineCandidate(4, geometry.Point2D{X: 20, Y: 20}),
	}

	id, ok := Pick(geometry.Point2D{X: 22, Y: 21}, candidates, identity, 1)
	assert.True(t, ok)
	assert.Equal(t, 4, id)
}

func TestThresholdGrowsWithStrokeWidth(t *testing.T) {
	thin := Candidate{LineWidth: 1, Opacity: 1, Visible: true}
	thick := Candidate{LineWidth: 10, Opacity: 1, Visible: true}

	// At low zoom the stroke term dominates the floor.
	assert.Greater(t, thick.threshold(0.5), thin.threshold(0.5))

	// At high zoom both collapse to the minimum pick distance.
	assert.Equal(t, MinPickDistance, thin.threshold(10))
	assert.Equal(t, MinPickDistance, thick.threshold(10))
}
