package track

import (
	"math"

	"volscope/pkg/geometry"
)

// Picking constants. The hit threshold never drops below MinPickDistance so
// thin tracks stay clickable at high zoom.
const (
	MinPickDistance = 5.0
	EndpointRadius  = 4.0

	followedWidthBoost = 1.35
	selectedWidthBoost = 1.5

	minLineWidth = 0.1
	maxLineWidth = 10.0
)

// distanceTieEpsilon decides when two candidate distances count as equal for
// the lowest-id tie-break.
const distanceTieEpsilon = 1e-9

// Candidate is one track considered for picking, with the channel styling
// and selection state that drive its visibility and hit threshold.
type Candidate struct {
	Entry RenderEntry

	LineWidth float64 // channel stroke width, block-independent
	Opacity   float64 // channel opacity; zero hides unless followed/selected
	Visible   bool
	Followed  bool
	Selected  bool
}

// eligible applies the visibility rule: explicitly visible, currently
// followed, or currently selected — and not hidden by zero channel opacity
// unless followed or selected.
func (c Candidate) eligible() bool {
	if !c.Visible && !c.Followed && !c.Selected {
		return false
	}
	if c.Opacity <= 0 && !c.Followed && !c.Selected {
		return false
	}
	return true
}

// threshold returns the candidate's hit distance in screen pixels.
func (c Candidate) threshold(viewScale float64) float64 {
	lw := c.LineWidth
	if lw < minLineWidth {
		lw = minLineWidth
	} else if lw > maxLineWidth {
		lw = maxLineWidth
	}

	mult := 1.0
	if c.Followed {
		mult = followedWidthBoost
	}
	if c.Selected && selectedWidthBoost > mult {
		mult = selectedWidthBoost
	}

	if viewScale < 1e-9 {
		viewScale = 1e-9
	}
	stroke := lw * mult / viewScale

	t := MinPickDistance
	if s := stroke * 0.75; s > t {
		t = s
	}
	if EndpointRadius > t {
		t = EndpointRadius
	}
	return t
}

// Pick finds the track closest to the pointer among candidates whose
// distance falls under their own hit threshold. Distance is the minimum of
// point-to-pointer and point-to-segment distance over the projected
// polyline. Equidistant candidates resolve to the lowest track id. Returns
// false when nothing is hit. Pure function, O(tracks x points).
func Pick(pointer geometry.Point2D, candidates []Candidate, project func(geometry.Point2D) geometry.Point2D, viewScale float64) (int, bool) {
	bestID := 0
	bestDist := math.Inf(1)
	hit := false

	for _, c := range candidates {
		if !c.eligible() || len(c.Entry.Points) == 0 {
			continue
		}

		projected := make([]geometry.Point2D, len(c.Entry.Points))
		for i, p := range c.Entry.Points {
			projected[i] = project(p)
		}
		d := geometry.DistanceToPolyline(pointer, projected)
		if d > c.threshold(viewScale) {
			continue
		}

		switch {
		case !hit || d < bestDist-distanceTieEpsilon:
			bestID = c.Entry.TrackID
			bestDist = d
			hit = true
		case math.Abs(d-bestDist) <= distanceTieEpsilon && c.Entry.TrackID < bestID:
			bestID = c.Entry.TrackID
		}
	}
	return bestID, hit
}
