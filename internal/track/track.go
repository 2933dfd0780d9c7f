// Package track provides trajectory geometry: time-ordered polylines loaded
// from tracking output, their per-frame render entries, and pointer
// hit-testing against the projected polylines.
package track

import (
	"image/color"
	"sort"

	"volscope/pkg/colorutil"
	"volscope/pkg/geometry"
)

// Point is one timepoint of a track in voxel coordinates.
type Point struct {
	T   int
	Pos geometry.Point3D
}

// Track is a tracked object's trajectory. Points are kept in increasing
// time order.
type Track struct {
	ID      int
	Channel int
	Points  []Point
}

// sortPoints restores the increasing-time invariant.
func (t *Track) sortPoints() {
	sort.SliceStable(t.Points, func(i, j int) bool {
		return t.Points[i].T < t.Points[j].T
	})
}

// PointAt returns the track's position at the time cursor: the latest point
// with T <= cursor. Returns false if the track has not started yet.
func (t *Track) PointAt(cursor int) (geometry.Point3D, bool) {
	var pos geometry.Point3D
	found := false
	for _, p := range t.Points {
		if p.T > cursor {
			break
		}
		pos = p.Pos
		found = true
	}
	return pos, found
}

// RenderEntry is a track's pre-filtered, pre-scaled, pre-offset point list
// for the current time cursor, ready for projection into screen space. No
// future points are included.
type RenderEntry struct {
	TrackID   int
	Channel   int
	Points    []geometry.Point2D // block coordinates
	Color     color.RGBA
	Highlight color.RGBA
}

// BuildRenderEntries converts tracks into render entries for one time
// cursor: points are truncated at the cursor, scaled per axis into block
// pixels, and shifted by the pane origin plus the per-track offset. Tracks
// with no points yet are omitted.
func BuildRenderEntries(tracks []*Track, cursor int, scaleX, scaleY float64, origin, offset geometry.Point2D) []RenderEntry {
	if scaleX <= 0 {
		scaleX = 1
	}
	if scaleY <= 0 {
		scaleY = 1
	}

	var entries []RenderEntry
	for _, t := range tracks {
		if t == nil {
			continue
		}
		var pts []geometry.Point2D
		for _, p := range t.Points {
			if p.T > cursor {
				break
			}
			pts = append(pts, geometry.Point2D{
				X: p.Pos.X*scaleX + origin.X + offset.X,
				Y: p.Pos.Y*scaleY + origin.Y + offset.Y,
			})
		}
		if len(pts) == 0 {
			continue
		}
		base := colorutil.Palette(t.ID)
		entries = append(entries, RenderEntry{
			TrackID:   t.ID,
			Channel:   t.Channel,
			Points:    pts,
			Color:     base,
			Highlight: colorutil.Lighten(base, 0.5),
		})
	}
	return entries
}
