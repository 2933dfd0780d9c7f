// Package viewer provides the slice viewer widget: it blits the compositor's
// output through the view transform, draws track overlays, and routes
// pointer input to pan/zoom/selection.
package viewer

import (
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"volscope/internal/app"
	"volscope/internal/render"
	"volscope/internal/stream"
	"volscope/internal/track"
	"volscope/internal/view"
	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

// Input step sizes.
const (
	PanStep       = 40.0
	RotateStep    = math.Pi / 36
	ZoomStep      = 1.25
	SliceStepFast = 10
)

// animInterval drives continuous redraw while a track is selected or the
// pointer hovers the data.
const animInterval = 33 * time.Millisecond

// Viewer is the interactive slice view widget.
type Viewer struct {
	widget.BaseWidget

	state   *app.State
	view    *view.View
	session *stream.Session

	raster *fynecanvas.Raster

	mu sync.Mutex

	layout      render.Layout
	layoutValid bool
	fitted      bool

	xyImage *render.SliceImage
	xzImage *render.SliceImage
	zyImage *render.SliceImage
	imgValid bool

	entries      []track.RenderEntry
	entriesValid bool

	regions map[int]*volume.Region

	viewport   geometry.Size
	pixelRatio float64

	hovering bool

	animStop chan struct{}

	// OnHover reports the layer probes under the pointer, or nil when the
	// pointer leaves the data.
	OnHover func(probes []render.LayerProbe)
}

// New creates a viewer bound to the given state and streaming session.
func New(state *app.State, session *stream.Session) *Viewer {
	v := &Viewer{
		state:      state,
		view:       view.New(),
		session:    session,
		regions:    make(map[int]*volume.Region),
		pixelRatio: 1,
	}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.ExtendBaseWidget(v)

	state.On(app.EventDatasetLoaded, func(interface{}) {
		v.mu.Lock()
		v.layoutValid = false
		v.imgValid = false
		v.entriesValid = false
		v.fitted = false
		v.regions = make(map[int]*volume.Region)
		v.mu.Unlock()
		v.requestRegions()
		v.raster.Refresh()
	})
	state.On(app.EventSliceChanged, func(interface{}) {
		v.invalidateImages()
		v.requestRegions()
		v.raster.Refresh()
	})
	state.On(app.EventTimeChanged, func(interface{}) {
		v.mu.Lock()
		v.entriesValid = false
		v.mu.Unlock()
		v.raster.Refresh()
	})
	state.On(app.EventSelectionChanged, func(interface{}) {
		v.updateAnimation()
		v.raster.Refresh()
	})
	state.On(app.EventHoverChanged, func(interface{}) {
		v.raster.Refresh()
	})

	go v.consumeBatches()
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *Viewer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// View exposes the view state for keyboard glue and tests.
func (v *Viewer) View() *view.View {
	return v.view
}

// consumeBatches applies settled streaming results on arrival.
func (v *Viewer) consumeBatches() {
	for batch := range v.session.Batches() {
		v.mu.Lock()
		v.regions = batch.Regions
		v.imgValid = false
		v.mu.Unlock()
		v.raster.Refresh()
	}
}

// requestRegions starts a new fetch generation for the current view.
func (v *Viewer) requestRegions() {
	reqs := v.state.StreamRequests()
	if len(reqs) == 0 {
		return
	}

	v.mu.Lock()
	layout := v.layout
	viewport := v.viewport
	v.mu.Unlock()
	if layout.Empty() || viewport.Width <= 0 {
		return
	}

	scale := v.state.VoxelScale
	visible := v.view.VisibleBlockRect(viewport, layout)
	voxels := geometry.Rect{
		X:      (visible.X - layout.XY.Origin.X) / scale.X,
		Y:      (visible.Y - layout.XY.Origin.Y) / scale.Y,
		Width:  visible.Width / scale.X,
		Height: visible.Height / scale.Y,
	}

	v.session.Fetch(reqs, stream.Params{
		ViewScale:  v.view.Scale,
		PixelRatio: v.pixelRatio,
		Visible:    voxels,
		Slice:      v.state.SliceIndex,
	})
}

func (v *Viewer) invalidateImages() {
	v.mu.Lock()
	v.imgValid = false
	v.mu.Unlock()
}

// Zoom scales the view and refreshes the streamed level selection.
func (v *Viewer) Zoom(factor float64) {
	v.view.Zoom(factor)
	v.invalidateImages()
	v.requestRegions()
	v.raster.Refresh()
}

// PanBy shifts the view by screen pixels.
func (v *Viewer) PanBy(dx, dy float64) {
	v.view.Pan(dx, dy)
	v.requestRegions()
	v.raster.Refresh()
}

// RotateBy adds to the view rotation.
func (v *Viewer) RotateBy(delta float64) {
	v.view.Rotate(delta)
	v.requestRegions()
	v.raster.Refresh()
}

// ResetView fits the whole block into the viewport.
func (v *Viewer) ResetView() {
	v.mu.Lock()
	layout := v.layout
	viewport := v.viewport
	v.mu.Unlock()
	v.view.ResetOrFit(viewport, layout)
	v.requestRegions()
	v.raster.Refresh()
}

// Scrolled zooms with the wheel.
func (v *Viewer) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		v.Zoom(ZoomStep)
	} else if ev.Scrolled.DY < 0 {
		v.Zoom(1 / ZoomStep)
	}
}

// Dragged pans the view.
func (v *Viewer) Dragged(ev *fyne.DragEvent) {
	v.view.Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	v.raster.Refresh()
}

// DragEnd refreshes the streamed regions for the settled view.
func (v *Viewer) DragEnd() {
	v.requestRegions()
}

// Tapped selects the track under the pointer, or clears the selection.
func (v *Viewer) Tapped(ev *fyne.PointEvent) {
	id, ok := v.pick(geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)})
	if !ok {
		id = app.NoTrack
	}
	v.state.SelectTrack(id)
}

// TappedSecondary toggles follow mode on the track under the pointer.
func (v *Viewer) TappedSecondary(ev *fyne.PointEvent) {
	id, ok := v.pick(geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)})
	if ok {
		v.state.FollowTrack(id)
	}
}

// MouseIn implements desktop.Hoverable.
func (v *Viewer) MouseIn(ev *desktop.MouseEvent) {
	v.MouseMoved(ev)
}

// MouseMoved updates hover state and the intensity readout.
func (v *Viewer) MouseMoved(ev *desktop.MouseEvent) {
	pos := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}

	v.mu.Lock()
	v.hovering = true
	layout := v.layout
	viewport := v.viewport
	hasLayer := v.xyImage != nil && v.xyImage.HasLayer
	v.mu.Unlock()

	// Hover features are suppressed when no layer contributed a pixel.
	if !hasLayer {
		v.state.HoverTrack(app.NoTrack)
		return
	}

	if id, ok := v.pick(pos); ok {
		v.state.HoverTrack(id)
	} else {
		v.state.HoverTrack(app.NoTrack)
	}

	if v.OnHover != nil {
		block := v.view.ScreenToBlock(pos, viewport, layout)
		scale := v.state.VoxelScale
		x := int(math.Floor((block.X - layout.XY.Origin.X) / scale.X))
		y := int(math.Floor((block.Y - layout.XY.Origin.Y) / scale.Y))
		if x >= 0 && y >= 0 && !v.state.Primary.Empty() &&
			x < v.state.Primary.Width && y < v.state.Primary.Height {
			v.OnHover(render.Probe(v.state.Layers, x, y, v.state.SliceIndex))
		} else {
			v.OnHover(nil)
		}
	}
	v.updateAnimation()
}

// MouseOut implements desktop.Hoverable.
func (v *Viewer) MouseOut() {
	v.mu.Lock()
	v.hovering = false
	v.mu.Unlock()
	v.state.HoverTrack(app.NoTrack)
	if v.OnHover != nil {
		v.OnHover(nil)
	}
	v.updateAnimation()
}

// pick hit-tests the tracks at a screen position.
func (v *Viewer) pick(pointer geometry.Point2D) (int, bool) {
	v.mu.Lock()
	entries := v.entries
	layout := v.layout
	viewport := v.viewport
	v.mu.Unlock()
	if len(entries) == 0 {
		return 0, false
	}

	candidates := make([]track.Candidate, 0, len(entries))
	for _, e := range entries {
		style, ok := v.state.Styles[e.Channel]
		if !ok {
			style = app.ChannelStyle{LineWidth: 1.5, Opacity: 1}
		}
		candidates = append(candidates, track.Candidate{
			Entry:     e,
			LineWidth: style.LineWidth,
			Opacity:   style.Opacity,
			Visible:   true,
			Followed:  e.TrackID == v.state.FollowedTrack,
			Selected:  e.TrackID == v.state.SelectedTrack,
		})
	}

	projector := v.view.Projector(viewport, layout)
	return track.Pick(pointer, candidates, projector.Apply, v.view.Scale)
}

// updateAnimation runs the redraw ticker only while there is a reason to
// animate: a selected or followed track, or an active hover.
func (v *Viewer) updateAnimation() {
	v.mu.Lock()
	defer v.mu.Unlock()

	want := v.hovering ||
		v.state.SelectedTrack != app.NoTrack ||
		v.state.FollowedTrack != app.NoTrack
	switch {
	case want && v.animStop == nil:
		stop := make(chan struct{})
		v.animStop = stop
		go func() {
			ticker := time.NewTicker(animInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					v.raster.Refresh()
				}
			}
		}()
	case !want && v.animStop != nil:
		close(v.animStop)
		v.animStop = nil
	}
}

// followTrack recenters the view on the followed track's current position.
func (v *Viewer) followTrack(layout render.Layout) {
	id := v.state.FollowedTrack
	if id == app.NoTrack {
		return
	}
	t := v.state.TrackByID(id)
	if t == nil {
		return
	}
	pos, ok := t.PointAt(v.state.TimeIndex)
	if !ok {
		return
	}

	scale := v.state.VoxelScale
	target := geometry.Point2D{
		X: pos.X*scale.X + layout.XY.Origin.X + v.state.TrackOffset.X,
		Y: pos.Y*scale.Y + layout.XY.Origin.Y + v.state.TrackOffset.Y,
	}

	// Solve for the pan that puts the target at the viewport center.
	center := layout.Center()
	sin, cos := math.Sincos(v.view.Rotation)
	dx := (target.X - center.X) * v.view.Scale
	dy := (target.Y - center.Y) * v.view.Scale
	v.view.OffsetX = -(cos*dx - sin*dy)
	v.view.OffsetY = -(sin*dx + cos*dy)
}

var _ fyne.Widget = (*Viewer)(nil)
var _ fyne.Tappable = (*Viewer)(nil)
var _ fyne.SecondaryTappable = (*Viewer)(nil)
var _ fyne.Draggable = (*Viewer)(nil)
var _ fyne.Scrollable = (*Viewer)(nil)
var _ desktop.Hoverable = (*Viewer)(nil)
