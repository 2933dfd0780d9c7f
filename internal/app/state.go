// Package app provides application state, dataset loading, and events.
package app

import (
	"fmt"
	"log"
	"sync"

	"volscope/internal/dataset"
	"volscope/internal/render"
	"volscope/internal/stream"
	"volscope/internal/track"
	"volscope/internal/volume"
	"volscope/pkg/colorutil"
	"volscope/pkg/geometry"
)

// EventType identifies different application events.
type EventType int

const (
	EventDatasetLoaded EventType = iota
	EventLayersChanged
	EventSliceChanged
	EventTimeChanged
	EventSelectionChanged
	EventHoverChanged
)

// EventListener receives event notifications.
type EventListener func(data interface{})

// NoTrack marks the absence of a selected, followed, or hovered track.
const NoTrack = -1

// ChannelStyle is the track overlay styling carried by a channel.
type ChannelStyle struct {
	LineWidth float64
	Opacity   float64
}

// State holds the viewer state: the loaded dataset's layers and tracks, the
// current slice/time cursor, and track selection. Mutations happen on the UI
// event goroutine; the mutex protects the occasional background reader.
type State struct {
	mu sync.RWMutex

	DatasetPath string
	DatasetName string

	// Primary is the first loaded channel volume; every other layer must
	// agree with its dimensions.
	Primary *volume.Volume

	Layers  []*render.Layer
	Names   map[int]string
	Styles  map[int]ChannelStyle
	Sources map[int]volume.Source

	VoxelScale render.VoxelScale
	OrthoViews bool

	Tracks      []*track.Track
	TrackOffset geometry.Point2D

	SliceIndex int
	TimeIndex  int
	MaxTime    int

	SelectedTrack int
	FollowedTrack int
	HoveredTrack  int

	listeners map[EventType][]EventListener
}

// NewState creates an empty viewer state.
func NewState() *State {
	return &State{
		Names:         make(map[int]string),
		Styles:        make(map[int]ChannelStyle),
		Sources:       make(map[int]volume.Source),
		VoxelScale:    render.VoxelScale{X: 1, Y: 1, Z: 1},
		OrthoViews:    true,
		SelectedTrack: NoTrack,
		FollowedTrack: NoTrack,
		HoveredTrack:  NoTrack,
		listeners:     make(map[EventType][]EventListener),
	}
}

// On registers a listener for an event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit notifies all listeners of an event.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := make([]EventListener, len(s.listeners[event]))
	copy(listeners, s.listeners[event])
	s.mu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// LoadDataset loads a dataset descriptor and replaces the current volumes,
// layers, and tracks.
func (s *State) LoadDataset(path string) error {
	desc, err := dataset.Load(path)
	if err != nil {
		return err
	}

	var (
		primary *volume.Volume
		layers  []*render.Layer
		names   = make(map[int]string)
		styles  = make(map[int]ChannelStyle)
		sources = make(map[int]volume.Source)
	)

	for i, ch := range desc.Channels {
		vol, err := volume.LoadDir(desc.ChannelDir(i))
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		if primary == nil {
			primary = vol
		} else if vol.Width != primary.Width || vol.Height != primary.Height || vol.Depth != primary.Depth {
			log.Printf("channel %s is %dx%dx%d, want %dx%dx%d; it will not render",
				ch.Name, vol.Width, vol.Height, vol.Depth,
				primary.Width, primary.Height, primary.Depth)
		}

		tint, err := colorutil.Parse(ch.Tint)
		if err != nil {
			return fmt.Errorf("channel %s: %w", ch.Name, err)
		}

		layer := render.NewLayer(i)
		layer.WindowMin = ch.WindowMin
		layer.WindowMax = ch.WindowMax
		layer.Invert = ch.Invert
		layer.Tint = tint
		layer.Segmentation = ch.Segmentation

		if ch.Segmentation {
			// Label volumes carry their first channel as the label id.
			vol.Labels = make([]uint32, vol.Width*vol.Height*vol.Depth)
			for z := 0; z < vol.Depth; z++ {
				for y := 0; y < vol.Height; y++ {
					for x := 0; x < vol.Width; x++ {
						vol.Labels[(z*vol.Height+y)*vol.Width+x] = uint32(vol.At(0, x, y, z))
					}
				}
			}
		}

		if ch.Streamed {
			src := &volume.MemorySource{Pyramid: volume.BuildPyramid(vol, 64)}
			layer.Source = src
			sources[i] = src
		} else {
			layer.Volume = vol
		}

		layers = append(layers, layer)
		names[i] = ch.Name
		styles[i] = ChannelStyle{LineWidth: ch.LineWidth, Opacity: ch.Opacity}
	}

	var tracks []*track.Track
	maxTime := 0
	if p := desc.TracksPath(); p != "" {
		tracks, err = track.LoadCSV(p)
		if err != nil {
			return err
		}
		for _, t := range tracks {
			for _, pt := range t.Points {
				if pt.T > maxTime {
					maxTime = pt.T
				}
			}
		}
	}

	s.mu.Lock()
	s.DatasetPath = path
	s.DatasetName = desc.Name
	s.Primary = primary
	s.Layers = layers
	s.Names = names
	s.Styles = styles
	s.Sources = sources
	s.VoxelScale = render.VoxelScale{
		X: desc.VoxelScale.X, Y: desc.VoxelScale.Y, Z: desc.VoxelScale.Z,
	}.Sanitized()
	s.Tracks = tracks
	s.MaxTime = maxTime
	s.SliceIndex = 0
	s.TimeIndex = 0
	s.SelectedTrack = NoTrack
	s.FollowedTrack = NoTrack
	s.HoveredTrack = NoTrack
	s.mu.Unlock()

	log.Printf("loaded dataset %s: %d channels, %d tracks", desc.Name, len(layers), len(tracks))
	s.Emit(EventDatasetLoaded, path)
	return nil
}

// StreamRequests returns the fetch requests for every visible streamed
// layer.
func (s *State) StreamRequests() []stream.LayerRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reqs []stream.LayerRequest
	for _, l := range s.Layers {
		if l == nil || !l.Visible || l.Source == nil {
			continue
		}
		reqs = append(reqs, stream.LayerRequest{Layer: l.ID, Source: l.Source})
	}
	return reqs
}

// Depth returns the primary volume's depth, or 0 when nothing is loaded.
func (s *State) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Primary.Empty() {
		return 0
	}
	return s.Primary.Depth
}

// StepSlice moves the slice cursor by delta, clamped to the volume depth.
func (s *State) StepSlice(delta int) {
	s.mu.Lock()
	depth := 1
	if !s.Primary.Empty() {
		depth = s.Primary.Depth
	}
	next := s.SliceIndex + delta
	if next < 0 {
		next = 0
	}
	if next > depth-1 {
		next = depth - 1
	}
	changed := next != s.SliceIndex
	s.SliceIndex = next
	s.mu.Unlock()

	if changed {
		s.Emit(EventSliceChanged, next)
	}
}

// StepTime moves the time cursor by delta, clamped to the track extent.
func (s *State) StepTime(delta int) {
	s.mu.Lock()
	next := s.TimeIndex + delta
	if next < 0 {
		next = 0
	}
	if next > s.MaxTime {
		next = s.MaxTime
	}
	changed := next != s.TimeIndex
	s.TimeIndex = next
	s.mu.Unlock()

	if changed {
		s.Emit(EventTimeChanged, next)
	}
}

// SelectTrack marks a track as selected (NoTrack clears the selection).
func (s *State) SelectTrack(id int) {
	s.mu.Lock()
	changed := s.SelectedTrack != id
	s.SelectedTrack = id
	s.mu.Unlock()

	if changed {
		s.Emit(EventSelectionChanged, id)
	}
}

// FollowTrack toggles follow mode for a track: following the already
// followed track stops following.
func (s *State) FollowTrack(id int) {
	s.mu.Lock()
	if s.FollowedTrack == id {
		s.FollowedTrack = NoTrack
	} else {
		s.FollowedTrack = id
	}
	id = s.FollowedTrack
	s.mu.Unlock()

	s.Emit(EventSelectionChanged, id)
}

// HoverTrack updates the hovered track (NoTrack clears it).
func (s *State) HoverTrack(id int) {
	s.mu.Lock()
	changed := s.HoveredTrack != id
	s.HoveredTrack = id
	s.mu.Unlock()

	if changed {
		s.Emit(EventHoverChanged, id)
	}
}

// TrackByID returns the track with the given id.
func (s *State) TrackByID(id int) *track.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
