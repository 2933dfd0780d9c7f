package stream

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

// fetchTimeout bounds a single region read. The reference behavior lets a
// hung fetch linger until superseded; the explicit timeout is a robustness
// addition.
const fetchTimeout = 30 * time.Second

// LayerRequest names one visible streamed layer to fetch for.
type LayerRequest struct {
	Layer  int
	Source volume.Source
}

// Params describes what the current view needs from every streamed layer.
type Params struct {
	ViewScale  float64
	PixelRatio float64

	// Visible is the visible part of the XY plane in full-resolution
	// voxel coordinates.
	Visible geometry.Rect

	// Slice is the current Z index at full resolution.
	Slice int

	// Padding in full-resolution pixels around the visible rect;
	// DefaultPadding when zero.
	Padding float64
}

// Batch is one settled fetch generation: the regions now available for the
// compositor, keyed by layer id. Layers whose fetch failed are absent.
type Batch struct {
	Gen     uint64
	Regions map[int]*volume.Region
}

// Session serializes request generations over the region cache. A new Fetch
// supersedes and cancels all outstanding fetches from older generations;
// results from a cancelled generation are never published or cached.
type Session struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	cache   *Cache
	batches chan Batch
}

// NewSession creates a session over the given cache (a fresh default cache
// when nil).
func NewSession(cache *Cache) *Session {
	if cache == nil {
		cache = NewCache(DefaultMaxEntries)
	}
	return &Session{
		cache:   cache,
		batches: make(chan Batch, 1),
	}
}

// Cache returns the session's region cache.
func (s *Session) Cache() *Cache {
	return s.cache
}

// Batches delivers settled result batches. Only the latest batch is
// retained; an unread stale batch is replaced when a newer one settles.
func (s *Session) Batches() <-chan Batch {
	return s.batches
}

// Generation returns the current request generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Cancel cancels any outstanding fetches without starting a new generation.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Fetch starts a new request generation covering every given layer and
// returns its id. All fetches run concurrently; the batch is published only
// once every fetch has settled and the generation is still current.
func (s *Session) Fetch(layers []LayerRequest, p Params) uint64 {
	if p.Padding <= 0 {
		p.Padding = DefaultPadding
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx, gen, layers, p)
	return gen
}

func (s *Session) run(ctx context.Context, gen uint64, layers []LayerRequest, p Params) {
	regions := make(map[int]*volume.Region, len(layers))
	var regionsMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, lr := range layers {
		lr := lr
		g.Go(func() error {
			region, err := s.fetchLayer(ctx, gen, lr, p)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				// A failed fetch means the layer is absent this
				// frame; the next generation retries naturally.
				log.Printf("stream: layer %d fetch failed: %v", lr.Layer, err)
				return nil
			}
			if region != nil {
				regionsMu.Lock()
				regions[lr.Layer] = region
				regionsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	current := s.gen == gen
	s.mu.Unlock()
	if !current || ctx.Err() != nil {
		return
	}

	batch := Batch{Gen: gen, Regions: regions}
	for {
		select {
		case s.batches <- batch:
			return
		default:
			// Drop an unread stale batch to make room.
			select {
			case <-s.batches:
			default:
			}
		}
	}
}

func (s *Session) fetchLayer(ctx context.Context, gen uint64, lr LayerRequest, p Params) (*volume.Region, error) {
	levels := lr.Source.Levels()
	if len(levels) == 0 {
		return nil, errors.New("source has no levels")
	}

	desired := DesiredScale(p.ViewScale, p.PixelRatio)
	li := PickLevel(levels, desired)
	info := levels[li]

	rect := LevelRegion(info, p.Visible, p.Padding)
	if rect.Empty() {
		return nil, nil
	}
	slice := SliceAtLevel(info, p.Slice)

	key := Key{
		Layer: lr.Layer,
		Level: li,
		Slice: slice,
		X:     rect.X, Y: rect.Y,
		Width: rect.Width, Height: rect.Height,
	}
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}

	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	region, err := lr.Source.ReadRegion(fctx, volume.RegionRequest{
		Level:    li,
		Slice:    slice,
		Rect:     rect,
		Priority: 1,
	})
	if err != nil {
		return nil, err
	}

	// A fetch that completes after its generation was superseded is
	// discarded without touching the cache.
	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale || ctx.Err() != nil {
		return nil, context.Canceled
	}
	s.cache.Add(key, region)
	return region, nil
}
