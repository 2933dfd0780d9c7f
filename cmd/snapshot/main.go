// Command snapshot renders one slice of a dataset to a PNG without opening
// the viewer, for scripting and regression comparisons.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"volscope/internal/app"
	"volscope/internal/render"
	"volscope/internal/track"
	"volscope/internal/volume"
	"volscope/pkg/geometry"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	datasetPath := flag.String("dataset", "", "path to the dataset descriptor (YAML)")
	slice := flag.Int("slice", 0, "Z slice index to render")
	timepoint := flag.Int("t", 0, "time cursor for track overlays")
	out := flag.String("out", "snapshot.png", "output PNG path")
	ortho := flag.Bool("ortho", false, "include the orthogonal panes")
	flag.Parse()

	if *datasetPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*datasetPath, *slice, *timepoint, *out, *ortho); err != nil {
		log.Fatalf("snapshot failed: %v", err)
	}
}

func run(datasetPath string, slice, timepoint int, out string, ortho bool) error {
	state := app.NewState()
	state.OrthoViews = ortho
	if err := state.LoadDataset(datasetPath); err != nil {
		return err
	}
	if state.Primary.Empty() {
		return fmt.Errorf("dataset has no renderable channel")
	}

	vol := state.Primary
	if slice < 0 || slice >= vol.Depth {
		return fmt.Errorf("slice %d out of range [0,%d)", slice, vol.Depth)
	}

	// Streamed layers render from a full-resolution region read
	// synchronously, since there is no interactive view to drive level
	// selection.
	regions := make(map[int]*volume.Region)
	for id, src := range state.Sources {
		levels := src.Levels()
		if len(levels) == 0 {
			continue
		}
		region, err := src.ReadRegion(context.Background(), volume.RegionRequest{
			Level: 0,
			Slice: slice,
			Rect:  levels[0].FullRect(),
		})
		if err != nil {
			return fmt.Errorf("layer %d: %w", id, err)
		}
		regions[id] = region
	}

	layout := render.ComputeLayout(vol.Width, vol.Height, vol.Depth, state.VoxelScale, ortho)

	img := image.NewRGBA(image.Rect(0, 0,
		int(layout.Block.Width+0.5), int(layout.Block.Height+0.5)))

	base := render.Params{
		Regions:       regions,
		PrimaryWidth:  vol.Width,
		PrimaryHeight: vol.Height,
		PrimaryDepth:  vol.Depth,
	}

	p := base
	p.Plane = render.PlaneXY
	p.Anchor = slice
	p.Width = int(layout.XY.Size.Width + 0.5)
	p.Height = int(layout.XY.Size.Height + 0.5)
	p.ScaleU = state.VoxelScale.X
	p.ScaleV = state.VoxelScale.Y
	pastePane(img, layout.XY, render.Composite(state.Layers, p))

	if layout.HasOrtho {
		p = base
		p.Plane = render.PlaneXZ
		p.Anchor = vol.Height / 2
		p.Width = int(layout.XZ.Size.Width + 0.5)
		p.Height = int(layout.XZ.Size.Height + 0.5)
		p.ScaleU = state.VoxelScale.X
		p.ScaleV = state.VoxelScale.Z
		pastePane(img, layout.XZ, render.Composite(state.Layers, p))

		p = base
		p.Plane = render.PlaneZY
		p.Anchor = vol.Width / 2
		p.Width = int(layout.ZY.Size.Width + 0.5)
		p.Height = int(layout.ZY.Size.Height + 0.5)
		p.ScaleU = state.VoxelScale.Z
		p.ScaleV = state.VoxelScale.Y
		pastePane(img, layout.ZY, render.Composite(state.Layers, p))
	}

	drawTracks(img, state, layout, timepoint)

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Printf("wrote %s (%dx%d)", out, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// drawTracks strokes each track's polyline up to the time cursor directly in
// block coordinates (the snapshot uses no view transform).
func drawTracks(img *image.RGBA, state *app.State, layout render.Layout, timepoint int) {
	entries := track.BuildRenderEntries(state.Tracks, timepoint,
		state.VoxelScale.X, state.VoxelScale.Y,
		layout.XY.Origin, state.TrackOffset)
	for _, e := range entries {
		for i := 1; i < len(e.Points); i++ {
			drawLine(img, e.Points[i-1], e.Points[i], e.Color)
		}
		if len(e.Points) > 0 {
			last := e.Points[len(e.Points)-1]
			drawLine(img, last, last, e.Highlight)
		}
	}
}

func drawLine(img *image.RGBA, a, b geometry.Point2D, c color.RGBA) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// pastePane copies a composited pane into the output image at its layout
// origin.
func pastePane(dst *image.RGBA, pane render.Pane, src *render.SliceImage) {
	ox := int(pane.Origin.X + 0.5)
	oy := int(pane.Origin.Y + 0.5)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			so := (y*src.Width + x) * 4
			do := dst.PixOffset(ox+x, oy+y)
			if do < 0 || do+3 >= len(dst.Pix) {
				continue
			}
			copy(dst.Pix[do:do+4], src.Pix[so:so+4])
			dst.Pix[do+3] = 0xFF
		}
	}
}
