// Package dataset provides YAML dataset descriptors: which channel volumes
// to load, how to display them, and where the tracking output lives.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Channel describes one channel volume and its initial display settings.
type Channel struct {
	Name string `yaml:"name"`

	// Dir is the slice-image directory, relative to the descriptor file.
	Dir string `yaml:"dir"`

	Tint      string  `yaml:"tint,omitempty"`
	WindowMin float64 `yaml:"window_min,omitempty"`
	WindowMax float64 `yaml:"window_max,omitempty"`
	Invert    bool    `yaml:"invert,omitempty"`

	// Segmentation marks label volumes (hover reads exact labels).
	Segmentation bool `yaml:"segmentation,omitempty"`

	// Streamed serves the channel through the mip pyramid and region
	// cache instead of sampling the dense volume directly.
	Streamed bool `yaml:"streamed,omitempty"`

	// Track overlay styling for tracks assigned to this channel.
	LineWidth float64 `yaml:"line_width,omitempty"`
	Opacity   float64 `yaml:"opacity,omitempty"`
}

// VoxelScale is the per-axis display scale of the dataset's voxels.
type VoxelScale struct {
	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`
	Z float64 `yaml:"z,omitempty"`
}

// Descriptor is a dataset description file.
type Descriptor struct {
	Name       string     `yaml:"name"`
	VoxelScale VoxelScale `yaml:"voxel_scale,omitempty"`
	Channels   []Channel  `yaml:"channels"`

	// Tracks is an optional CSV of track points
	// (track_id,t,z,y,x), relative to the descriptor file.
	Tracks string `yaml:"tracks,omitempty"`

	dir string
}

// Load reads and validates a descriptor file. Relative paths inside the
// descriptor resolve against the file's directory.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset descriptor: %w", err)
	}
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dataset descriptor: %w", err)
	}
	if len(d.Channels) == 0 {
		return nil, fmt.Errorf("dataset %s declares no channels", path)
	}
	d.dir = filepath.Dir(path)

	for i := range d.Channels {
		c := &d.Channels[i]
		if c.Dir == "" {
			return nil, fmt.Errorf("channel %d (%s) has no slice directory", i, c.Name)
		}
		if c.WindowMax <= c.WindowMin {
			c.WindowMin = 0
			c.WindowMax = 1
		}
		if c.LineWidth <= 0 {
			c.LineWidth = 1.5
		}
		if c.Opacity <= 0 {
			c.Opacity = 1
		}
	}
	return &d, nil
}

// ChannelDir resolves a channel's slice directory.
func (d *Descriptor) ChannelDir(i int) string {
	return d.resolve(d.Channels[i].Dir)
}

// TracksPath resolves the tracks CSV path, or "" if the dataset has none.
func (d *Descriptor) TracksPath() string {
	if d.Tracks == "" {
		return ""
	}
	return d.resolve(d.Tracks)
}

func (d *Descriptor) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.dir, p)
}
