package volume

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/tiff"
)

// LoadDir loads a volume from a directory of 2D slice images (TIFF, PNG, or
// JPEG), one file per Z slice in lexical filename order. Grayscale images
// produce a 1-channel volume; color images produce 3 channels. All slices
// must share the dimensions of the first.
func LoadDir(dir string) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read slice directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no slice images in %s", dir)
	}
	sort.Strings(paths)

	var vol *Volume
	for z, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			return nil, err
		}
		b := img.Bounds()

		if vol == nil {
			channels := 3
			if isGrayscale(img) {
				channels = 1
			}
			vol = New(b.Dx(), b.Dy(), len(paths), channels)
		} else if b.Dx() != vol.Width || b.Dy() != vol.Height {
			return nil, fmt.Errorf("slice %s is %dx%d, want %dx%d",
				path, b.Dx(), b.Dy(), vol.Width, vol.Height)
		}

		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				if vol.Channels == 1 {
					vol.Set(0, x, y, z, uint8(r>>8))
				} else {
					vol.Set(0, x, y, z, uint8(r>>8))
					vol.Set(1, x, y, z, uint8(g>>8))
					vol.Set(2, x, y, z, uint8(bl>>8))
				}
			}
		}
	}
	return vol, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open slice image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func isGrayscale(img image.Image) bool {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return true
	}
	return false
}
