package envmap

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	_ "golang.org/x/image/bmp" // BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder, including 16-bit maps

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// LoadOptions controls how an image file becomes an environment image
type LoadOptions struct {
	Scale  float64 // Radiance multiplier; 0 means 1
	Width  int     // Resample to this width; 0 keeps the file's size
	Height int     // Resample to this height; 0 keeps the file's size
}

// Load decodes a PNG, JPEG, TIFF or BMP file into a linear radiance image
func Load(filename string, opts LoadOptions) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment map: %w", err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode environment map %s: %w", filename, err)
	}

	return FromImage(src, opts), nil
}

// FromImage converts a decoded image, resampling it first when requested
func FromImage(src image.Image, opts LoadOptions) *Image {
	bounds := src.Bounds()
	if (opts.Width > 0 && opts.Width != bounds.Dx()) || (opts.Height > 0 && opts.Height != bounds.Dy()) {
		width, height := opts.Width, opts.Height
		if width <= 0 {
			width = bounds.Dx()
		}
		if height <= 0 {
			height = bounds.Dy()
		}
		// RGBA64 keeps the precision of 16-bit sources
		dst := image.NewRGBA64(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
		src = dst
		bounds = dst.Bounds()
	}

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	img := NewImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < img.height; y++ {
		for x := 0; x < img.width; x++ {
			r, g, b, _ := src.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535]
			img.Set(x, y, core.NewVec3(
				float64(r)/65535.0*scale,
				float64(g)/65535.0*scale,
				float64(b)/65535.0*scale,
			))
		}
	}
	return img
}
