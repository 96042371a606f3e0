// Package envmap holds equirectangular environment images, their mapping
// to directions, and the default luminance-proportional background sampler.
package envmap

import (
	"math"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Image is a linear RGB radiance image in equirectangular layout
type Image struct {
	width  int
	height int
	pixels []core.Vec3 // row-major, y*width + x
}

// NewImage creates a black image
func NewImage(width, height int) *Image {
	return &Image{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Width returns the image width in pixels
func (img *Image) Width() int { return img.width }

// Height returns the image height in pixels
func (img *Image) Height() int { return img.height }

// At returns the radiance of pixel (x, y)
func (img *Image) At(x, y int) core.Vec3 {
	return img.pixels[y*img.width+x]
}

// Set stores the radiance of pixel (x, y)
func (img *Image) Set(x, y int, c core.Vec3) {
	img.pixels[y*img.width+x] = c
}

// Luminance returns the luminance of pixel (x, y)
func (img *Image) Luminance(x, y int) float64 {
	return img.At(x, y).Luminance()
}

// Lookup returns the pixel containing a normalized position, clamped to the image
func (img *Image) Lookup(pixel core.Vec2) core.Vec3 {
	x := max(0, min(int(pixel.X*float64(img.width)), img.width-1))
	y := max(0, min(int(pixel.Y*float64(img.height)), img.height-1))
	return img.At(x, y)
}

// Scale multiplies every pixel by factor
func (img *Image) Scale(factor float64) {
	for i := range img.pixels {
		img.pixels[i] = img.pixels[i].Multiply(factor)
	}
}

// Sky describes a procedural sky: a vertical gradient plus an optional sun disc
type Sky struct {
	Zenith       core.Vec3 // Color straight up
	Horizon      core.Vec3 // Color at the horizon
	Ground       core.Vec3 // Color below the horizon
	SunDirection core.Vec3
	SunRadius    float64   // Angular radius in degrees; 0 disables the sun
	SunEmission  core.Vec3 // Radiance inside the sun disc
}

// NewSkyImage rasterizes a procedural sky into an equirectangular image.
// It stands in for a captured HDR map when none is configured.
func NewSkyImage(width, height int, sky Sky) *Image {
	img := NewImage(width, height)
	sunDir := sky.SunDirection.Normalize()
	cosSun := math.Cos(sky.SunRadius * math.Pi / 180)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dir := PixelToWorld(core.NewVec2((float64(x)+0.5)/float64(width), (float64(y)+0.5)/float64(height)))

			var c core.Vec3
			if dir.Y >= 0 {
				t := math.Sqrt(dir.Y)
				c = sky.Horizon.Multiply(1 - t).Add(sky.Zenith.Multiply(t))
			} else {
				c = sky.Ground
			}
			if sky.SunRadius > 0 && dir.Dot(sunDir) >= cosSun {
				c = c.Add(sky.SunEmission)
			}
			img.Set(x, y, c)
		}
	}
	return img
}
