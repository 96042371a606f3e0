package renderer

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Iterations      int     // Completed samples per pixel
	TotalSamples    int     // Total number of camera paths traced
	Discarded       int     // Non-finite estimates dropped
	BudgetExhausted bool    // Whether the time budget stopped rendering early
	RenderTimeMs    float64 // Time spent rendering, including learning when counted
	LearningTimeMs  float64 // Time spent in the prepare step
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator
	LuminanceSqAccum float64   // Luminance squared for variance
	SampleCount      int       // Number of samples taken
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{X: 0, Y: 0, Z: 0}
	}
	return ps.ColorAccum.Multiply(1.0 / float64(ps.SampleCount))
}

// Variance returns the sample variance of the pixel's luminance
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.LuminanceAccum / n
	return max(0, (ps.LuminanceSqAccum/n-mean*mean)*n/(n-1))
}

// toColor converts a linear color to 8-bit sRGB-ish output with gamma 2
func toColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.Clamp(0.0, 1.0).GammaCorrect(2.0)
	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an 8-bit image
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	values := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c := core.NewVec3(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
			values = append(values, c.Luminance())
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// RelativeMSE returns the mean over pixels of (x - ref)² / (ref² + epsilon),
// averaged over color channels. Both images must have the same size.
func RelativeMSE(img, reference []core.Vec3) float64 {
	const epsilon = 1e-2
	if len(img) != len(reference) || len(img) == 0 {
		return 0
	}

	errs := make([]float64, len(img))
	for i := range img {
		d := img[i].Subtract(reference[i])
		r := reference[i]
		errs[i] = (d.X*d.X/(r.X*r.X+epsilon) +
			d.Y*d.Y/(r.Y*r.Y+epsilon) +
			d.Z*d.Z/(r.Z*r.Z+epsilon)) / 3
	}
	return stat.Mean(errs, nil)
}
