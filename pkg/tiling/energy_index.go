package tiling

import (
	"github.com/df07/go-adaptive-ibl/internal/assert"
)

// LuminanceSource is the read-only image the index and tilers are built from
type LuminanceSource interface {
	Width() int
	Height() int
	Luminance(x, y int) float64
}

// EnergyIndex is a summed-area table over pixel luminance.
// Entry (x, y) holds the luminance sum of the rectangle [0,x]×[0,y].
type EnergyIndex struct {
	width, height int
	table         []float64 // row-major, y*width + x
}

// NewEnergyIndex builds the table in a single pass
func NewEnergyIndex(src LuminanceSource) *EnergyIndex {
	w, h := src.Width(), src.Height()
	idx := &EnergyIndex{
		width:  w,
		height: h,
		table:  make([]float64, w*h),
	}
	if w == 0 || h == 0 {
		return idx
	}

	idx.table[0] = src.Luminance(0, 0)
	for x := 1; x < w; x++ {
		idx.table[x] = src.Luminance(x, 0) + idx.table[x-1]
	}
	for y := 1; y < h; y++ {
		idx.table[y*w] = src.Luminance(0, y) + idx.table[(y-1)*w]
	}
	for y := 1; y < h; y++ {
		for x := 1; x < w; x++ {
			idx.table[y*w+x] = src.Luminance(x, y) +
				idx.table[(y-1)*w+x] + idx.table[y*w+x-1] - idx.table[(y-1)*w+x-1]
		}
	}
	return idx
}

// Width returns the width of the indexed image
func (idx *EnergyIndex) Width() int { return idx.width }

// Height returns the height of the indexed image
func (idx *EnergyIndex) Height() int { return idx.height }

// at returns the prefix sum at (x, y); a negative coordinate is the empty prefix
func (idx *EnergyIndex) at(x, y int) float64 {
	if x < 0 || y < 0 {
		return 0
	}
	assert.That(x < idx.width && y < idx.height, "energy index lookup (%d,%d) outside %dx%d", x, y, idx.width, idx.height)
	return idx.table[y*idx.width+x]
}

// Sum returns the luminance inside box in constant time
func (idx *EnergyIndex) Sum(box BoundingBox) float64 {
	x0, y0 := box.Min.X-1, box.Min.Y-1
	x1, y1 := box.Max.X-1, box.Max.Y-1

	sum := idx.at(x1, y1) - idx.at(x0, y1) - idx.at(x1, y0) + idx.at(x0, y0)

	// Cancellation can leave tiny negative residues on dark regions
	assert.That(sum >= -1e-9*max(1, idx.Total()), "negative energy %g in %v", sum, box)
	return max(sum, 0)
}

// Total returns the luminance of the whole image
func (idx *EnergyIndex) Total() float64 {
	if len(idx.table) == 0 {
		return 0
	}
	return idx.table[len(idx.table)-1]
}
