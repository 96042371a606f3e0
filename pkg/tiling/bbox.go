// Package tiling partitions an environment map into tiles and samples
// positions inside them in proportion to luminance.
package tiling

import (
	"fmt"
	"image"

	"github.com/df07/go-adaptive-ibl/internal/assert"
)

// BoundingBox is a half-open integer pixel rectangle [Min, Max)
type BoundingBox struct {
	Min image.Point
	Max image.Point
}

// NewBoundingBox creates a box from its corners; empty boxes are a programming error
func NewBoundingBox(minX, minY, maxX, maxY int) BoundingBox {
	box := BoundingBox{Min: image.Pt(minX, minY), Max: image.Pt(maxX, maxY)}
	assert.That(box.Max.X > box.Min.X && box.Max.Y > box.Min.Y, "degenerate bounding box %v", box)
	return box
}

// Size returns the extent along each axis
func (b BoundingBox) Size() image.Point {
	return b.Max.Sub(b.Min)
}

// Area returns the number of pixels covered
func (b BoundingBox) Area() int {
	size := b.Size()
	return size.X * size.Y
}

// Contains reports whether pixel (x, y) lies inside the box
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%d,%d)x[%d,%d)", b.Min.X, b.Max.X, b.Min.Y, b.Max.Y)
}
