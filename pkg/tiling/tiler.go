package tiling

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-adaptive-ibl/internal/assert"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/distribution"
)

var (
	// ErrEmptyImage is returned when the source image has no pixels
	ErrEmptyImage = errors.New("environment image is empty")
	// ErrInvalidGrid is returned for non-positive tile grid dimensions
	ErrInvalidGrid = errors.New("tile grid dimensions must be positive")
	// ErrNotDivisible is returned when an equal-size grid does not divide the image
	ErrNotDivisible = errors.New("image dimensions not divisible by tile grid")
)

// oneMinusEpsilon is the largest float64 below 1
var oneMinusEpsilon = math.Nextafter(1, 0)

// TilePos identifies a position inside a tile's local [0,1)² parameterization
type TilePos struct {
	Tile   int
	Offset core.Vec2
}

// TileSample is a position sampled inside a tile
type TileSample struct {
	Pixel core.Vec2 // Normalized image position in [0,1)²
	PDF   float64   // Density over normalized image space, divided by the tile count
}

// Tiler partitions an environment map into tiles, each with its own
// luminance-proportional sampler.
type Tiler interface {
	// TileCount returns the number of tiles
	TileCount() int

	// TileMagnitude returns the luminance mass contained in a tile
	TileMagnitude(tile int) float64

	// PixelToTilePos maps a normalized image position to its tile and local offset
	PixelToTilePos(pixel core.Vec2) TilePos

	// TileIndexAtPixel returns the tile containing a normalized image position
	TileIndexAtPixel(pixel core.Vec2) int

	// SampleInTile draws a position inside a tile
	SampleInTile(tile int, u core.Vec2) TileSample

	// TileOrigin returns the normalized image position of a tile's minimum corner
	TileOrigin(tile int) core.Vec2

	// TilePosToPixel maps a tile position back to a normalized image position
	TilePosToPixel(pos TilePos) core.Vec2

	// PointPDF returns the in-tile density at a tile position, scaled like SampleInTile
	PointPDF(pos TilePos) float64

	// Bounds returns the pixel rectangle covered by a tile
	Bounds(tile int) BoundingBox
}

// tile is one partition cell with its sampler
type tile struct {
	bounds    BoundingBox
	sampler   *distribution.Piecewise2D
	magnitude float64
	pdfScale  float64 // converts local density to the shared image-space convention
}

// tileSet holds the state every tiler shares: the tiles and the dense pixel lookup
type tileSet struct {
	width, height int
	tiles         []tile
	lookup        []TilePos // row-major, y*width + x
}

// newTileSet builds one sampler per box with one cell per pixel. The boxes
// must partition the image exactly.
func newTileSet(src LuminanceSource, boxes []BoundingBox) *tileSet {
	w, h := src.Width(), src.Height()
	set := &tileSet{
		width:  w,
		height: h,
		tiles:  make([]tile, len(boxes)),
		lookup: make([]TilePos, w*h),
	}

	for i, box := range boxes {
		size := box.Size()
		sampler := distribution.NewPiecewise2D(size.X, size.Y)
		magnitude := 0.0

		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				// Pixel centers keep the offset safely inside its sampler cell
				offset := core.NewVec2(
					(float64(x-box.Min.X)+0.5)/float64(size.X),
					(float64(y-box.Min.Y)+0.5)/float64(size.Y),
				)
				set.lookup[y*w+x] = TilePos{Tile: i, Offset: offset}

				lum := src.Luminance(x, y)
				sampler.Accumulate(offset.X, offset.Y, lum)
				magnitude += lum
			}
		}
		sampler.Normalize()

		set.tiles[i] = tile{
			bounds:    box,
			sampler:   sampler,
			magnitude: magnitude,
			pdfScale:  float64(w*h) / (float64(box.Area()) * float64(len(boxes))),
		}
	}
	return set
}

func (s *tileSet) TileCount() int {
	return len(s.tiles)
}

func (s *tileSet) TileMagnitude(tile int) float64 {
	return s.tiles[tile].magnitude
}

func (s *tileSet) Bounds(tile int) BoundingBox {
	return s.tiles[tile].bounds
}

// pixelCoords converts a normalized position to pixel indices, clamping
// values of exactly 1.0 and beyond into the image
func (s *tileSet) pixelCoords(pixel core.Vec2) (int, int) {
	x := max(0, min(int(pixel.X*float64(s.width)), s.width-1))
	y := max(0, min(int(pixel.Y*float64(s.height)), s.height-1))
	return x, y
}

func (s *tileSet) PixelToTilePos(pixel core.Vec2) TilePos {
	x, y := s.pixelCoords(pixel)
	return s.lookup[y*s.width+x]
}

func (s *tileSet) TileIndexAtPixel(pixel core.Vec2) int {
	return s.PixelToTilePos(pixel).Tile
}

func (s *tileSet) TilePosToPixel(pos TilePos) core.Vec2 {
	b := s.tiles[pos.Tile].bounds
	size := b.Size()
	return core.NewVec2(
		(float64(b.Min.X)+float64(size.X)*pos.Offset.X)/float64(s.width),
		(float64(b.Min.Y)+float64(size.Y)*pos.Offset.Y)/float64(s.height),
	)
}

func (s *tileSet) TileOrigin(tile int) core.Vec2 {
	return s.TilePosToPixel(TilePos{Tile: tile})
}

func (s *tileSet) PointPDF(pos TilePos) float64 {
	t := &s.tiles[pos.Tile]
	return t.sampler.PDF(pos.Offset) * t.pdfScale
}

func (s *tileSet) SampleInTile(tile int, u core.Vec2) TileSample {
	t := &s.tiles[tile]
	local, pdf := t.sampler.Sample(u)
	pixel := s.TilePosToPixel(TilePos{Tile: tile, Offset: local})

	assert.That(pixel.X >= 0 && pixel.X <= 1 && pixel.Y >= 0 && pixel.Y <= 1, "tile sample %v outside image", pixel)
	return TileSample{Pixel: pixel, PDF: pdf * t.pdfScale}
}

func checkSource(src LuminanceSource, gx, gy int) error {
	if src.Width() <= 0 || src.Height() <= 0 {
		return ErrEmptyImage
	}
	if gx <= 0 || gy <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, gx, gy)
	}
	return nil
}
