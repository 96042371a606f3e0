package tiling

import (
	"fmt"

	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// EqualSizeTiler cuts the map into a fixed gx × gy grid of equal rectangles
type EqualSizeTiler struct {
	*tileSet
	gx, gy int
}

// NewEqualSizeTiler requires the image dimensions to be multiples of the grid
func NewEqualSizeTiler(src LuminanceSource, gx, gy int) (*EqualSizeTiler, error) {
	if err := checkSource(src, gx, gy); err != nil {
		return nil, err
	}
	w, h := src.Width(), src.Height()
	if w%gx != 0 || h%gy != 0 {
		return nil, fmt.Errorf("%w: %dx%d image, %dx%d grid", ErrNotDivisible, w, h, gx, gy)
	}

	dx, dy := w/gx, h/gy
	boxes := make([]BoundingBox, 0, gx*gy)
	for y := 0; y < gy; y++ {
		for x := 0; x < gx; x++ {
			boxes = append(boxes, NewBoundingBox(x*dx, y*dy, (x+1)*dx, (y+1)*dy))
		}
	}

	return &EqualSizeTiler{
		tileSet: newTileSet(src, boxes),
		gx:      gx,
		gy:      gy,
	}, nil
}

// PixelToTilePos computes the tile arithmetically; the offset keeps the
// sub-pixel position instead of snapping to the pixel corner
func (t *EqualSizeTiler) PixelToTilePos(pixel core.Vec2) TilePos {
	x := pixel.X * float64(t.gx)
	y := pixel.Y * float64(t.gy)
	cx := max(0, min(int(x), t.gx-1))
	cy := max(0, min(int(y), t.gy-1))

	offset := core.NewVec2(min(max(x-float64(cx), 0), oneMinusEpsilon), min(max(y-float64(cy), 0), oneMinusEpsilon))
	return TilePos{Tile: cy*t.gx + cx, Offset: offset}
}

// TileIndexAtPixel returns the grid cell containing the position
func (t *EqualSizeTiler) TileIndexAtPixel(pixel core.Vec2) int {
	return t.PixelToTilePos(pixel).Tile
}
