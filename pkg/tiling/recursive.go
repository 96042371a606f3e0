package tiling

// minLeafSide is the smallest side a region may have and still be split
const minLeafSide = 4

// splitFunc picks the coordinate at which to cut region along one axis.
// The returned coordinate lies strictly inside the region.
type splitFunc func(idx *EnergyIndex, region BoundingBox, splitX bool) int

// RecursiveTiler bisects the map until every region holds less than its
// share of energy or gets too small to split
type RecursiveTiler struct {
	*tileSet
	kind      Kind
	threshold float64
}

// NewEqualEnergyTiler cuts each region where its lower part first exceeds half its energy
func NewEqualEnergyTiler(src LuminanceSource, gx, gy int) (*RecursiveTiler, error) {
	return newRecursiveTiler(src, gx, gy, EqualEnergy, energySplit)
}

// NewAdaptiveTiler always cuts at the midpoint; only the stopping rule depends on energy
func NewAdaptiveTiler(src LuminanceSource, gx, gy int) (*RecursiveTiler, error) {
	return newRecursiveTiler(src, gx, gy, Adaptive, midpointSplit)
}

func newRecursiveTiler(src LuminanceSource, gx, gy int, kind Kind, split splitFunc) (*RecursiveTiler, error) {
	if err := checkSource(src, gx, gy); err != nil {
		return nil, err
	}

	idx := NewEnergyIndex(src)
	threshold := 2 * idx.Total() / float64(gx*gy)
	whole := NewBoundingBox(0, 0, src.Width(), src.Height())

	return &RecursiveTiler{
		tileSet:   newTileSet(src, bisect(idx, whole, threshold, split)),
		kind:      kind,
		threshold: threshold,
	}, nil
}

// Kind returns the splitting strategy
func (t *RecursiveTiler) Kind() Kind {
	return t.kind
}

// Threshold returns the energy below which a region becomes a leaf
func (t *RecursiveTiler) Threshold() float64 {
	return t.threshold
}

// bisect returns the leaf regions in depth-first order, lower halves first
func bisect(idx *EnergyIndex, whole BoundingBox, threshold float64, split splitFunc) []BoundingBox {
	var leaves []BoundingBox
	stack := []BoundingBox{whole}

	for len(stack) > 0 {
		region := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		size := region.Size()
		if idx.Sum(region) < threshold || size.X < minLeafSide || size.Y < minLeafSide {
			leaves = append(leaves, region)
			continue
		}

		// Longer axis; ties split Y
		splitX := size.X > size.Y
		at := split(idx, region, splitX)

		var lower, upper BoundingBox
		if splitX {
			lower = NewBoundingBox(region.Min.X, region.Min.Y, at, region.Max.Y)
			upper = NewBoundingBox(at, region.Min.Y, region.Max.X, region.Max.Y)
		} else {
			lower = NewBoundingBox(region.Min.X, region.Min.Y, region.Max.X, at)
			upper = NewBoundingBox(region.Min.X, at, region.Max.X, region.Max.Y)
		}
		stack = append(stack, upper, lower)
	}
	return leaves
}

func midpointSplit(idx *EnergyIndex, region BoundingBox, splitX bool) int {
	if splitX {
		return region.Min.X + region.Size().X/2
	}
	return region.Min.Y + region.Size().Y/2
}

// energySplit scans cut positions and takes the first whose lower part holds
// more than half the region's energy, falling back to the midpoint
func energySplit(idx *EnergyIndex, region BoundingBox, splitX bool) int {
	half := idx.Sum(region) / 2

	if splitX {
		for i := region.Min.X + 1; i < region.Max.X-1; i++ {
			if idx.Sum(NewBoundingBox(region.Min.X, region.Min.Y, i, region.Max.Y)) > half {
				return i
			}
		}
	} else {
		for i := region.Min.Y + 1; i < region.Max.Y-1; i++ {
			if idx.Sum(NewBoundingBox(region.Min.X, region.Min.Y, region.Max.X, i)) > half {
				return i
			}
		}
	}
	return midpointSplit(idx, region, splitX)
}
