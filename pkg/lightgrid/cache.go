// Package lightgrid learns, per bucket of camera-relative directions, how
// much each environment tile contributes to what surfaces in that bucket see.
package lightgrid

import (
	"fmt"
	"math"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-adaptive-ibl/internal/assert"
	"github.com/df07/go-adaptive-ibl/pkg/core"
	"github.com/df07/go-adaptive-ibl/pkg/distribution"
	"github.com/df07/go-adaptive-ibl/pkg/envmap"
	"github.com/df07/go-adaptive-ibl/pkg/workers"
)

// Epsilon seeds every accumulator so unvisited tiles keep a small nonzero probability
const Epsilon = 5.8504527e-4

// buildChunk is the number of cells handed to a worker at once
const buildChunk = 64

// Cache is a gridX × gridY grid of cells, each holding one accumulator per
// tile while learning and one tile distribution once built
type Cache struct {
	gridX, gridY int
	tileCount    int
	accumulators []accumulator // (j*gridX + i)*tileCount + tile
	cells        []*distribution.Piecewise1D
	built        atomic.Bool
}

// New creates a cache with seeded accumulators
func New(gridX, gridY, tileCount int) (*Cache, error) {
	if gridX <= 0 || gridY <= 0 {
		return nil, fmt.Errorf("light grid dimensions must be positive, got %dx%d", gridX, gridY)
	}
	if tileCount <= 0 {
		return nil, fmt.Errorf("light grid needs at least one tile, got %d", tileCount)
	}

	c := &Cache{
		gridX:        gridX,
		gridY:        gridY,
		tileCount:    tileCount,
		accumulators: make([]accumulator, gridX*gridY*tileCount),
	}
	for i := range c.accumulators {
		c.accumulators[i].reset(Epsilon, 1)
	}
	return c, nil
}

// Size returns the grid dimensions
func (c *Cache) Size() (int, int) {
	return c.gridX, c.gridY
}

// TileCount returns the number of tiles each cell distributes over
func (c *Cache) TileCount() int {
	return c.tileCount
}

// Cell returns the cell for a camera-relative direction using the
// equirectangular mapping, clamped to the grid
func (c *Cache) Cell(direction core.Vec3) (int, int) {
	pixel := envmap.WorldToPixel(direction)
	i := max(0, min(int(pixel.X*float64(c.gridX)), c.gridX-1))
	j := max(0, min(int(pixel.Y*float64(c.gridY)), c.gridY-1))
	return i, j
}

func (c *Cache) index(i, j, tile int) int {
	assert.That(i >= 0 && i < c.gridX && j >= 0 && j < c.gridY, "cell (%d,%d) outside %dx%d grid", i, j, c.gridX, c.gridY)
	assert.That(tile >= 0 && tile < c.tileCount, "tile %d outside [0,%d)", tile, c.tileCount)
	return (j*c.gridX+i)*c.tileCount + tile
}

// Record adds one luminance observation for a tile seen from cell (i, j).
// Safe for concurrent use until Build.
func (c *Cache) Record(i, j, tile int, luminance float64) {
	assert.That(!c.built.Load(), "record after build")
	assert.That(luminance >= 0 && !math.IsInf(luminance, 0), "invalid luminance %g", luminance)
	c.accumulators[c.index(i, j, tile)].add(luminance)
}

// Accumulator returns the raw (weighted luminance, count) pair
func (c *Cache) Accumulator(i, j, tile int) (float64, int64) {
	return c.accumulators[c.index(i, j, tile)].load()
}

// Build freezes the accumulators into one distribution per cell. Each tile
// weighs magnitude(tile) × mean recorded luminance. With sharpen set, the
// cell mean is subtracted and negatives clamp to zero. Cells are built on
// numWorkers goroutines.
func (c *Cache) Build(magnitude func(tile int) float64, sharpen bool, numWorkers int) {
	if c.built.Swap(true) {
		panic("light grid already built")
	}

	cellCount := c.gridX * c.gridY
	c.cells = make([]*distribution.Piecewise1D, cellCount)

	magnitudes := make([]float64, c.tileCount)
	for t := range magnitudes {
		magnitudes[t] = magnitude(t)
	}

	// Cells are independent; each range reuses one weight buffer
	_ = workers.Run(numWorkers, cellCount, buildChunk, func(_, start, end int) error {
		weights := make([]float64, c.tileCount)
		for cell := start; cell < end; cell++ {
			c.cells[cell] = c.buildCell(cell, magnitudes, weights, sharpen)
		}
		return nil
	})
}

func (c *Cache) buildCell(cell int, magnitudes, weights []float64, sharpen bool) *distribution.Piecewise1D {
	base := cell * c.tileCount
	for t := range weights {
		w, n := c.accumulators[base+t].load()
		weights[t] = magnitudes[t] * w / float64(n)
	}

	if sharpen {
		mean := stat.Mean(weights, nil)
		for t := range weights {
			weights[t] = math.Max(weights[t]-mean, 0)
		}
	}
	return distribution.NewPiecewise1D(weights)
}

// Built reports whether Build has run
func (c *Cache) Built() bool {
	return c.built.Load()
}

func (c *Cache) cell(i, j int) *distribution.Piecewise1D {
	assert.That(c.cells != nil, "light grid used before build")
	assert.That(i >= 0 && i < c.gridX && j >= 0 && j < c.gridY, "cell (%d,%d) outside %dx%d grid", i, j, c.gridX, c.gridY)
	return c.cells[j*c.gridX+i]
}

// Sample picks a tile for cell (i, j) and returns its probability
func (c *Cache) Sample(i, j int, u float64) (int, float64) {
	dist := c.cell(i, j)
	tile, _, _ := dist.Sample(u)
	return tile, dist.Probability(tile)
}

// PDF returns the probability of picking tile in cell (i, j)
func (c *Cache) PDF(i, j, tile int) float64 {
	return c.cell(i, j).Probability(tile)
}

// Probabilities returns the tile probabilities of cell (i, j)
func (c *Cache) Probabilities(i, j int) []float64 {
	dist := c.cell(i, j)
	probs := make([]float64, dist.Count())
	for t := range probs {
		probs[t] = dist.Probability(t)
	}
	return probs
}
