package distribution

import (
	"github.com/df07/go-adaptive-ibl/internal/assert"
	"github.com/df07/go-adaptive-ibl/pkg/core"
)

// Piecewise2D is a piecewise-constant density over [0,1)² on an nx × ny grid.
// Mass is accumulated first, then Normalize turns it into a row marginal
// and one column conditional per row.
type Piecewise2D struct {
	nx, ny      int
	mass        []float64 // row-major, y*nx + x
	marginal    *Piecewise1D
	conditional []*Piecewise1D
}

// NewPiecewise2D creates an empty grid
func NewPiecewise2D(nx, ny int) *Piecewise2D {
	assert.That(nx > 0 && ny > 0, "grid resolution must be positive, got %dx%d", nx, ny)
	return &Piecewise2D{
		nx:   nx,
		ny:   ny,
		mass: make([]float64, nx*ny),
	}
}

// Resolution returns the number of cells along each axis
func (g *Piecewise2D) Resolution() (int, int) {
	return g.nx, g.ny
}

func (g *Piecewise2D) cell(x, y float64) (int, int) {
	cx := max(0, min(int(x*float64(g.nx)), g.nx-1))
	cy := max(0, min(int(y*float64(g.ny)), g.ny-1))
	return cx, cy
}

// Accumulate adds weight to the cell containing (x, y)
func (g *Piecewise2D) Accumulate(x, y, weight float64) {
	assert.That(g.marginal == nil, "accumulate after normalize")
	assert.That(weight >= 0, "negative weight %g", weight)
	cx, cy := g.cell(x, y)
	g.mass[cy*g.nx+cx] += weight
}

// Normalize builds the sampling tables. It must be called exactly once,
// after all accumulation.
func (g *Piecewise2D) Normalize() {
	assert.That(g.marginal == nil, "normalize called twice")

	rowMass := make([]float64, g.ny)
	g.conditional = make([]*Piecewise1D, g.ny)
	for y := 0; y < g.ny; y++ {
		row := g.mass[y*g.nx : (y+1)*g.nx]
		g.conditional[y] = NewPiecewise1D(row)
		rowMass[y] = g.conditional[y].total
	}
	g.marginal = NewPiecewise1D(rowMass)
}

// Sample maps a primary sample to a position in [0,1)² and returns the density there
func (g *Piecewise2D) Sample(u core.Vec2) (core.Vec2, float64) {
	assert.That(g.marginal != nil, "sample before normalize")

	row, offsetY, pdfY := g.marginal.Sample(u.Y)
	x, pdfX := g.conditional[row].SampleContinuous(u.X)
	y := binPosition(row, offsetY, g.ny)

	return core.NewVec2(x, y), pdfX * pdfY
}

// PDF returns the density at position p
func (g *Piecewise2D) PDF(p core.Vec2) float64 {
	assert.That(g.marginal != nil, "pdf before normalize")

	_, cy := g.cell(p.X, p.Y)
	return g.marginal.PDF(p.Y) * g.conditional[cy].PDF(p.X)
}
