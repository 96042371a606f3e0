// Package distribution provides piecewise-constant probability
// distributions sampled by inverse CDF.
package distribution

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// oneMinusEpsilon is the largest float64 below 1
var oneMinusEpsilon = math.Nextafter(1, 0)

// Piecewise1D is a piecewise-constant density over [0,1) with one bin per weight
type Piecewise1D struct {
	weights []float64
	cdf     []float64 // len(weights)+1 entries, cdf[0] = 0, cdf[n] = 1
	total   float64
}

// NewPiecewise1D builds a distribution proportional to weights.
// All-zero weights produce the uniform distribution.
func NewPiecewise1D(weights []float64) *Piecewise1D {
	if len(weights) == 0 {
		panic("piecewise distribution needs at least one bin")
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			panic(fmt.Sprintf("weight %d must be finite and non-negative, got %g", i, w))
		}
	}

	n := len(weights)
	d := &Piecewise1D{
		weights: append([]float64(nil), weights...),
		cdf:     make([]float64, n+1),
		total:   floats.Sum(weights),
	}

	if d.total == 0 {
		for i := 1; i <= n; i++ {
			d.cdf[i] = float64(i) / float64(n)
		}
	} else {
		floats.CumSum(d.cdf[1:], d.weights)
		floats.Scale(1/d.total, d.cdf[1:])
	}
	d.cdf[n] = 1
	return d
}

// Count returns the number of bins
func (d *Piecewise1D) Count() int {
	return len(d.weights)
}

// Integral returns the integral of the unnormalized step function over [0,1)
func (d *Piecewise1D) Integral() float64 {
	return d.total / float64(len(d.weights))
}

// Probability returns the discrete probability of selecting bin i
func (d *Piecewise1D) Probability(i int) float64 {
	if i < 0 || i >= len(d.weights) {
		return 0
	}
	return d.cdf[i+1] - d.cdf[i]
}

// Sample picks a bin by inverting the CDF at u. It returns the bin, the
// relative position of u inside it in [0,1), and the density at the sample.
func (d *Piecewise1D) Sample(u float64) (int, float64, float64) {
	n := len(d.weights)
	u = math.Max(0, math.Min(u, oneMinusEpsilon))

	// First bin whose upper CDF edge lies above u; zero-width bins are skipped
	i := sort.Search(n, func(k int) bool { return d.cdf[k+1] > u })
	if i >= n {
		i = n - 1
	}

	p := d.Probability(i)
	offset := 0.0
	if p > 0 {
		offset = math.Min((u-d.cdf[i])/p, oneMinusEpsilon)
	}
	return i, offset, p * float64(n)
}

// SampleContinuous returns a position in [0,1) and its density
func (d *Piecewise1D) SampleContinuous(u float64) (float64, float64) {
	i, offset, pdf := d.Sample(u)
	return binPosition(i, offset, len(d.weights)), pdf
}

// binPosition converts (bin, offset) to a position in [0,1) that maps back to the same bin
func binPosition(i int, offset float64, n int) float64 {
	x := math.Min((float64(i)+offset)/float64(n), oneMinusEpsilon)
	for x > 0 && int(x*float64(n)) > i {
		x = math.Nextafter(x, 0)
	}
	return x
}

// Bin returns the bin containing x, clamped to the valid range
func (d *Piecewise1D) Bin(x float64) int {
	n := len(d.weights)
	i := int(x * float64(n))
	return max(0, min(i, n-1))
}

// PDF returns the density at x in [0,1)
func (d *Piecewise1D) PDF(x float64) float64 {
	return d.Probability(d.Bin(x)) * float64(len(d.weights))
}
