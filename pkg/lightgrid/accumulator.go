package lightgrid

import (
	"math"
	"sync/atomic"
)

// accumulator is a (weighted luminance, count) pair updated without locks
type accumulator struct {
	weight atomic.Uint64 // float64 bits
	count  atomic.Int64
}

func (a *accumulator) reset(weight float64, count int64) {
	a.weight.Store(math.Float64bits(weight))
	a.count.Store(count)
}

// add folds one observation in; concurrent adds are applied in any order
func (a *accumulator) add(luminance float64) {
	for {
		old := a.weight.Load()
		updated := math.Float64bits(math.Float64frombits(old) + luminance)
		if a.weight.CompareAndSwap(old, updated) {
			break
		}
	}
	a.count.Add(1)
}

func (a *accumulator) load() (float64, int64) {
	return math.Float64frombits(a.weight.Load()), a.count.Load()
}
