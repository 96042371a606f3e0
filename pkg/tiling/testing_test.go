package tiling

import (
	"math/rand/v2"
)

// testImage is an in-memory luminance grid
type testImage struct {
	w, h int
	lum  []float64
}

func newTestImage(w, h int, fill func(x, y int) float64) *testImage {
	img := &testImage{w: w, h: h, lum: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.lum[y*w+x] = fill(x, y)
		}
	}
	return img
}

func (i *testImage) Width() int                 { return i.w }
func (i *testImage) Height() int                { return i.h }
func (i *testImage) Luminance(x, y int) float64 { return i.lum[y*i.w+x] }

func (i *testImage) total() float64 {
	sum := 0.0
	for _, v := range i.lum {
		sum += v
	}
	return sum
}

func flatImage(w, h int, value float64) *testImage {
	return newTestImage(w, h, func(x, y int) float64 { return value })
}

// skyImage has a smooth gradient plus a small bright sun
func skyImage(w, h int) *testImage {
	return newTestImage(w, h, func(x, y int) float64 {
		lum := 0.2 + 0.8*float64(h-y)/float64(h)
		if x >= 40 && x < 43 && y >= 6 && y < 8 {
			lum += 500
		}
		return lum
	})
}

func randomImage(w, h int, seed uint64) *testImage {
	random := rand.New(rand.NewPCG(seed, 0))
	return newTestImage(w, h, func(x, y int) float64 {
		return random.ExpFloat64()
	})
}

func allKinds() []Kind {
	return []Kind{EqualSize, EqualEnergy, Adaptive}
}
