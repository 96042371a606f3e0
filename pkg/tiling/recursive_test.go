package tiling

import (
	"testing"
)

func TestEqualEnergyTiler_LeavesBelowThreshold(t *testing.T) {
	images := map[string]*testImage{
		"Sky":    skyImage(64, 32),
		"Random": randomImage(64, 32, 11),
	}

	for name, img := range images {
		t.Run(name, func(t *testing.T) {
			for _, build := range []func(LuminanceSource, int, int) (*RecursiveTiler, error){NewEqualEnergyTiler, NewAdaptiveTiler} {
				tiler, err := build(img, 8, 4)
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				for i := 0; i < tiler.TileCount(); i++ {
					size := tiler.Bounds(i).Size()
					if size.X < minLeafSide || size.Y < minLeafSide {
						continue
					}
					if tiler.TileMagnitude(i) > tiler.Threshold() {
						t.Errorf("%s tile %d (%v) has energy %f above threshold %f",
							tiler.Kind(), i, tiler.Bounds(i), tiler.TileMagnitude(i), tiler.Threshold())
					}
				}
			}
		})
	}
}

func TestEqualEnergyTiler_DeltaPixel(t *testing.T) {
	const hotX, hotY = 37, 13
	img := newTestImage(64, 32, func(x, y int) float64 {
		if x == hotX && y == hotY {
			return 1000
		}
		return 0
	})

	tiler, err := NewEqualEnergyTiler(img, 4, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	hot := tiler.TileIndexAtPixel(pixelCenter(hotX, hotY, img.w, img.h))
	if share := tiler.TileMagnitude(hot) / img.total(); share < 0.99 {
		t.Errorf("Expected hot tile to hold >= 99%% of the energy, got %f", share)
	}
	if area := tiler.Bounds(hot).Area(); area > 32 {
		t.Errorf("Expected hot pixel isolated in a small tile, got %v (%d pixels)", tiler.Bounds(hot), area)
	}
}

func TestEqualEnergyTiler_FlatMapSplitsEvenly(t *testing.T) {
	img := flatImage(64, 32, 1)
	tiler, err := NewEqualEnergyTiler(img, 4, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Threshold is twice the per-tile share, so every leaf holds at most 1/8 of the energy
	for i := 0; i < tiler.TileCount(); i++ {
		if tiler.TileMagnitude(i) >= tiler.Threshold() {
			t.Errorf("Tile %d energy %f not below threshold %f", i, tiler.TileMagnitude(i), tiler.Threshold())
		}
	}
	if tiler.TileCount() < 8 || tiler.TileCount() > 32 {
		t.Errorf("Expected between 8 and 32 tiles for a flat map, got %d", tiler.TileCount())
	}
}

func TestAdaptiveTiler_MidpointSplits(t *testing.T) {
	img := skyImage(64, 32)
	tiler, err := NewAdaptiveTiler(img, 8, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Midpoint bisection of a 64x32 image only produces power-of-two sides
	for i := 0; i < tiler.TileCount(); i++ {
		size := tiler.Bounds(i).Size()
		if size.X&(size.X-1) != 0 || size.Y&(size.Y-1) != 0 {
			t.Errorf("Tile %d has non power-of-two size %v", i, size)
		}
	}
}

func TestBisect_TieSplitsY(t *testing.T) {
	img := flatImage(8, 8, 1)
	idx := NewEnergyIndex(img)
	leaves := bisect(idx, NewBoundingBox(0, 0, 8, 8), 0, midpointSplit)

	// 8x8 -> 8x4 (tie, Y) -> 4x4 (X) -> 4x2 (tie, Y)
	first := leaves[0]
	if size := first.Size(); size.X != 4 || size.Y != 2 {
		t.Errorf("Expected first leaf of size 4x2 when ties split Y, got %v", first)
	}
	if len(leaves) != 8 {
		t.Errorf("Expected 8 leaves, got %d", len(leaves))
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{"equal-size", EqualSize, false},
		{"ES", EqualSize, false},
		{"equal-energy", EqualEnergy, false},
		{"ee", EqualEnergy, false},
		{" adaptive ", Adaptive, false},
		{"AD", Adaptive, false},
		{"hilbert", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			kind, err := ParseKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if kind != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, kind)
			}
		})
	}
}
