package mathutil

import "testing"

func TestHalton(t *testing.T) {
	tests := []struct {
		index, base int
		want        float64
	}{
		{0, 2, 0},
		{1, 2, 0.5},
		{2, 2, 0.25},
		{3, 2, 0.75},
		{1, 3, 1.0 / 3},
		{2, 3, 2.0 / 3},
		{3, 3, 1.0 / 9},
	}
	for _, tt := range tests {
		if got := Halton(tt.index, tt.base); got-tt.want > 1e-12 || tt.want-got > 1e-12 {
			t.Errorf("Halton(%d, %d) = %v, want %v", tt.index, tt.base, got, tt.want)
		}
	}
}

func TestHalton23InUnitSquare(t *testing.T) {
	seen := map[[2]float64]bool{}
	for i := 1; i < 64; i++ {
		x, y := Halton23(i)
		if x < 0 || x >= 1 || y < 0 || y >= 1 {
			t.Fatalf("index %d out of range: %v, %v", i, x, y)
		}
		if seen[[2]float64{x, y}] {
			t.Fatalf("index %d repeats a point", i)
		}
		seen[[2]float64{x, y}] = true
	}
}
