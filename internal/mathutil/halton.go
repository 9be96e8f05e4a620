package mathutil

// Halton returns the radical inverse of index in the given base, in [0, 1).
func Halton(index, base int) float64 {
	f := 1.0
	r := 0.0
	for i := index; i > 0; i /= base {
		f /= float64(base)
		r += f * float64(i%base)
	}
	return r
}

// Halton23 returns the 2D Halton point (bases 2 and 3) for index.
func Halton23(index int) (float64, float64) {
	return Halton(index, 2), Halton(index, 3)
}
