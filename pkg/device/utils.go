package device

import "golang.org/x/exp/rand"

func clearf32(a []float32) {
	for i := range a {
		a[i] = 0
	}
}

// noisef32 adds uniform noise in [-amplitude, amplitude).
func noisef32(r *rand.Rand, a []float32, amplitude float32) {
	for i := range a {
		a[i] += amplitude * (2*r.Float32() - 1)
	}
}

func allocf32(n int) []float32 {
	return make([]float32, n)
}
