package modem

import "math"

// quadrature holds cos/sin references of one tone, sized to the buffer.
type quadrature struct {
	cos []float32
	sin []float32
}

func newQuadrature(freq, sampleRate float64, size int) quadrature {
	q := quadrature{cos: make([]float32, size), sin: make([]float32, size)}
	for i := 0; i < size; i++ {
		w := 2 * math.Pi * freq * float64(i) / sampleRate
		q.cos[i] = float32(math.Cos(w))
		q.sin[i] = float32(math.Sin(w))
	}
	return q
}

// energy is the non-coherent correlation power of a against the tone, independent of phase.
func (q quadrature) energy(a []float32) float64 {
	return square(dotProduct(a, q.cos)) + square(dotProduct(a, q.sin))
}

func dotProduct(a, b []float32) float64 {
	s := 0.0
	for i := range min(len(a), len(b)) {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func square(x float64) float64 {
	return x * x
}
