package modem

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SpectralDemodulator keeps a sliding window of captured samples and picks the tone
// with dominant energy in the FFT of the window. The window advances by one buffer
// per call, discarding the oldest samples.
type SpectralDemodulator struct {
	SampleRate float64
	Freqs      [2]float64
	WindowSize int

	fft     *fourier.FFT
	window  []float64
	hann    []float64
	scratch []float64
	coeffs  []complex128
	filled  int
}

func (d *SpectralDemodulator) prepare(size int) {
	d.fft = fourier.NewFFT(size)
	d.window = make([]float64, size)
	d.scratch = make([]float64, size)
	d.coeffs = make([]complex128, size/2+1)
	d.hann = hann(size)
	d.filled = 0
}

func (d *SpectralDemodulator) Demodulate(samples []float32, bits []bool) []bool {
	n := len(samples)
	if n == 0 {
		return bits
	}
	size := d.WindowSize
	if size <= 0 {
		size = n
	}
	if d.fft == nil || len(d.window) != size {
		d.prepare(size)
	}

	if n >= size {
		for i, v := range samples[n-size:] {
			d.window[i] = float64(v)
		}
		d.filled = size
	} else {
		copy(d.window, d.window[n:])
		for i, v := range samples {
			d.window[size-n+i] = float64(v)
		}
		d.filled = min(size, d.filled+n)
	}
	if d.filled < size {
		return bits
	}

	for i := range d.scratch {
		d.scratch[i] = d.window[i] * d.hann[i]
	}
	d.coeffs = d.fft.Coefficients(d.coeffs, d.scratch)

	p0 := d.tonePower(d.Freqs[0], size)
	p1 := d.tonePower(d.Freqs[1], size)
	return append(bits, p1 > p0)
}

// hann is the symmetric Hann window. A single-sample window is left flat.
func hann(size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// tonePower sums the power of the bin nearest to freq and its two neighbours.
func (d *SpectralDemodulator) tonePower(freq float64, size int) float64 {
	bin := int(math.Round(freq * float64(size) / d.SampleRate))
	power := 0.0
	for i := max(0, bin-1); i <= min(len(d.coeffs)-1, bin+1); i++ {
		c := d.coeffs[i]
		power += real(c)*real(c) + imag(c)*imag(c)
	}
	return power
}

func (d *SpectralDemodulator) Reset() {
	d.filled = 0
	for i := range d.window {
		d.window[i] = 0
	}
}
