package modem

// ThresholdDemodulator decides each buffer on the tone energies measured over the
// whole buffer. It assumes buffers are aligned with symbol periods.
type ThresholdDemodulator struct {
	SampleRate float64
	Freqs      [2]float64
	Threshold  float64

	refs [2]quadrature
	size int
}

func (d *ThresholdDemodulator) prepare(size int) {
	for s, freq := range d.Freqs {
		d.refs[s] = newQuadrature(freq, d.SampleRate, size)
	}
	d.size = size
}

func (d *ThresholdDemodulator) Demodulate(samples []float32, bits []bool) []bool {
	if len(samples) == 0 {
		return bits
	}
	if d.size != len(samples) {
		d.prepare(len(samples))
	}
	threshold := d.Threshold
	if threshold == 0 {
		threshold = 1
	}
	e0 := d.refs[0].energy(samples)
	e1 := d.refs[1].energy(samples)
	return append(bits, e1 > threshold*e0)
}

// Energies reports the tone energies of a buffer without producing a bit.
func (d *ThresholdDemodulator) Energies(samples []float32) (e0, e1 float64) {
	if d.size != len(samples) {
		d.prepare(len(samples))
	}
	return d.refs[0].energy(samples), d.refs[1].energy(samples)
}

func (d *ThresholdDemodulator) Reset() {}
