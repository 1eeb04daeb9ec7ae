package modem

import "fmt"

// Demodulator turns captured buffers into recovered bits, one symbol period per buffer.
// Implementations append to bits and return it; they must not retain samples.
type Demodulator interface {
	Demodulate(samples []float32, bits []bool) []bool
	Reset()
}

const (
	DemodulatorThreshold = "threshold"
	DemodulatorSpectral  = "spectral"
)

type DemodulatorConfig struct {
	Kind       string
	SampleRate float64
	Freqs      [2]float64 // tone A, tone B
	Threshold  float64    // threshold demodulator: E1 > Threshold*E0, 0 means 1
	WindowSize int        // spectral demodulator: samples per window, 0 means one buffer
}

func (c DemodulatorConfig) New() (Demodulator, error) {
	switch c.Kind {
	case "", DemodulatorThreshold:
		return &ThresholdDemodulator{
			SampleRate: c.SampleRate,
			Freqs:      c.Freqs,
			Threshold:  c.Threshold,
		}, nil
	case DemodulatorSpectral:
		if c.WindowSize < 0 {
			return nil, fmt.Errorf("invalid spectral window of %d samples", c.WindowSize)
		}
		return &SpectralDemodulator{
			SampleRate: c.SampleRate,
			Freqs:      c.Freqs,
			WindowSize: c.WindowSize,
		}, nil
	default:
		return nil, fmt.Errorf("unknown demodulator %q", c.Kind)
	}
}
