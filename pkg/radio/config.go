package radio

import (
	"Aetherlink/pkg/device"
	"Aetherlink/pkg/layers"
	"Aetherlink/pkg/modem"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Address         uint8
	SampleRate      float64 // R
	FramesPerBuffer int     // N
	Channels        int

	Tones     [2]float64 // tone A (bit 0), tone B (bit 1)
	Amplitude float64
	TableSize int // T, 0 means one second of samples

	PreambleLength int
	PreambleSeed   uint8

	Demodulator string // "threshold" or "spectral"
	Threshold   float64
	WindowSize  int

	TickInterval  time.Duration // 0 locks the framer to the device buffer clock
	CaptureBuffer int

	Device   device.Device
	Tap      layers.FrameTap
	Hook     func(in, out []float32)
	Logger   logrus.FieldLogger
	Registry *prometheus.Registry
}

func DefaultConfig() Config {
	return Config{
		SampleRate:      10000,
		FramesPerBuffer: device.BufferSize,
		Channels:        device.Channels,
		Tones:           [2]float64{440, 560},
		Amplitude:       1,
		PreambleLength:  modem.DefaultPreambleLength,
		Demodulator:     modem.DemodulatorThreshold,
		Threshold:       1,
		CaptureBuffer:   layers.DefaultCaptureBuffer,
	}
}

func (c Config) tableSize() int {
	if c.TableSize > 0 {
		return c.TableSize
	}
	return int(c.SampleRate)
}
