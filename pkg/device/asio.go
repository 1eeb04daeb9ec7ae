//go:build windows

package device

import (
	"Aetherlink/pkg/modem"

	"github.com/xsjk/go-asio"
)

// ASIO drives an ASIO duplex device, converting its int32 channel buffers to the
// interleaved float32 layout of the callback.
type ASIO struct {
	DeviceName string
	SampleRate float64
	InChannel  int
	OutChannel int
	Channels   int
	device     asio.Device

	in   []float32
	out  []float32
	mono []float32
}

func (a *ASIO) Start(callback func(in, out []float32)) error {
	channels := orDefault(a.Channels, Channels)
	a.device.Load(a.DeviceName)
	a.device.SetSampleRate(a.SampleRate)
	a.device.Open()
	a.device.Start(func(in, out [][]int32) {
		frames := len(in[a.InChannel])
		if len(a.mono) != frames {
			a.mono = make([]float32, frames)
			a.in = make([]float32, frames*channels)
			a.out = make([]float32, frames*channels)
		}
		modem.Int32ToFloat32(a.mono, in[a.InChannel])
		for i, v := range a.mono {
			for c := 0; c < channels; c++ {
				a.in[i*channels+c] = v
			}
		}
		callback(a.in, a.out)
		for i := range a.mono {
			a.mono[i] = a.out[i*channels]
		}
		modem.Float32ToInt32(out[a.OutChannel], a.mono)
	})
	return nil
}

func (a *ASIO) Stop() error {
	a.device.Stop()
	a.device.Close()
	a.device.Unload()
	return nil
}
