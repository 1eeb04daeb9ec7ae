package device

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// PortAudio opens a full-duplex stream on the default input and output devices.
type PortAudio struct {
	SampleRate      float64
	FramesPerBuffer int
	Channels        int

	stream *portaudio.Stream
}

func (p *PortAudio) Start(callback func(in, out []float32)) (err error) {
	if err = portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareInit, err)
	}
	defer func() {
		if err != nil {
			portaudio.Terminate()
		}
	}()

	input, err := portaudio.DefaultInputDevice()
	if err != nil {
		return fmt.Errorf("%w: no default input device: %v", ErrHardwareInit, err)
	}
	output, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return fmt.Errorf("%w: no default output device: %v", ErrHardwareInit, err)
	}

	params := portaudio.LowLatencyParameters(input, output)
	params.Input.Channels = orDefault(p.Channels, Channels)
	params.Output.Channels = orDefault(p.Channels, Channels)
	params.SampleRate = p.SampleRate
	params.FramesPerBuffer = orDefault(p.FramesPerBuffer, BufferSize)

	if err = portaudio.IsFormatSupported(params, callback); err != nil {
		return fmt.Errorf("%w: duplex format unsupported at %.0f Hz / %d frames: %v", ErrHardwareInit, params.SampleRate, params.FramesPerBuffer, err)
	}

	p.stream, err = portaudio.OpenStream(params, callback)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareInit, err)
	}
	if err = p.stream.Start(); err != nil {
		p.stream.Close()
		return fmt.Errorf("%w: %v", ErrHardwareInit, err)
	}

	logrus.WithFields(logrus.Fields{
		"layer":  "device",
		"input":  input.Name,
		"output": output.Name,
		"rate":   params.SampleRate,
		"frames": params.FramesPerBuffer,
	}).Info("portaudio duplex stream started")
	return nil
}

func (p *PortAudio) Stop() error {
	if p.stream == nil {
		return nil
	}
	defer portaudio.Terminate()
	if err := p.stream.Stop(); err != nil {
		p.stream.Close()
		return err
	}
	return p.stream.Close()
}
