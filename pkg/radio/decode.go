package radio

import (
	"Aetherlink/pkg/device"
	"Aetherlink/pkg/layers"
	"Aetherlink/pkg/modem"
	"Aetherlink/pkg/packet"
)

// Decode runs the receive chain described by cfg over recorded mono samples, one
// buffer of FramesPerBuffer samples at a time, and returns every valid frame
// regardless of its destination. Device and Registry are ignored.
func Decode(cfg Config, samples []float32) ([]packet.Packet, error) {
	demodulator, err := modem.DemodulatorConfig{
		Kind:       cfg.Demodulator,
		SampleRate: cfg.SampleRate,
		Freqs:      cfg.Tones,
		Threshold:  cfg.Threshold,
		WindowSize: cfg.WindowSize,
	}.New()
	if err != nil {
		return nil, err
	}

	var packets []packet.Packet
	s := &layers.Synchronizer{
		Preamble:    modem.PreambleConfig{Length: cfg.PreambleLength, Seed: cfg.PreambleSeed}.New(),
		Demodulator: demodulator,
		Deliver:     func(p packet.Packet) { packets = append(packets, p) },
		Tap:         cfg.Tap,
		Log:         cfg.Logger,
	}

	frames := cfg.FramesPerBuffer
	if frames <= 0 {
		frames = device.BufferSize
	}
	for len(samples) >= frames {
		s.PushSamples(samples[:frames])
		samples = samples[frames:]
	}
	return packets, nil
}
