package config

import (
	"Aetherlink/pkg/device"
	"Aetherlink/pkg/layers"
	"Aetherlink/pkg/radio"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DevicePortAudio = "portaudio"
	DeviceASIO      = "asio"
	DeviceLoopback  = "loopback"
)

type Config struct {
	Device struct {
		Kind            string  `yaml:"kind"`
		DeviceName      string  `yaml:"device_name"`
		SampleRate      float64 `yaml:"sample_rate"`
		FramesPerBuffer int     `yaml:"frames_per_buffer"`
		Channels        int     `yaml:"channels"`
	} `yaml:"device"`

	PhysicalLayer struct {
		Tones     [2]float64 `yaml:"tones"`
		Amplitude float64    `yaml:"amplitude"`
		TableSize int        `yaml:"table_size"`

		Preamble struct {
			Length int   `yaml:"length"`
			Seed   uint8 `yaml:"seed"`
		} `yaml:"preamble"`

		Demodulator struct {
			Kind       string  `yaml:"kind"`
			Threshold  float64 `yaml:"threshold"`
			WindowSize int     `yaml:"window_size"`
		} `yaml:"demodulator"`

		TickInterval  time.Duration `yaml:"tick_interval"`
		CaptureBuffer int           `yaml:"capture_buffer"`
	} `yaml:"physical_layer"`

	DataLinkLayer struct {
		Address     uint8 `yaml:"address"`
		Destination uint8 `yaml:"destination"`
	} `yaml:"data_link_layer"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default mirrors radio.DefaultConfig on a PortAudio device.
func Default() *Config {
	def := radio.DefaultConfig()

	var config Config
	config.Device.Kind = DevicePortAudio
	config.Device.SampleRate = def.SampleRate
	config.Device.FramesPerBuffer = def.FramesPerBuffer
	config.Device.Channels = def.Channels
	config.PhysicalLayer.Tones = def.Tones
	config.PhysicalLayer.Amplitude = def.Amplitude
	config.PhysicalLayer.Preamble.Length = def.PreambleLength
	config.PhysicalLayer.Demodulator.Kind = def.Demodulator
	config.PhysicalLayer.Demodulator.Threshold = def.Threshold
	config.PhysicalLayer.CaptureBuffer = def.CaptureBuffer
	config.DataLinkLayer.Destination = radio.Broadcast
	config.Log.Level = "info"
	return &config
}

// LoadConfig reads a yaml file over the defaults, so missing keys keep their
// default values.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return config, nil
}

func CreateDevice(config *Config) (device.Device, error) {
	d := &config.Device
	switch d.Kind {
	case DevicePortAudio, "":
		return &device.PortAudio{
			SampleRate:      d.SampleRate,
			FramesPerBuffer: d.FramesPerBuffer,
			Channels:        d.Channels,
		}, nil
	case DeviceASIO:
		return &device.ASIO{
			DeviceName: d.DeviceName,
			SampleRate: d.SampleRate,
			Channels:   d.Channels,
		}, nil
	case DeviceLoopback:
		return &device.Loopback{
			SampleRate:      d.SampleRate,
			FramesPerBuffer: d.FramesPerBuffer,
			Channels:        d.Channels,
		}, nil
	default:
		return nil, fmt.Errorf("unknown device kind %q", d.Kind)
	}
}

// RadioConfig translates the file layout into a radio.Config without a device.
func RadioConfig(config *Config) radio.Config {
	p := &config.PhysicalLayer
	return radio.Config{
		Address:         config.DataLinkLayer.Address,
		SampleRate:      config.Device.SampleRate,
		FramesPerBuffer: config.Device.FramesPerBuffer,
		Channels:        config.Device.Channels,
		Tones:           p.Tones,
		Amplitude:       p.Amplitude,
		TableSize:       p.TableSize,
		PreambleLength:  p.Preamble.Length,
		PreambleSeed:    p.Preamble.Seed,
		Demodulator:     p.Demodulator.Kind,
		Threshold:       p.Demodulator.Threshold,
		WindowSize:      p.Demodulator.WindowSize,
		TickInterval:    p.TickInterval,
		CaptureBuffer:   p.CaptureBuffer,
	}
}

// RadioOption sets the parts of a radio.Config that do not come from the file.
type RadioOption func(*radio.Config)

func WithTap(tap layers.FrameTap) RadioOption {
	return func(c *radio.Config) { c.Tap = tap }
}

// WithHook chains hook after the driver on the audio callback.
func WithHook(hook func(in, out []float32)) RadioOption {
	return func(c *radio.Config) { c.Hook = hook }
}

func CreateRadio(config *Config, dev device.Device, log logrus.FieldLogger, opts ...RadioOption) (*radio.Radio, error) {
	cfg := RadioConfig(config)
	cfg.Device = dev
	cfg.Logger = log
	for _, opt := range opts {
		opt(&cfg)
	}
	return radio.New(cfg)
}

func CreateLogger(config *Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if config.Log.Level != "" {
		level, err := logrus.ParseLevel(config.Log.Level)
		if err != nil {
			return nil, err
		}
		log.SetLevel(level)
	}
	return log, nil
}
