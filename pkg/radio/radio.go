// Package radio is the caller-facing side of the link: one Radio owns a device, the
// transmit framer, the receive synchronizer and the queues they share.
package radio

import (
	"Aetherlink/pkg/capture"
	"Aetherlink/pkg/device"
	"Aetherlink/pkg/layers"
	"Aetherlink/pkg/modem"
	"Aetherlink/pkg/packet"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	ErrHardwareInit       = device.ErrHardwareInit
	ErrAlreadyInitialized = errors.New("radio already initialized")
	ErrLockPoisoned       = layers.ErrLockPoisoned
	ErrChannelClosed      = layers.ErrChannelClosed
	ErrInvalidText        = layers.ErrInvalidText
	ErrChecksumMismatch   = packet.ErrChecksumMismatch
	ErrDeserialize        = packet.ErrDeserialize
)

// Broadcast addresses every radio on the medium.
const Broadcast = packet.Broadcast

type Radio struct {
	address  uint8
	tap      layers.FrameTap
	log      logrus.FieldLogger
	registry *prometheus.Registry
	metrics  *metrics
	physical layers.PhysicalLayer

	lifecycle sync.Mutex // serializes Start and Close

	mu        sync.Mutex
	started   bool
	closed    bool
	poisoned  bool
	frameID   uint8
	pending   [][]bool
	delivered []string
}

func New(cfg Config) (*Radio, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("%w: no device configured", ErrHardwareInit)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", cfg.SampleRate)
	}
	if cfg.tableSize() <= 0 {
		return nil, fmt.Errorf("tone table of %d samples at %v Hz", cfg.tableSize(), cfg.SampleRate)
	}
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

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("address", cfg.Address)

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := &Radio{
		address:  cfg.Address,
		tap:      cfg.Tap,
		log:      log,
		registry: registry,
	}

	preamble := modem.PreambleConfig{Length: cfg.PreambleLength, Seed: cfg.PreambleSeed}.New()
	driver := &layers.Driver{
		Tones: modem.ToneConfig{
			SampleRate: cfg.SampleRate,
			Size:       cfg.tableSize(),
			Freqs:      cfg.Tones[:],
			Amplitude:  cfg.Amplitude,
		}.New(),
		Channels: cfg.Channels,
	}
	r.metrics = newMetrics(registry, cfg.Address, driver.Dropped)

	r.physical = layers.PhysicalLayer{
		Device: cfg.Device,
		Driver: driver,
		Framer: &layers.Framer{
			Preamble: preamble,
			Source:   r,
			OnPacketSent: func(int) {
				r.metrics.sent.Inc()
			},
			Log: log,
		},
		Synchronizer: &layers.Synchronizer{
			Preamble:    preamble,
			Demodulator: demodulator,
			Deliver:     r.deliver,
			Tap:         cfg.Tap,
			Stats: layers.SyncStats{
				OnLock:             r.metrics.locks.Inc,
				OnChecksumMismatch: r.metrics.checksum.Inc,
				OnDeserializeError: func(error) { r.metrics.deserialize.Inc() },
			},
			Log: log,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		TickInterval:    cfg.TickInterval,
		CaptureBuffer:   cfg.CaptureBuffer,
		Hook:            cfg.Hook,
	}
	return r, nil
}

// locked runs f under the radio lock. A panic in f poisons the radio: this and
// every later call fail with ErrLockPoisoned.
func (r *Radio) locked(f func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		return ErrLockPoisoned
	}
	defer func() {
		if v := recover(); v != nil {
			r.poisoned = true
			r.log.WithField("panic", v).Error("panic while holding the radio lock")
			err = fmt.Errorf("%w: %v", ErrLockPoisoned, v)
		}
	}()
	return f()
}

// Start opens the device and spins up the framer and synchronizer. It succeeds once;
// every later call returns ErrAlreadyInitialized. A failed start can be retried.
func (r *Radio) Start() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if err := r.locked(func() error {
		if r.started || r.closed {
			return ErrAlreadyInitialized
		}
		r.started = true
		return nil
	}); err != nil {
		return err
	}

	if err := r.physical.Open(); err != nil {
		r.mu.Lock()
		r.started = false
		r.mu.Unlock()
		r.log.WithError(err).Error("failed to open device")
		if errors.Is(err, ErrHardwareInit) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrHardwareInit, err)
	}
	entry(r.log).Info("radio started")
	return nil
}

// Transmit queues text for dest and returns once it is queued, not once it is sent.
func (r *Radio) Transmit(text string, dest uint8) error {
	if !utf8.ValidString(text) {
		return ErrInvalidText
	}

	var frames [][]byte
	err := r.locked(func() error {
		if r.closed {
			return ErrChannelClosed
		}
		id := r.frameID
		packets := packet.Packetize(text, dest, r.address, &id)
		bits := make([][]bool, 0, len(packets))
		for _, p := range packets {
			frame, err := packet.Encode(p)
			if err != nil {
				return err
			}
			frames = append(frames, frame)
			bits = append(bits, modem.UnpackBits(frame))
		}
		r.frameID = id
		r.pending = append(r.pending, bits...)
		return nil
	})
	if err != nil {
		return err
	}

	r.metrics.queued.Add(float64(len(frames)))
	entry(r.log).WithFields(logrus.Fields{
		"to":     dest,
		"frames": len(frames),
	}).Debug("queued")
	if r.tap != nil {
		for _, frame := range frames {
			if err := r.tap.WriteFrame(capture.Outbound, frame); err != nil {
				entry(r.log).WithError(err).Warn("frame tap failed")
			}
		}
	}
	return nil
}

// NextPacket hands the oldest queued packet to the framer.
func (r *Radio) NextPacket() (bits []bool, ok bool) {
	r.locked(func() error {
		if len(r.pending) == 0 {
			return nil
		}
		bits, ok = r.pending[0], true
		r.pending[0] = nil
		r.pending = r.pending[1:]
		return nil
	})
	return
}

func (r *Radio) deliver(p packet.Packet) {
	if p.From == r.address {
		entry(r.log).WithField("id", p.ID).Debug("own frame echoed back")
		return
	}
	if p.To != r.address && p.To != packet.Broadcast {
		entry(r.log).WithField("to", p.To).Debug("frame for another address")
		return
	}
	if err := r.locked(func() error {
		r.delivered = append(r.delivered, p.Payload)
		return nil
	}); err != nil {
		entry(r.log).WithError(err).Error("dropping received text")
		return
	}
	r.metrics.delivered.Inc()
}

// Receive pops the oldest delivered text without blocking.
func (r *Radio) Receive() (text string, ok bool) {
	r.locked(func() error {
		if len(r.delivered) == 0 {
			return nil
		}
		text, ok = r.delivered[0], true
		r.delivered = r.delivered[1:]
		return nil
	})
	return
}

// Close stops the device and joins the framer and synchronizer. Queued packets
// that were not played are discarded. Close works on a poisoned radio too.
func (r *Radio) Close() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrChannelClosed
	}
	r.closed = true
	started := r.started
	r.pending = nil
	r.mu.Unlock()

	if !started {
		return nil
	}
	err := r.physical.Close()
	entry(r.log).Info("radio closed")
	return err
}

func (r *Radio) Address() uint8 {
	return r.address
}

func (r *Radio) Registry() *prometheus.Registry {
	return r.registry
}

// Pending reports the number of packets waiting for the framer.
func (r *Radio) Pending() (n int) {
	r.locked(func() error {
		n = len(r.pending)
		return nil
	})
	return
}

func entry(log logrus.FieldLogger) logrus.FieldLogger {
	return log.WithField("layer", "radio")
}
