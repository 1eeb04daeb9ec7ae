package radio

import (
	"Aetherlink/pkg/device"
	"Aetherlink/pkg/modem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDevice struct{}

func (failingDevice) Start(func(in, out []float32)) error {
	return errors.New("no duplex device")
}

func (failingDevice) Stop() error { return nil }

func testConfig(dev device.Device, address uint8) Config {
	cfg := DefaultConfig()
	cfg.Address = address
	cfg.FramesPerBuffer = 100
	cfg.Tones = [2]float64{1000, 2000}
	cfg.PreambleLength = 32
	cfg.Device = dev
	return cfg
}

func TestStartTwice(t *testing.T) {
	r, err := New(testConfig(&device.Loopback{SampleRate: 50000, FramesPerBuffer: 100}, 1))
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyInitialized)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Start(), ErrAlreadyInitialized)
	assert.ErrorIs(t, r.Close(), ErrChannelClosed)
}

func TestStartHardwareFailure(t *testing.T) {
	r, err := New(testConfig(failingDevice{}, 1))
	require.NoError(t, err)
	assert.ErrorIs(t, r.Start(), ErrHardwareInit)
	assert.ErrorIs(t, r.Start(), ErrHardwareInit, "a failed start can be retried")
	assert.NoError(t, r.Close())
}

func TestNewErrors(t *testing.T) {
	_, err := New(testConfig(nil, 1))
	assert.ErrorIs(t, err, ErrHardwareInit)

	cfg := testConfig(&device.Loopback{}, 1)
	cfg.Demodulator = "psk"
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = testConfig(&device.Loopback{}, 1)
	cfg.SampleRate = 0.5
	_, err = New(cfg)
	assert.Error(t, err, "a table shorter than one sample")
}

func TestTransmitQueue(t *testing.T) {
	r, err := New(testConfig(&device.Loopback{}, 1))
	require.NoError(t, err)

	text := strings.Repeat("x", 2*62+1)
	require.NoError(t, r.Transmit(text, 2))
	assert.Equal(t, 3, r.Pending())
	assert.Equal(t, 3.0, testutil.ToFloat64(r.metrics.queued))

	bits, ok := r.NextPacket()
	require.True(t, ok)
	assert.Equal(t, 8*(5+62), len(bits))
	frame := modem.PackBits(bits)
	assert.Equal(t, []byte{2, 1, 0, 62}, frame[:4])

	assert.ErrorIs(t, r.Transmit("\xff\xfe", 2), ErrInvalidText)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Transmit("late", 2), ErrChannelClosed)
	assert.Equal(t, 0, r.Pending())
}

func TestLockPoisoning(t *testing.T) {
	r, err := New(testConfig(&device.Loopback{}, 1))
	require.NoError(t, err)

	err = r.locked(func() error { panic("boom") })
	assert.ErrorIs(t, err, ErrLockPoisoned)
	assert.ErrorIs(t, r.Transmit("hi", 2), ErrLockPoisoned)
	_, ok := r.Receive()
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}

func TestRadioToRadio(t *testing.T) {
	for _, kind := range []string{modem.DemodulatorThreshold, modem.DemodulatorSpectral} {
		t.Run(kind, func(t *testing.T) {
			network := &device.Network[string]{
				SampleRate:      50000,
				FramesPerBuffer: 100,
				Channels:        2,
				Config: device.NetworkConfig[string]{
					{In: "x", Out: "y"},
					{In: "y", Out: "x"},
				},
			}
			nodes := network.Build()

			cfgA := testConfig(nodes[0], 1)
			cfgA.Demodulator = kind
			cfgB := testConfig(nodes[1], 2)
			cfgB.Demodulator = kind

			a, err := New(cfgA)
			require.NoError(t, err)
			b, err := New(cfgB)
			require.NoError(t, err)
			require.NoError(t, a.Start())
			require.NoError(t, b.Start())
			defer a.Close()
			defer b.Close()

			require.NoError(t, a.Transmit("ping", 2))
			require.NoError(t, a.Transmit("not for you", 9))
			require.NoError(t, b.Transmit("pong", Broadcast))

			got := map[uint8]string{}
			deadline := time.After(10 * time.Second)
			for len(got) < 2 {
				select {
				case <-deadline:
					t.Fatalf("timed out, received %v", got)
				case <-time.After(5 * time.Millisecond):
				}
				if text, ok := b.Receive(); ok {
					got[b.Address()] = text
				}
				if text, ok := a.Receive(); ok {
					got[a.Address()] = text
				}
			}
			assert.Equal(t, "ping", got[2])
			assert.Equal(t, "pong", got[1])

			// the frame for address 9 is heard and dropped
			time.Sleep(time.Second)
			_, ok := b.Receive()
			assert.False(t, ok)
			assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.delivered))
			assert.GreaterOrEqual(t, testutil.ToFloat64(b.metrics.locks), 2.0)
			assert.Equal(t, 2.0, testutil.ToFloat64(a.metrics.sent))
		})
	}
}
