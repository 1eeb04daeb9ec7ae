package device

import "errors"

// Device drives a full-duplex stream. The callback receives interleaved float32
// buffers of the same number of frames on both sides and must not block.
type Device interface {
	Start(callback func(in, out []float32)) error
	Stop() error
}

const (
	BufferSize = 256
	Channels   = 2
)

// ErrHardwareInit is returned when the audio device cannot be set up.
var ErrHardwareInit = errors.New("audio hardware init failed")

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
