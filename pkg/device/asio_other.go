//go:build !windows

package device

import "fmt"

// ASIO is only available on Windows.
type ASIO struct {
	DeviceName string
	SampleRate float64
	InChannel  int
	OutChannel int
	Channels   int
}

func (a *ASIO) Start(callback func(in, out []float32)) error {
	return fmt.Errorf("%w: ASIO device %q requires windows", ErrHardwareInit, a.DeviceName)
}

func (a *ASIO) Stop() error {
	return nil
}
