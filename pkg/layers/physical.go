package layers

import (
	"Aetherlink/pkg/async"
	"Aetherlink/pkg/device"
	"context"
	"errors"
	"time"
)

var ErrAlreadyOpen = errors.New("physical layer already open")

const DefaultCaptureBuffer = 8

// PhysicalLayer binds the Driver to a Device and runs the Framer and Synchronizer
// on their own goroutines for as long as it is open.
type PhysicalLayer struct {
	Device          device.Device
	Driver          *Driver
	Framer          *Framer
	Synchronizer    *Synchronizer
	FramesPerBuffer int
	TickInterval    time.Duration // 0 ticks the framer once per played buffer
	CaptureBuffer   int           // captured buffers queued for the receiver, 0 means DefaultCaptureBuffer

	// Hook runs on the callback goroutine after the driver, with the same buffers.
	Hook func(in, out []float32)

	cancel context.CancelFunc
	done   <-chan struct{}
}

func (p *PhysicalLayer) Open() error {
	if p.cancel != nil {
		return ErrAlreadyOpen
	}

	size := p.CaptureBuffer
	if size <= 0 {
		size = DefaultCaptureBuffer
	}
	captured := make(chan []float32, size)

	mailbox := NewMailbox()
	p.Driver.Mailbox = mailbox
	p.Framer.Mailbox = mailbox
	p.Driver.Capture = captured
	p.Driver.Clock = nil

	ctx, cancel := context.WithCancel(context.Background())
	var ticks <-chan struct{}
	if p.TickInterval > 0 {
		ticks = Every(ctx, p.TickInterval)
	} else {
		clock := make(chan struct{}, 1)
		p.Driver.Clock = clock
		ticks = clock
	}
	p.Driver.Prepare(max(p.FramesPerBuffer, 1))
	p.Synchronizer.Reset()

	p.done = async.Gather0(
		async.Job(func() { p.Framer.Run(ctx, ticks) }),
		async.Job(func() { p.Synchronizer.Run(ctx, captured) }),
	)

	callback := p.Driver.Process
	if hook := p.Hook; hook != nil {
		callback = func(in, out []float32) {
			p.Driver.Process(in, out)
			hook(in, out)
		}
	}
	if err := p.Device.Start(callback); err != nil {
		cancel()
		<-p.done
		return err
	}
	p.cancel = cancel
	return nil
}

// Close stops the device, then cancels and joins both goroutines.
func (p *PhysicalLayer) Close() error {
	if p.cancel == nil {
		return nil
	}
	err := p.Device.Stop()
	p.cancel()
	<-p.done
	p.cancel = nil
	return err
}
