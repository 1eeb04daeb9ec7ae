package layers

import (
	"Aetherlink/pkg/modem"
	"sync/atomic"
)

// Driver is the real-time half of the link. Process is bound to the audio callback:
// it forwards captured audio to the receiver and plays the current symbol.
type Driver struct {
	Tones    modem.ToneTable
	Channels int // interleaved channels, 0 means 2
	Mailbox  *Mailbox

	Capture chan<- []float32 // nil disables capture
	Clock   chan<- struct{}  // one tick per buffer, may be nil

	// capture buffers are recycled through a ring that is longer than the capture
	// channel, so a slot is never rewritten while the receiver may still read it
	ring    [][]float32
	next    int
	frames  int
	phase   int
	symbol  modem.Symbol
	dropped atomic.Uint64
	played  atomic.Uint64
}

func (d *Driver) channels() int {
	if d.Channels <= 0 {
		return 2
	}
	return d.Channels
}

// Prepare allocates the capture ring for buffers of the given number of frames.
// Process calls it itself if the size changes, which only happens on the first buffer
// of a device that did not announce its size.
func (d *Driver) Prepare(frames int) {
	slots := 2
	if d.Capture != nil {
		slots += cap(d.Capture)
	}
	d.ring = make([][]float32, slots)
	for i := range d.ring {
		d.ring[i] = make([]float32, frames)
	}
	d.next = 0
	d.frames = frames
}

func (d *Driver) Process(in, out []float32) {
	channels := d.channels()
	frames := len(out) / channels

	// forward one channel of the input, dropping it if the receiver is behind
	if d.Capture != nil && len(in) >= frames*channels {
		if d.frames != frames {
			d.Prepare(frames)
		}
		buf := d.ring[d.next]
		for i := range buf {
			buf[i] = in[i*channels]
		}
		select {
		case d.Capture <- buf:
			d.next = (d.next + 1) % len(d.ring)
		default:
			d.dropped.Add(1)
		}
	}

	if d.Mailbox != nil {
		if s, ok := d.Mailbox.Take(); ok {
			d.symbol = s
		}
	}

	wave := d.Tones.Wave(d.symbol)
	if len(wave) == 0 {
		clear(out)
		d.played.Add(1)
		d.tick()
		return
	}
	for i := 0; i < frames; i++ {
		v := wave[d.phase]
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
		d.phase++
		if d.phase >= len(wave) {
			d.phase -= len(wave)
		}
	}
	d.played.Add(1)
	d.tick()
}

func (d *Driver) tick() {
	if d.Clock != nil {
		select {
		case d.Clock <- struct{}{}:
		default:
		}
	}
}

// Dropped counts captured buffers discarded under backpressure.
func (d *Driver) Dropped() uint64 {
	return d.dropped.Load()
}

// Played counts buffers synthesized so far.
func (d *Driver) Played() uint64 {
	return d.played.Load()
}

// Symbol and Phase expose the synthesis state; they are only meaningful from the
// callback goroutine or once the device is stopped.
func (d *Driver) Symbol() modem.Symbol {
	return d.symbol
}

func (d *Driver) Phase() int {
	return d.phase
}
