package layers

import (
	"Aetherlink/pkg/modem"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type TxState int

const (
	TxIdle TxState = iota
	TxPreamble
	TxPacket
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "Idle"
	case TxPreamble:
		return "SendingPreamble"
	case TxPacket:
		return "SendingPacket"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// BitSource hands out encoded packets, already unpacked into bits, in order.
type BitSource interface {
	NextPacket() ([]bool, bool)
}

// Framer selects the outgoing symbol once per tick. The link never goes silent:
// while idle the last symbol keeps playing.
type Framer struct {
	Preamble     []bool
	Source       BitSource
	Mailbox      *Mailbox
	OnPacketSent func(bits int)
	Log          logrus.FieldLogger

	state   TxState
	counter int
	current []bool
	symbol  modem.Symbol
}

func (f *Framer) State() TxState {
	return f.state
}

// Tick advances the state machine by one symbol and publishes it to the driver.
func (f *Framer) Tick() modem.Symbol {
	if f.state == TxIdle && f.Source != nil {
		if bits, ok := f.Source.NextPacket(); ok && len(bits) > 0 {
			f.current = bits
			f.counter = 0
			f.state = TxPreamble
			entry(f.Log, "tx").WithField("bits", len(bits)).Debug("sending preamble")
		}
	}

	if f.state == TxPreamble && len(f.Preamble) == 0 {
		f.state = TxPacket
	}

	switch f.state {
	case TxPreamble:
		f.symbol = modem.SymbolOf(f.Preamble[f.counter])
		f.counter++
		if f.counter >= len(f.Preamble) {
			f.counter = 0
			f.state = TxPacket
		}
	case TxPacket:
		f.symbol = modem.SymbolOf(f.current[f.counter])
		f.counter++
		if f.counter >= len(f.current) {
			sent := len(f.current)
			f.counter = 0
			f.current = nil
			f.state = TxIdle
			entry(f.Log, "tx").WithField("bits", sent).Debug("packet sent")
			if f.OnPacketSent != nil {
				f.OnPacketSent(sent)
			}
		}
	}

	if f.Mailbox != nil {
		f.Mailbox.Publish(f.symbol)
	}
	return f.symbol
}

// Run ticks once per value received from ticks until ctx is done or ticks is closed.
func (f *Framer) Run(ctx context.Context, ticks <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			f.Tick()
		}
	}
}

// Every produces ticks at a fixed interval until ctx is done. Late ticks are merged.
func Every(ctx context.Context, interval time.Duration) <-chan struct{} {
	ticks := make(chan struct{}, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ticks <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ticks
}
