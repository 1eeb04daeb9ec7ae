package layers

import (
	"Aetherlink/pkg/capture"
	"Aetherlink/pkg/modem"
	"Aetherlink/pkg/packet"
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type RxState int

const (
	RxSearching RxState = iota
	RxPacket
)

func (s RxState) String() string {
	switch s {
	case RxSearching:
		return "SearchingPreamble"
	case RxPacket:
		return "ReceivingPacket"
	default:
		return fmt.Sprintf("RxState(%d)", int(s))
	}
}

// SyncStats receives per-frame events. Nil hooks are skipped.
type SyncStats struct {
	OnLock             func()
	OnFrame            func(p packet.Packet)
	OnChecksumMismatch func()
	OnDeserializeError func(err error)
}

// Synchronizer locks onto the preamble in the recovered bit stream, reassembles the
// frame that follows and hands valid packets to Deliver.
type Synchronizer struct {
	Preamble    []bool
	Demodulator modem.Demodulator
	Deliver     func(p packet.Packet)
	Tap         FrameTap
	Stats       SyncStats
	Log         logrus.FieldLogger

	state     RxState
	matcher   *modem.Matcher
	assembler modem.ByteAssembler
	frame     []byte
	expected  int // total frame length once the header is in, 0 before
	bits      []bool
}

func (s *Synchronizer) State() RxState {
	return s.state
}

func (s *Synchronizer) Reset() {
	s.state = RxSearching
	if s.matcher != nil {
		s.matcher.Reset()
	}
	s.assembler.Reset()
	s.frame = s.frame[:0]
	s.expected = 0
	if s.Demodulator != nil {
		s.Demodulator.Reset()
	}
}

func (s *Synchronizer) PushBit(bit bool) {
	if s.matcher == nil {
		s.matcher = modem.NewMatcher(s.Preamble)
		s.frame = make([]byte, 0, packet.MaxFrameSize)
	}

	switch s.state {
	case RxSearching:
		if s.matcher.Push(bit) {
			s.state = RxPacket
			s.assembler.Reset()
			s.frame = s.frame[:0]
			s.expected = 0
			entry(s.Log, "rx").Debug("preamble locked")
			if s.Stats.OnLock != nil {
				s.Stats.OnLock()
			}
		}
	case RxPacket:
		b, ok := s.assembler.Push(bit)
		if !ok {
			return
		}
		s.frame = append(s.frame, b)
		if s.expected == 0 {
			if n, ok := packet.FrameLength(s.frame); ok {
				if n > packet.MaxFrameSize {
					s.abort(fmt.Errorf("%w: header declares %d bytes", packet.ErrDeserialize, n))
					return
				}
				s.expected = n
			}
		}
		if s.expected > 0 && len(s.frame) >= s.expected {
			s.finish()
		}
	}
}

func (s *Synchronizer) search() {
	s.state = RxSearching
	s.matcher.Reset()
	s.frame = s.frame[:0]
	s.expected = 0
}

// abort drops the frame being assembled and goes back to searching.
func (s *Synchronizer) abort(err error) {
	entry(s.Log, "rx").WithError(err).Warn("dropping frame")
	if s.Stats.OnDeserializeError != nil {
		s.Stats.OnDeserializeError(err)
	}
	s.search()
}

func (s *Synchronizer) finish() {
	log := entry(s.Log, "rx")
	if s.Tap != nil {
		if err := s.Tap.WriteFrame(capture.Inbound, s.frame); err != nil {
			log.WithError(err).Warn("frame tap failed")
		}
	}

	if fold := packet.Fold(s.frame); fold != 0 {
		log.WithFields(logrus.Fields{
			"len":  len(s.frame),
			"fold": fold,
		}).Warn(packet.ErrChecksumMismatch)
		if s.Stats.OnChecksumMismatch != nil {
			s.Stats.OnChecksumMismatch()
		}
	} else if p, err := packet.Decode(s.frame); err != nil {
		log.WithError(err).Warn("dropping frame")
		if s.Stats.OnDeserializeError != nil {
			s.Stats.OnDeserializeError(err)
		}
	} else {
		log.WithFields(logrus.Fields{
			"from": p.From,
			"to":   p.To,
			"id":   p.ID,
			"len":  p.PayloadLen,
		}).Debug("frame received")
		if s.Stats.OnFrame != nil {
			s.Stats.OnFrame(p)
		}
		if s.Deliver != nil {
			s.Deliver(p)
		}
	}

	s.search()
}

// PushSamples demodulates one captured buffer and feeds the resulting bits.
func (s *Synchronizer) PushSamples(samples []float32) {
	s.bits = s.Demodulator.Demodulate(samples, s.bits[:0])
	for _, bit := range s.bits {
		s.PushBit(bit)
	}
}

// Run consumes captured buffers until ctx is done or in is closed.
func (s *Synchronizer) Run(ctx context.Context, in <-chan []float32) {
	for {
		select {
		case <-ctx.Done():
			return
		case samples, ok := <-in:
			if !ok {
				return
			}
			s.PushSamples(samples)
		}
	}
}
