package layers

import (
	"Aetherlink/pkg/modem"
	"context"
	"sync"
	"testing"
	"time"
)

// queue is a BitSource backed by a slice.
type queue struct {
	mu      sync.Mutex
	packets [][]bool
}

func (q *queue) push(bits []bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.packets = append(q.packets, bits)
}

func (q *queue) NextPacket() ([]bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.packets) == 0 {
		return nil, false
	}
	bits := q.packets[0]
	q.packets = q.packets[1:]
	return bits, true
}

func TestFramer(t *testing.T) {
	preamble := []bool{true, false, true}
	source := &queue{}
	source.push([]bool{false, true})

	mailbox := NewMailbox()
	sent := 0
	f := &Framer{
		Preamble:     preamble,
		Source:       source,
		Mailbox:      mailbox,
		OnPacketSent: func(bits int) { sent += bits },
	}

	tests := []struct {
		symbol modem.Symbol
		state  TxState
	}{
		{modem.Symbol1, TxPreamble},
		{modem.Symbol0, TxPreamble},
		{modem.Symbol1, TxPacket},
		{modem.Symbol0, TxPacket},
		{modem.Symbol1, TxIdle},
		{modem.Symbol1, TxIdle},
	}
	for i, tt := range tests {
		s := f.Tick()
		if s != tt.symbol || f.State() != tt.state {
			t.Fatalf("tick %d: expected %v in %v, got %v in %v", i, tt.symbol, tt.state, s, f.State())
		}
		if got, ok := mailbox.Take(); !ok || got != s {
			t.Fatalf("tick %d: expected %v published, got %v %v", i, s, got, ok)
		}
	}
	if sent != 2 {
		t.Errorf("expected 2 bits reported sent, got %d", sent)
	}
}

func TestFramerEmptyPreamble(t *testing.T) {
	source := &queue{}
	source.push([]bool{true})
	f := &Framer{Source: source}
	if s := f.Tick(); s != modem.Symbol1 || f.State() != TxIdle {
		t.Errorf("expected the packet bit right away, got %v in %v", s, f.State())
	}
}

func TestFramerRun(t *testing.T) {
	source := &queue{}
	source.push([]bool{true, true})
	f := &Framer{Preamble: []bool{false}, Source: source}

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan struct{})
	done := make(chan struct{})
	go func() {
		f.Run(ctx, ticks)
		close(done)
	}()
	for range 3 {
		ticks <- struct{}{}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("framer did not stop")
	}
	if f.State() != TxIdle {
		t.Errorf("expected Idle after the packet, got %v", f.State())
	}
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticks := Every(ctx, time.Millisecond)
	for range 3 {
		select {
		case <-ticks:
		case <-time.After(time.Second):
			t.Fatal("no tick")
		}
	}
}
