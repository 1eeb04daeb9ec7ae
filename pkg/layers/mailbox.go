package layers

import "Aetherlink/pkg/modem"

// Mailbox is a single-slot, non-blocking handoff of the current symbol. A newer
// value replaces one that has not been taken yet.
type Mailbox struct {
	slot chan modem.Symbol
}

func NewMailbox() *Mailbox {
	return &Mailbox{slot: make(chan modem.Symbol, 1)}
}

func (m *Mailbox) Publish(s modem.Symbol) {
	for {
		select {
		case m.slot <- s:
			return
		default:
		}
		select {
		case <-m.slot:
		default:
		}
	}
}

func (m *Mailbox) Take() (modem.Symbol, bool) {
	select {
	case s := <-m.slot:
		return s, true
	default:
		return 0, false
	}
}
