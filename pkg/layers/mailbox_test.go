package layers

import (
	"Aetherlink/pkg/modem"
	"testing"
)

func TestMailbox(t *testing.T) {
	m := NewMailbox()
	if _, ok := m.Take(); ok {
		t.Fatal("expected an empty mailbox")
	}

	m.Publish(modem.Symbol0)
	m.Publish(modem.Symbol1)
	s, ok := m.Take()
	if !ok || s != modem.Symbol1 {
		t.Errorf("expected the newest symbol, got %v %v", s, ok)
	}
	if _, ok := m.Take(); ok {
		t.Error("expected the slot to be consumed")
	}
}
