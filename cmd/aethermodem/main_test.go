package main

import "testing"

func TestAddressFlag(t *testing.T) {
	tests := []struct {
		value   int
		address uint8
		set     bool
		fails   bool
	}{
		{-1, 0, false, false},
		{0, 0, true, false},
		{255, 255, true, false},
		{256, 0, false, true},
		{-2, 0, false, true},
	}
	for _, tt := range tests {
		a, ok, err := addressFlag("to", tt.value)
		if (err != nil) != tt.fails || ok != tt.set || a != tt.address {
			t.Errorf("addressFlag(%d): expected %d %v fails=%v, got %d %v %v", tt.value, tt.address, tt.set, tt.fails, a, ok, err)
		}
	}
}
