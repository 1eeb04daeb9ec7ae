package modem

import "strings"

// Bits on the wire are sent least-significant bit first. Both UnpackBits and
// ByteAssembler follow this order.

func UnpackBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 0; i < 8; i++ {
			bits = append(bits, b&(1<<i) != 0)
		}
	}
	return bits
}

// PackBits is the inverse of UnpackBits. Trailing bits that do not fill a byte are dropped.
func PackBits(bits []bool) []byte {
	data := make([]byte, 0, len(bits)/8)
	var a ByteAssembler
	for _, bit := range bits {
		if b, ok := a.Push(bit); ok {
			data = append(data, b)
		}
	}
	return data
}

type BitSet8 byte

func (b *BitSet8) Set(pos int) {
	*b |= 1 << pos
}

func (b *BitSet8) Clear(pos int) {
	*b &^= 1 << pos
}

func (b BitSet8) IsSet(pos int) bool {
	return b&(1<<pos) != 0
}

func (b BitSet8) String() string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		if b.IsSet(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ByteAssembler collects bits into bytes, LSB first.
type ByteAssembler struct {
	data  BitSet8
	count int
}

func (a *ByteAssembler) Push(bit bool) (byte, bool) {
	if bit {
		a.data.Set(a.count)
	}
	a.count++
	if a.count < 8 {
		return 0, false
	}
	b := byte(a.data)
	a.Reset()
	return b, true
}

func (a *ByteAssembler) Reset() {
	a.data = 0
	a.count = 0
}
