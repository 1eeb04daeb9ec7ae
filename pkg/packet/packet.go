package packet

import (
	"fmt"
	"unicode/utf8"
)

// to (1B) | from (1B) | id (1B) | payload_len (1B) | payload | checksum (1B)
const (
	HeaderSize      = 4
	LenIndex        = 3
	Overhead        = HeaderSize + 1
	MaxFrameSize    = 255
	MaxPayloadSize  = MaxFrameSize - Overhead
	MaxBytesPerRune = utf8.UTFMax

	// MaxChunkSize is the number of characters per packet such that even a chunk of
	// 4-byte runes keeps the frame within MaxFrameSize.
	MaxChunkSize = MaxPayloadSize / MaxBytesPerRune
)

const Broadcast uint8 = 0xFF

type Packet struct {
	To         uint8
	From       uint8
	ID         uint8
	PayloadLen uint8
	Payload    string
	Checksum   uint8
}

func (p Packet) String() string {
	return fmt.Sprintf("Packet{to: %d, from: %d, id: %d, len: %d, payload: %q}", p.To, p.From, p.ID, p.PayloadLen, p.Payload)
}

// Packetize splits text into chunks of at most MaxChunkSize characters. Each chunk
// takes the current value of *id, which is then incremented and wraps at 256.
func Packetize(text string, to, from uint8, id *uint8) []Packet {
	packets := make([]Packet, 0, utf8.RuneCountInString(text)/MaxChunkSize+1)
	for {
		end, count := 0, 0
		for end < len(text) && count < MaxChunkSize {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			count++
		}
		packets = append(packets, Packet{
			To:      to,
			From:    from,
			ID:      *id,
			Payload: text[:end],
		})
		*id++
		text = text[end:]
		if len(text) == 0 {
			return packets
		}
	}
}

// Fold is the XOR of every byte. A valid frame folds to zero.
func Fold(data []byte) byte {
	var acc byte
	for _, b := range data {
		acc ^= b
	}
	return acc
}

// FrameLength reads the declared payload length from a header and returns the
// total frame length. It needs at least HeaderSize bytes.
func FrameLength(header []byte) (int, bool) {
	if len(header) < HeaderSize {
		return 0, false
	}
	return Overhead + int(header[LenIndex]), true
}

// Encode serializes p, setting the length field and the checksum from the payload.
func Encode(p Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(p.Payload))
	}
	frame := make([]byte, 0, Overhead+len(p.Payload))
	frame = append(frame, p.To, p.From, p.ID, 0)
	frame = append(frame, p.Payload...)
	frame[LenIndex] = byte(len(p.Payload))
	frame = append(frame, 0)
	frame[len(frame)-1] = Fold(frame)
	return frame, nil
}

func Decode(frame []byte) (p Packet, err error) {
	if len(frame) < Overhead {
		return p, fmt.Errorf("%w: %d bytes is shorter than the header", ErrDeserialize, len(frame))
	}
	if len(frame) > MaxFrameSize {
		return p, fmt.Errorf("%w: %d bytes exceeds the %d byte frame limit", ErrDeserialize, len(frame), MaxFrameSize)
	}
	if Fold(frame) != 0 {
		return p, ErrChecksumMismatch
	}
	length, _ := FrameLength(frame)
	if length != len(frame) {
		return p, fmt.Errorf("%w: declared %d bytes, got %d", ErrDeserialize, length, len(frame))
	}
	payload := frame[HeaderSize : len(frame)-1]
	if !utf8.Valid(payload) {
		return p, fmt.Errorf("%w: payload is not valid UTF-8", ErrDeserialize)
	}
	return Packet{
		To:         frame[0],
		From:       frame[1],
		ID:         frame[2],
		PayloadLen: frame[LenIndex],
		Payload:    string(payload),
		Checksum:   frame[len(frame)-1],
	}, nil
}
