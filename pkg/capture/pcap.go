// Package capture records link frames into pcap files.
//
// Every record carries a one-byte direction pseudo-header followed by the raw frame
// (to | from | id | len | payload | checksum), under the first user link type so
// dissectors can be attached to it.
package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type Direction uint8

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

const (
	LinkTypeUser0 = layers.LinkType(147)
	snapLen       = 1 + 255
)

type Writer struct {
	mu sync.Mutex
	w  *pcapgo.Writer

	Now func() time.Time
}

func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeUser0); err != nil {
		return nil, err
	}
	return &Writer{w: pw, Now: time.Now}, nil
}

func (w *Writer) WriteFrame(dir Direction, frame []byte) error {
	data := make([]byte, 0, 1+len(frame))
	data = append(data, byte(dir))
	data = append(data, frame...)

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     w.Now(),
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

type Record struct {
	Timestamp time.Time
	Direction Direction
	Frame     []byte
}

// ReadFrames reads back every record written by a Writer.
func ReadFrames(r io.Reader) ([]Record, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, err
	}
	if pr.LinkType() != LinkTypeUser0 {
		return nil, fmt.Errorf("unexpected link type %v", pr.LinkType())
	}
	var records []Record
	for {
		data, ci, err := pr.ReadPacketData()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		if len(data) == 0 {
			return records, fmt.Errorf("empty record at %v", ci.Timestamp)
		}
		records = append(records, Record{
			Timestamp: ci.Timestamp,
			Direction: Direction(data[0]),
			Frame:     data[1:],
		})
	}
}
