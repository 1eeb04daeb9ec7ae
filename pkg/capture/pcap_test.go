package capture

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrames(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	start := time.Unix(1700000000, 0)
	w.Now = func() time.Time { return start }

	require.NoError(t, w.WriteFrame(Outbound, []byte{1, 0, 0, 2, 'h', 'i', 0x00}))
	require.NoError(t, w.WriteFrame(Inbound, []byte{0, 1, 5, 0, 0x04}))

	records, err := ReadFrames(&buf)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Outbound, records[0].Direction)
	assert.Equal(t, []byte{1, 0, 0, 2, 'h', 'i', 0x00}, records[0].Frame)
	assert.Equal(t, Inbound, records[1].Direction)
	assert.Equal(t, []byte{0, 1, 5, 0, 0x04}, records[1].Frame)
	assert.True(t, records[0].Timestamp.Equal(start))
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "inbound", Inbound.String())
	assert.Equal(t, "outbound", Outbound.String())
	assert.Equal(t, "Direction(9)", Direction(9).String())
}
