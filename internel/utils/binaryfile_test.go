package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "capture.bin")
	samples := []float32{0, 0.5, -0.25, 1, -1}

	require.NoError(t, WriteBinary(filename, samples))
	got, err := ReadBinary[float32](filename)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestReadBinaryTruncated(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(filename, []byte{1, 2, 3}, 0o644))

	_, err := ReadBinary[float32](filename)
	assert.Error(t, err)

	_, err = ReadBinary[float32](filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
