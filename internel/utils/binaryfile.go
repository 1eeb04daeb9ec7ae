package utils

import (
	"encoding/binary"
	"fmt"
	"os"
)

// ReadBinary reads a little-endian dump of fixed-size values.
func ReadBinary[T any](filename string) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("%T has no fixed size", zero)
	}
	if fileInfo.Size()%int64(size) != 0 {
		return nil, fmt.Errorf("%s: %d bytes is not a whole number of %T", filename, fileInfo.Size(), zero)
	}

	data := make([]T, int(fileInfo.Size())/size)
	if err := binary.Read(file, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func WriteBinary[T any](filename string, data []T) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := binary.Write(file, binary.LittleEndian, data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return file.Close()
}
