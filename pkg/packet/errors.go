package packet

import "errors"

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrDeserialize      = errors.New("cannot deserialize frame")
	ErrPayloadTooLarge  = errors.New("payload does not fit in one frame")
)
