package layers

import (
	"Aetherlink/pkg/capture"
	"errors"

	"github.com/sirupsen/logrus"
)

var (
	ErrLockPoisoned  = errors.New("link state poisoned by a panic")
	ErrChannelClosed = errors.New("link is closed")
	ErrInvalidText   = errors.New("text is not valid UTF-8")
)

// FrameTap observes complete frames in both directions.
type FrameTap interface {
	WriteFrame(dir capture.Direction, frame []byte) error
}

func entry(log logrus.FieldLogger, layer string) logrus.FieldLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("layer", layer)
}
