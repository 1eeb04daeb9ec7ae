package callbacks

import "sync/atomic"

// Recorder keeps channel 0 of every captured buffer in a track allocated up front.
// Update has the signature of a device callback so it can be chained after the
// driver; it neither locks nor allocates and stops recording once the track is full.
type Recorder struct {
	channels int
	track    []float32
	n        atomic.Int64 // samples published to readers
}

// NewRecorder allocates room for limit samples of an input with the given number
// of interleaved channels, 0 meaning 2.
func NewRecorder(channels, limit int) *Recorder {
	if channels <= 0 {
		channels = 2
	}
	return &Recorder{channels: channels, track: make([]float32, max(limit, 0))}
}

// Update must only be called from one goroutine at a time.
func (r *Recorder) Update(in, out []float32) {
	n := int(r.n.Load())
	for i := 0; i+r.channels <= len(in) && n < len(r.track); i += r.channels {
		r.track[n] = in[i]
		n++
	}
	r.n.Store(int64(n))
}

// Track returns a copy of the samples recorded so far.
func (r *Recorder) Track() []float32 {
	return append([]float32(nil), r.track[:r.n.Load()]...)
}

func (r *Recorder) Len() int {
	return int(r.n.Load())
}

// Reset drops the recording. It must not race with Update.
func (r *Recorder) Reset() {
	r.n.Store(0)
}
