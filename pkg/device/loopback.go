package device

import "time"

// Loopback feeds the output of each callback into the input of the next one.
type Loopback struct {
	SampleRate      float64 // paces one buffer per FramesPerBuffer/SampleRate, 0 means no limit
	FramesPerBuffer int
	Channels        int

	done    chan struct{}
	stopped chan struct{}
}

func (d *Loopback) Start(callback func(in, out []float32)) error {
	n := orDefault(d.FramesPerBuffer, BufferSize) * orDefault(d.Channels, Channels)
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go func() {
		defer close(d.stopped)
		var buf = make([][]float32, 2)
		buf[0] = allocf32(n)
		buf[1] = allocf32(n)

		swap := true
		update := func() {
			if swap {
				callback(buf[0], buf[1])
			} else {
				callback(buf[1], buf[0])
			}
			swap = !swap
		}

		if d.SampleRate == 0 {
			for {
				select {
				case <-d.done:
					return
				default:
					update()
				}
			}
		} else {
			period := time.Duration(float64(time.Second) * float64(orDefault(d.FramesPerBuffer, BufferSize)) / d.SampleRate)
			ticker := time.NewTicker(period)
			defer ticker.Stop()
			for {
				select {
				case <-d.done:
					return
				case <-ticker.C:
					update()
				}
			}
		}
	}()
	return nil
}

// Stop returns once no callback is running.
func (d *Loopback) Stop() error {
	close(d.done)
	<-d.stopped
	return nil
}
