package device

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

type NetworkConfig[BufferIDType comparable] []struct {
	In  BufferIDType
	Out BufferIDType
}

type networkNode[BufferIDType comparable] struct {
	*Network[BufferIDType]
	input    []float32 // interleaved
	output   []float32 // interleaved
	medium   []float32 // mono buffer this node listens to
	callback func([]float32, []float32)
}

// Network simulates a shared acoustic medium. Every node reads the mono buffer named
// by In and adds its output to the buffer named by Out; the sums are heard one
// buffer period later.
type Network[BufferIDType comparable] struct {
	SampleRate      float64 // the fake sample rate, 0 means no limit
	FramesPerBuffer int
	Channels        int
	Config          NetworkConfig[BufferIDType] // the topology of the network
	Noise           float32                     // amplitude of uniform noise added to every buffer
	Seed            uint64
	LateUpdate      func() // the post process function

	mu      sync.Mutex
	once    sync.Once
	rand    *rand.Rand
	buffers map[BufferIDType][]float32
	devices []*networkNode[BufferIDType]
	active  int
	done    chan struct{}
	stopped chan struct{}
}

func (n *Network[BufferIDType]) frames() int {
	return orDefault(n.FramesPerBuffer, BufferSize)
}

func (n *Network[BufferIDType]) channels() int {
	return orDefault(n.Channels, Channels)
}

func (n *Network[BufferIDType]) GetBuffer(name BufferIDType) []float32 {
	buf, ok := n.buffers[name]
	if !ok {
		buf = allocf32(n.frames())
		n.buffers[name] = buf
	}
	return buf
}

func (n *Network[BufferIDType]) Build() []*networkNode[BufferIDType] {
	n.buffers = make(map[BufferIDType][]float32)
	n.done = make(chan struct{})
	n.stopped = make(chan struct{})
	n.rand = rand.New(rand.NewSource(n.Seed))
	for _, deviceConfig := range n.Config {
		n.devices = append(n.devices, &networkNode[BufferIDType]{
			Network: n,
			medium:  n.GetBuffer(deviceConfig.In),
			input:   allocf32(n.frames() * n.channels()),
			output:  allocf32(n.frames() * n.channels()),
		})
	}
	return n.devices
}

func (n *Network[BufferIDType]) update() {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels := n.channels()
	for _, d := range n.devices {
		if d.callback == nil {
			continue
		}
		for i, v := range d.medium {
			for c := 0; c < channels; c++ {
				d.input[i*channels+c] = v
			}
		}
		d.callback(d.input, d.output)
	}

	// clear the buffers
	for _, buf := range n.buffers {
		clearf32(buf)
	}

	// sum up the output of all the devices to the input buffer
	for i, deviceConfig := range n.Config {
		device := n.devices[i]
		if device.callback == nil {
			continue
		}
		buf := n.buffers[deviceConfig.Out]
		for j := range buf {
			buf[j] = max(-1, min(1, buf[j]+device.output[j*channels]))
		}
	}

	if n.Noise > 0 {
		for _, buf := range n.buffers {
			noisef32(n.rand, buf, n.Noise)
		}
	}

	if n.LateUpdate != nil {
		n.LateUpdate()
	}
}

func (n *Network[BufferIDType]) run() {
	defer close(n.stopped)
	if n.SampleRate == 0 {
		for {
			select {
			case <-n.done:
				return
			default:
				n.update()
			}
		}
	}
	period := time.Duration(float64(time.Second) * float64(n.frames()) / n.SampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-ticker.C:
			n.update()
		}
	}
}

// Stop halts the medium for every node.
func (n *Network[BufferIDType]) Stop() {
	n.mu.Lock()
	for _, d := range n.devices {
		d.callback = nil
	}
	n.mu.Unlock()
	select {
	case <-n.done:
	default:
		close(n.done)
	}
}

// Join blocks until the medium has stopped.
func (n *Network[BufferIDType]) Join() {
	<-n.stopped
}

func (d *networkNode[BufferIDType]) Start(callback func([]float32, []float32)) error {
	n := d.Network
	n.mu.Lock()
	d.callback = callback
	n.active++
	n.mu.Unlock()

	n.once.Do(func() {
		go n.run()
	})
	return nil
}

// Stop detaches the node; the medium stops with its last node.
func (d *networkNode[BufferIDType]) Stop() error {
	n := d.Network
	n.mu.Lock()
	last := false
	if d.callback != nil {
		d.callback = nil
		n.active--
		last = n.active == 0
	}
	n.mu.Unlock()
	if last {
		n.Stop()
		n.Join()
	}
	return nil
}
