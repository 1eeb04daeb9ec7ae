package radio

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aetherlink"

type metrics struct {
	queued      prometheus.Counter
	sent        prometheus.Counter
	delivered   prometheus.Counter
	checksum    prometheus.Counter
	deserialize prometheus.Counter
	locks       prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, address uint8, dropped func() uint64) *metrics {
	labels := prometheus.Labels{"address": strconv.Itoa(int(address))}
	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &metrics{
		queued:      counter("frames_queued_total", "Frames accepted for transmission."),
		sent:        counter("frames_sent_total", "Frames fully played out, preamble included."),
		delivered:   counter("frames_delivered_total", "Frames received for this address."),
		checksum:    counter("checksum_failures_total", "Frames dropped on a non-zero XOR fold."),
		deserialize: counter("deserialize_failures_total", "Frames dropped on a malformed layout."),
		locks:       counter("preamble_locks_total", "Preamble detections."),
	}
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "capture_drops_total",
		Help:        "Captured buffers dropped while the receiver was behind.",
		ConstLabels: labels,
	}, func() float64 {
		return float64(dropped())
	})
	return m
}
