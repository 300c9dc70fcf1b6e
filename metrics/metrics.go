// Package metrics exposes Prometheus collectors for camera sessions and the frame relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mjpeg"

var (
	// framesTotal is a counter of frames emitted by the reassembler.
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of frames extracted from the stream",
		},
		[]string{"source"},
	)

	// frameBytes is a histogram of emitted frame sizes.
	frameBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_bytes",
			Help:      "Size of extracted frames in bytes",
			Buckets:   prometheus.ExponentialBuckets(4096, 2, 10), // 4KiB .. 2MiB
		},
		[]string{"source"},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of stream sessions established",
		},
		[]string{"source"},
	)

	sessionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failures_total",
			Help:      "Total number of fatal session failures",
		},
		[]string{"source", "kind"}, // kind: connect, header, framing, read
	)

	sessionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of currently open stream sessions",
		},
		[]string{"source"},
	)

	relaySubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_subscribers",
			Help:      "Number of clients subscribed to the frame relay",
		},
	)

	allMetrics = []prometheus.Collector{
		framesTotal,
		frameBytes,
		sessionsTotal,
		sessionFailuresTotal,
		sessionsActive,
		relaySubscribers,
	}
)

func RecordFrame(source string, size int) {
	framesTotal.WithLabelValues(source).Inc()
	frameBytes.WithLabelValues(source).Observe(float64(size))
}

func RecordSessionStart(source string) {
	sessionsTotal.WithLabelValues(source).Inc()
	sessionsActive.WithLabelValues(source).Inc()
}

func RecordSessionEnd(source string) {
	sessionsActive.WithLabelValues(source).Dec()
}

func RecordFailure(source, kind string) {
	sessionFailuresTotal.WithLabelValues(source, kind).Inc()
}

func SetRelaySubscribers(n int) {
	relaySubscribers.Set(float64(n))
}
