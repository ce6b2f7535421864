package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hexrelay",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hexrelay",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	relayMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hexrelay",
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Bus messages processed by the relay pipeline.",
		},
		[]string{"result"},
	)
	relayFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hexrelay",
			Subsystem: "relay",
			Name:      "frames_total",
			Help:      "Frames decoded from bus messages.",
		},
	)
	relayDecodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hexrelay",
			Subsystem: "relay",
			Name:      "decode_errors_total",
			Help:      "Frames that failed to decode, by error kind.",
		},
		[]string{"kind"},
	)
	relayDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hexrelay",
			Subsystem: "relay",
			Name:      "dropped_total",
			Help:      "Envelopes dropped because a subscriber buffer was full.",
		},
	)
	relaySubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hexrelay",
			Subsystem: "relay",
			Name:      "subscribers",
			Help:      "Currently connected relay subscribers.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			relayMessages,
			relayFrames,
			relayDecodeErrors,
			relayDropped,
			relaySubscribers,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordRelayMessage counts one processed bus message and its decoded frames.
func RecordRelayMessage(frames, failures int) {
	RegisterMetrics()
	result := "ok"
	switch {
	case failures > 0 && frames == 0:
		result = "failed"
	case failures > 0:
		result = "partial"
	case frames == 0:
		result = "empty"
	}
	relayMessages.WithLabelValues(result).Inc()
	relayFrames.Add(float64(frames))
}

func RecordDecodeError(kind string) {
	RegisterMetrics()
	relayDecodeErrors.WithLabelValues(kind).Inc()
}

func RecordDropped() {
	RegisterMetrics()
	relayDropped.Inc()
}

func SetSubscribers(n int) {
	RegisterMetrics()
	relaySubscribers.Set(float64(n))
}
