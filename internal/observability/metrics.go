package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xelactl",
			Subsystem: "receiver",
			Name:      "frames_total",
			Help:      "Inbound hub messages by decode outcome.",
		},
		[]string{"outcome"},
	)
	receiverConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "xelactl",
			Subsystem: "receiver",
			Name:      "connected",
			Help:      "1 while the hub connection is open.",
		},
	)
	sensorsKnown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "xelactl",
			Subsystem: "table",
			Name:      "sensors",
			Help:      "Distinct sensor ids seen since start.",
		},
	)
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xelactl",
			Subsystem: "publish",
			Name:      "messages_total",
			Help:      "Per-sensor grid publications to the bus.",
		},
		[]string{"success"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xelactl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xelactl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, receiverConnected, sensorsKnown, publishTotal, httpRequests, httpDuration)
	})
}

func RecordFrame(outcome string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(outcome).Inc()
}

func SetReceiverConnected(connected bool) {
	RegisterMetrics()
	if connected {
		receiverConnected.Set(1)
		return
	}
	receiverConnected.Set(0)
}

func SetSensors(n int) {
	RegisterMetrics()
	sensorsKnown.Set(float64(n))
}

func RecordPublish(success bool) {
	RegisterMetrics()
	publishTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
