package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics counts HTTP requests and measures latency per handler.
type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// NewServerMetrics registers on the given registerer so tests can use a
// private registry instead of the process-global one.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qua",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qua",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// PayoutMetrics tracks merchant payout dispatches and exhausted retry
// schedules (the manual-intervention signal).
type PayoutMetrics struct {
	Attempts         *prometheus.CounterVec
	RetriesExhausted prometheus.Counter
}

func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qua",
		Subsystem: "payout",
		Name:      "attempts_total",
		Help:      "Payout dispatch attempts by outcome.",
	}, []string{"outcome"})
	exhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qua",
		Subsystem: "payout",
		Name:      "retries_exhausted_total",
		Help:      "Payouts that failed every scheduled retry.",
	})

	reg.MustRegister(attempts, exhausted)
	return &PayoutMetrics{Attempts: attempts, RetriesExhausted: exhausted}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
