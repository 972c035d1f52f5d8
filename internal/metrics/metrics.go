package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	pollsCreatedTotal   *prometheus.CounterVec
	upstreamCallsTotal  *prometheus.CounterVec
	registerOnce        sync.Once
)

// Register initializes the gateway metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dood",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the gateway.",
		}, []string{"method", "path", "status"})

		httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dood",
			Name:      "http_request_duration_seconds",
			Help:      "Gateway request latency, upstream calls included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"})

		pollsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dood",
			Name:      "polls_created_total",
			Help:      "Polls created on doodle.com through the gateway.",
		}, []string{"type"})

		upstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dood",
			Name:      "upstream_calls_total",
			Help:      "Calls made to the doodle.com API, by operation and outcome.",
		}, []string{"operation", "outcome"})
	})
}

func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func IncPollCreated(pollType string) {
	if pollsCreatedTotal == nil {
		return
	}
	pollsCreatedTotal.WithLabelValues(pollType).Inc()
}

// ObserveUpstream counts a doodle.com call. A nil err counts as "ok".
func ObserveUpstream(operation string, err error) {
	if upstreamCallsTotal == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamCallsTotal.WithLabelValues(operation, outcome).Inc()
}

func UpstreamCalls() *prometheus.CounterVec {
	return upstreamCallsTotal
}
