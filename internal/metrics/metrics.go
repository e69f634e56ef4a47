package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal    *prometheus.CounterVec
	ballotsRecordedTotal *prometheus.CounterVec
	registerOnce         sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polls",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the polls API.",
		}, []string{"method", "path", "status"})
		ballotsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polls",
			Name:      "ballots_recorded_total",
			Help:      "Ballots recorded, split by first votes and revotes.",
		}, []string{"kind"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncBallot counts a recorded ballot.
func IncBallot(revote bool) {
	if ballotsRecordedTotal == nil {
		return
	}
	kind := "new"
	if revote {
		kind = "revote"
	}
	ballotsRecordedTotal.WithLabelValues(kind).Inc()
}
