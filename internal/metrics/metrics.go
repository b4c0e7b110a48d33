package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigild",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Count of confidential engine operations.",
	}, []string{"operation", "status"})
	engineOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vigild",
		Subsystem: "engine",
		Name:      "operation_duration_seconds",
		Help:      "Duration of confidential engine operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vigild",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of served HTTP requests.",
	}, []string{"route", "method", "status"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vigild",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of served HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// ObserveRequest records a served HTTP request outcome and duration.
func ObserveRequest(route, method string, statusCode int, started time.Time) {
	requestsTotal.WithLabelValues(
		route, method, strconv.Itoa(statusCode),
	).Inc()
	requestDuration.WithLabelValues(route, method).Observe(
		time.Since(started).Seconds(),
	)
}

func observeEngineOp(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	engineOperationsTotal.WithLabelValues(operation, status).Inc()
	engineOperationDuration.WithLabelValues(operation, status).Observe(
		time.Since(started).Seconds(),
	)
}
