package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors shared by the API and workers.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Validations     *prometheus.CounterVec
	HoldsAcquired   prometheus.Counter
	HoldConflicts   prometheus.Counter
	TentativeSwept  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		Validations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_validations_total",
			Help: "Appointment validations by outcome.",
		}, []string{"valid"}),
		HoldsAcquired: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_holds_acquired_total",
			Help: "Reservation holds successfully acquired.",
		}),
		HoldConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_hold_conflicts_total",
			Help: "Reservation hold attempts rejected due to contention.",
		}),
		TentativeSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_tentative_swept_total",
			Help: "Tentative appointments cancelled by the sweep worker.",
		}),
	}
}
