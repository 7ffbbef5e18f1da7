package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Error reasons recorded by medcost_prediction_errors_total.
const (
	ReasonBind            = "bind"
	ReasonOutOfRange      = "out_of_range"
	ReasonUnknownCategory = "unknown_category"
	ReasonCanceled        = "canceled"
	ReasonInternal        = "internal"
)

// Metrics holds the prediction collectors and the registry serving them.
type Metrics struct {
	Registry    *prometheus.Registry
	Predictions *prometheus.CounterVec
	Errors      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// NewMetrics registers the medcost collectors plus the Go and process
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcost",
			Name:      "predictions_total",
			Help:      "Predictions served, by model segment.",
		}, []string{"segment"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcost",
			Name:      "prediction_errors_total",
			Help:      "Rejected or failed prediction requests, by reason.",
		}, []string{"reason"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "medcost",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent in the router per prediction.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"segment"}),
	}
	m.Registry.MustRegister(
		m.Predictions,
		m.Errors,
		m.Duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
