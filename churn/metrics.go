package churn

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts predictions on a private registry. When a textfile path is
// set, Flush writes the registry in the node-exporter textfile format.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
	textfile    string
}

// NewMetrics registers the churn collectors.
func NewMetrics(textfile string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churn_predictions_total",
			Help: "Successful churn predictions by predicted label.",
		}, []string{"label"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "churn_prediction_failures_total",
			Help: "Prediction requests that did not produce a result, by reason.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "churn_prediction_duration_seconds",
			Help:    "Time spent preparing and scoring one record.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		textfile: textfile,
	}
	m.registry.MustRegister(m.predictions, m.failures, m.duration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observe(p Prediction) {
	m.predictions.WithLabelValues(strconv.Itoa(p.Label)).Inc()
	m.duration.Observe(p.Elapsed.Seconds())
}

func (m *Metrics) fail(reason string) {
	m.failures.WithLabelValues(reason).Inc()
}

// Flush writes the textfile when one is configured.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.registry)
}
