// Package metrics exposes Prometheus instruments for store activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the instruments recorded by a managed.Context.
type Metrics struct {
	Fetches      *prometheus.CounterVec
	Saves        *prometheus.CounterVec
	SaveDuration prometheus.Histogram
}

// New creates the instruments and registers them with reg.
// A nil reg creates unregistered instruments, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Subsystem: "store",
			Name:      "fetch_total",
			Help:      "Fetches issued against the record store.",
		}, []string{"entity", "result"}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Subsystem: "store",
			Name:      "save_total",
			Help:      "Commits issued against the record store.",
		}, []string{"result"}),
		SaveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roster",
			Subsystem: "store",
			Name:      "save_duration_seconds",
			Help:      "Time spent applying a commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Fetches, m.Saves, m.SaveDuration)
	}
	return m
}

// ObserveFetch records one fetch of entity.
func (m *Metrics) ObserveFetch(entity string, err error) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(entity, result(err)).Inc()
}

// ObserveSave records one commit and how long it took.
func (m *Metrics) ObserveSave(seconds float64, err error) {
	if m == nil {
		return
	}
	m.Saves.WithLabelValues(result(err)).Inc()
	m.SaveDuration.Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
