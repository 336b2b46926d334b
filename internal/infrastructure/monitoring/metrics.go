// Package monitoring records resolution activity as Prometheus metrics.
package monitoring

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

const namespace = "pri"

// Metrics implements ports.MetricsRecorder with Prometheus collectors.
type Metrics struct {
	fetchDuration      *prometheus.HistogramVec
	resolutionDuration *prometheus.HistogramVec
	warnings           *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
}

var _ ports.MetricsRecorder = (*Metrics)(nil)

// MustNewMetrics registers the collectors with reg. Collectors that are
// already registered are reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "source",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of configuration source fetches.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "outcome"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "resolution",
				Name:      "duration_seconds",
				Help:      "Duration of complete configuration resolutions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		warnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "resolution",
				Name:      "warnings_total",
				Help:      "Warnings attached to resolutions, by code.",
			},
			[]string{"code"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Resolution cache lookups, by result.",
			},
			[]string{"result"},
		),
	}

	m.fetchDuration = register(reg, m.fetchDuration)
	m.resolutionDuration = register(reg, m.resolutionDuration)
	m.warnings = register(reg, m.warnings)
	m.cacheLookups = register(reg, m.cacheLookups)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) ObserveFetch(kind configdomain.SourceKind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.WithLabelValues(string(kind), outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveResolution(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolutionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveWarnings(ws []configdomain.Warning) {
	if m == nil {
		return
	}
	for _, w := range ws {
		m.warnings.WithLabelValues(string(w.Code)).Inc()
	}
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
