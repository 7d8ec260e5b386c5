package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LookupMetrics collects observations from the resolver. The interface is
// string-typed so the resolver package stays free of Prometheus types and
// tests can substitute a recording implementation.
type LookupMetrics interface {
	// ObserveLookup records one completed public lookup operation.
	// outcome is "hit", "miss", or "error".
	ObserveLookup(operation, backend string, duration time.Duration, outcome string)

	// ObserveBufferRetry counts one scratch-buffer doubling caused by an
	// overflow report from a backend.
	ObserveBufferRetry(operation, backend string)

	// ObserveEnumeration records a disposed enumeration session and the
	// number of records it produced. database is "passwd" or "group".
	ObserveEnumeration(database, backend string, records int)
}

// NewLookupMetrics creates a Prometheus-backed LookupMetrics, or a no-op
// implementation when InitRegistry has not been called.
func NewLookupMetrics() LookupMetrics {
	if !IsEnabled() {
		return &noopLookupMetrics{}
	}

	reg := GetRegistry()

	return &lookupMetrics{
		lookupsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nssdirect_lookups_total",
				Help: "Total keyed lookups by operation, requested backend, and outcome",
			},
			[]string{"operation", "backend", "outcome"},
		),
		lookupDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "nssdirect_lookup_duration_seconds",
				Help: "Duration of keyed lookups in seconds",
				Buckets: []float64{
					0.00001, // 10µs
					0.0001,  // 100µs
					0.001,   // 1ms
					0.01,    // 10ms
					0.1,     // 100ms
					1.0,     // 1s
					10.0,    // 10s
				},
			},
			[]string{"operation"},
		),
		bufferRetriesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nssdirect_buffer_retries_total",
				Help: "Scratch-buffer doublings caused by backend overflow reports",
			},
			[]string{"operation", "backend"},
		),
		enumSessionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nssdirect_enumeration_sessions_total",
				Help: "Disposed enumeration sessions by database and backend",
			},
			[]string{"database", "backend"},
		),
		enumRecordsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nssdirect_enumeration_records_total",
				Help: "Records produced by enumeration sessions",
			},
			[]string{"database", "backend"},
		),
	}
}

type lookupMetrics struct {
	lookupsTotal       *prometheus.CounterVec
	lookupDuration     *prometheus.HistogramVec
	bufferRetriesTotal *prometheus.CounterVec
	enumSessionsTotal  *prometheus.CounterVec
	enumRecordsTotal   *prometheus.CounterVec
}

func (m *lookupMetrics) ObserveLookup(operation, backend string, duration time.Duration, outcome string) {
	m.lookupsTotal.WithLabelValues(operation, backend, outcome).Inc()
	m.lookupDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *lookupMetrics) ObserveBufferRetry(operation, backend string) {
	m.bufferRetriesTotal.WithLabelValues(operation, backend).Inc()
}

func (m *lookupMetrics) ObserveEnumeration(database, backend string, records int) {
	m.enumSessionsTotal.WithLabelValues(database, backend).Inc()
	m.enumRecordsTotal.WithLabelValues(database, backend).Add(float64(records))
}

// noopLookupMetrics is used when metrics are disabled.
type noopLookupMetrics struct{}

func (noopLookupMetrics) ObserveLookup(string, string, time.Duration, string) {}
func (noopLookupMetrics) ObserveBufferRetry(string, string)                   {}
func (noopLookupMetrics) ObserveEnumeration(string, string, int)              {}
