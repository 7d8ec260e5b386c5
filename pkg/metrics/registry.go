// Package metrics provides optional Prometheus metrics for nssdirect.
//
// Metrics are disabled unless InitRegistry is called; without it every
// constructor returns a no-op implementation with zero overhead, so the
// resolver can run with or without collection enabled.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry. Safe to call
// more than once; later calls are ignored. Must run before any metrics
// constructor for collection to take effect.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry != nil
}

// Handler returns an HTTP handler serving the global registry in the
// Prometheus exposition format, or nil when metrics are disabled.
func Handler() http.Handler {
	if registry == nil {
		return nil
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
