// Package metrics exposes the strategies' named gauges as Prometheus
// metrics and keeps a snapshot for the status API.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Manager struct {
	registry *prometheus.Registry
	gauges   *prometheus.GaugeVec

	mu     sync.RWMutex
	values map[string]float64
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	gauges := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "noise_trader",
		Name:      "gauge",
		Help:      "Named numeric gauges emitted by the strategies.",
	}, []string{"name", "kind"})
	registry.MustRegister(gauges)

	return &Manager{
		registry: registry,
		gauges:   gauges,
		values:   make(map[string]float64),
	}
}

// Gauge records a named value. The first tag, when present, becomes the
// metric's kind label ("indicator" for the strategy band/momentum gauges).
func (m *Manager) Gauge(name string, value float64, tags ...string) {
	kind := ""
	if len(tags) > 0 {
		kind = tags[0]
	}
	m.gauges.WithLabelValues(name, kind).Set(value)

	m.mu.Lock()
	m.values[name] = value
	m.mu.Unlock()
}

// Snapshot returns a copy of the latest gauge values.
func (m *Manager) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// Handler serves the Prometheus exposition endpoint.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
