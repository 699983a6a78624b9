// Package telemetry wires the ambient pkg/telemetry.Meter interface to
// Prometheus, giving the serving runtime (cache hit/miss, bulkhead
// occupancy, rate-limit rejections, query latency) a real metrics sink
// while pkg/query, pkg/diff, pkg/ingest and the other core packages stay
// metrics-agnostic, per the spec's non-goal that observability sinks are
// external collaborators to the core.
package telemetry

import (
	"context"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bijux/atlas/pkg/telemetry"
)

// PrometheusMeter implements telemetry.Meter by lazily registering a
// CounterVec/GaugeVec/HistogramVec per distinct metric name the first time
// it is observed, keyed by the label names seen on that first call — every
// subsequent call for the same name must use the same label key set.
type PrometheusMeter struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

func NewPrometheusMeter(registerer prometheus.Registerer) *PrometheusMeter {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusMeter{
		registerer: registerer,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func labelNames(labels telemetry.Labels) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, labels telemetry.Labels) prometheus.Labels {
	out := make(prometheus.Labels, len(names))
	for _, n := range names {
		out[n] = labels[n]
	}
	return out
}

func (m *PrometheusMeter) IncCounter(_ context.Context, name string, delta int64, labels telemetry.Labels) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := labelNames(labels)
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: "atlas " + name}, names)
		m.registerer.MustRegister(vec)
		m.counters[name] = vec
	}
	vec.With(labelValues(names, labels)).Add(float64(delta))
	return nil
}

func (m *PrometheusMeter) SetGauge(_ context.Context, name string, value float64, labels telemetry.Labels) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := labelNames(labels)
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: "atlas " + name}, names)
		m.registerer.MustRegister(vec)
		m.gauges[name] = vec
	}
	vec.With(labelValues(names, labels)).Set(value)
	return nil
}

func (m *PrometheusMeter) ObserveHistogram(_ context.Context, name string, value float64, buckets []float64, labels telemetry.Labels) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := labelNames(labels)
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: name, Help: "atlas " + name, Buckets: buckets}, names)
		m.registerer.MustRegister(vec)
		m.histograms[name] = vec
	}
	vec.With(labelValues(names, labels)).Observe(value)
	return nil
}

var _ telemetry.Meter = (*PrometheusMeter)(nil)
