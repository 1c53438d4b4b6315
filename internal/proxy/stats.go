package proxy

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/bool64/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PromTracker exposes bool64/stats metrics with prometheus.
//
// Collectors are registered on first use of a metric name, label names of a metric
// must not change between calls.
type PromTracker struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
}

var _ stats.Tracker = &PromTracker{}

// NewPromTracker creates tracker with own registry.
func NewPromTracker() *PromTracker {
	return &PromTracker{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
	}
}

// Add increments counter.
func (t *PromTracker) Add(_ context.Context, name string, increment float64, labelsAndValues ...string) {
	labels := toLabels(labelsAndValues)

	t.mu.Lock()
	c, ok := t.counters[name]

	if !ok {
		c = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricName(name),
			Help: name,
		}, labelNames(labels))
		t.registry.MustRegister(c)
		t.counters[name] = c
	}
	t.mu.Unlock()

	c.With(labels).Add(increment)
}

// Set updates gauge.
func (t *PromTracker) Set(_ context.Context, name string, absolute float64, labelsAndValues ...string) {
	labels := toLabels(labelsAndValues)

	t.mu.Lock()
	g, ok := t.gauges[name]

	if !ok {
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricName(name),
			Help: name,
		}, labelNames(labels))
		t.registry.MustRegister(g)
		t.gauges[name] = g
	}
	t.mu.Unlock()

	g.With(labels).Set(absolute)
}

// Handler serves metrics in prometheus exposition format.
func (t *PromTracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Gatherer returns underlying registry.
func (t *PromTracker) Gatherer() prometheus.Gatherer {
	return t.registry
}

func toLabels(labelsAndValues []string) prometheus.Labels {
	labels := make(prometheus.Labels, len(labelsAndValues)/2)

	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		labels[metricName(labelsAndValues[i])] = labelsAndValues[i+1]
	}

	return labels
}

func labelNames(labels prometheus.Labels) []string {
	names := make([]string, 0, len(labels))

	for n := range labels {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

var nameReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_", "/", "_")

func metricName(name string) string {
	return nameReplacer.Replace(name)
}
