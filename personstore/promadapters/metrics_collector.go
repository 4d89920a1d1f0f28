// Package promadapters provides a Prometheus implementation of personstore.MetricsCollector.
package promadapters

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elfotec/personstore-go/personstore"
)

// MetricsCollector implements personstore.MetricsCollector on a prometheus.Registerer:
//   - RecordDuration -> HistogramVec observed in seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// A vector is registered on first use of a metric name; its label names are the label keys of that first call.
// Later calls with a different label key set are dropped.
type MetricsCollector struct {
	registerer prometheus.Registerer
	buckets    []float64
	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithBuckets sets the histogram buckets, in seconds.
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) {
		m.buckets = buckets
	}
}

// NewMetricsCollector creates a collector registering its vectors on registerer.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	m := &MetricsCollector{
		registerer: registerer,
		buckets:    prometheus.DefBuckets,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	histogram := m.getOrCreateHistogram(metric, labelNames(labels))
	if histogram == nil {
		return
	}

	if observer, err := histogram.GetMetricWith(labels); err == nil {
		observer.Observe(duration.Seconds())
	}
}

func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	counter := m.getOrCreateCounter(metric, labelNames(labels))
	if counter == nil {
		return
	}

	if c, err := counter.GetMetricWith(labels); err == nil {
		c.Inc()
	}
}

func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	gauge := m.getOrCreateGauge(metric, labelNames(labels))
	if gauge == nil {
		return
	}

	if g, err := gauge.GetMetricWith(labels); err == nil {
		g.Set(value)
	}
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (m *MetricsCollector) getOrCreateHistogram(name string, labels []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    "PersonStore query duration in seconds",
		Buckets: m.buckets,
	}, labels)

	registered, err := register(m.registerer, histogram)
	if err != nil {
		return nil
	}

	histogram, ok := registered.(*prometheus.HistogramVec)
	if !ok {
		return nil
	}

	m.histograms[name] = histogram

	return histogram
}

func (m *MetricsCollector) getOrCreateCounter(name string, labels []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: "PersonStore operation counter",
	}, labels)

	registered, err := register(m.registerer, counter)
	if err != nil {
		return nil
	}

	counter, ok := registered.(*prometheus.CounterVec)
	if !ok {
		return nil
	}

	m.counters[name] = counter

	return counter
}

func (m *MetricsCollector) getOrCreateGauge(name string, labels []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[name]; exists {
		return gauge
	}

	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: "PersonStore result size",
	}, labels)

	registered, err := register(m.registerer, gauge)
	if err != nil {
		return nil
	}

	gauge, ok := registered.(*prometheus.GaugeVec)
	if !ok {
		return nil
	}

	m.gauges[name] = gauge

	return gauge
}

// register returns the already registered collector when an identical one exists.
func register(registerer prometheus.Registerer, collector prometheus.Collector) (prometheus.Collector, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector, nil
	}

	return nil, err
}

var _ personstore.MetricsCollector = (*MetricsCollector)(nil)
