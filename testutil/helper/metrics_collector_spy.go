package helper

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elfotec/personstore-go/personstore"
)

type metricKind int

const (
	kindDuration metricKind = iota
	kindCounter
	kindValue
)

// MetricObservation is one call captured by a MetricsCollectorSpy.
// Durations are kept in seconds, counter increments as 1.
type MetricObservation struct {
	kind   metricKind
	Metric string
	Value  float64
	Labels map[string]string
}

// MetricsCollectorSpy captures metric calls in the order they were made.
// With recordCalls false every call is dropped.
type MetricsCollectorSpy struct {
	mu           sync.Mutex
	observations []MetricObservation
	recordCalls  bool
}

func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.observe(kindDuration, metric, duration.Seconds(), labels)
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.observe(kindCounter, metric, 1, labels)
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.observe(kindValue, metric, value, labels)
}

func (s *MetricsCollectorSpy) observe(kind metricKind, metric string, value float64, labels map[string]string) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.observations = append(s.observations, MetricObservation{
		kind:   kind,
		Metric: metric,
		Value:  value,
		Labels: maps.Clone(labels),
	})
}

func (s *MetricsCollectorSpy) ofKind(kind metricKind) []MetricObservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []MetricObservation
	for _, observation := range s.observations {
		if observation.kind == kind {
			found = append(found, observation)
		}
	}

	return found
}

func (s *MetricsCollectorSpy) GetDurationRecords() []MetricObservation {
	return s.ofKind(kindDuration)
}

func (s *MetricsCollectorSpy) GetValueRecords() []MetricObservation {
	return s.ofKind(kindValue)
}

func (s *MetricsCollectorSpy) GetCounterRecordCount() int {
	return len(s.ofKind(kindCounter))
}

// MetricMatcher narrows the captured observations of one kind and metric name.
type MetricMatcher struct {
	matches[MetricObservation]
}

func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricMatcher {
	return s.matching(kindDuration, metric)
}

func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricMatcher {
	return s.matching(kindCounter, metric)
}

func (s *MetricsCollectorSpy) HasValueRecordForMetric(metric string) *MetricMatcher {
	return s.matching(kindValue, metric)
}

func (s *MetricsCollectorSpy) matching(kind metricKind, metric string) *MetricMatcher {
	matcher := &MetricMatcher{matches[MetricObservation]{left: s.ofKind(kind)}}
	matcher.narrow(func(observation MetricObservation) bool {
		return observation.Metric == metric
	})

	return matcher
}

func (m *MetricMatcher) label(key, value string) *MetricMatcher {
	m.narrow(func(observation MetricObservation) bool {
		labelValue, exists := observation.Labels[key]
		return exists && labelValue == value
	})

	return m
}

func (m *MetricMatcher) WithOperation(operation string) *MetricMatcher {
	return m.label("operation", operation)
}

func (m *MetricMatcher) WithStatus(status string) *MetricMatcher {
	return m.label("status", status)
}

func (m *MetricMatcher) WithErrorType(errorType string) *MetricMatcher {
	return m.label("error_type", errorType)
}

func (m *MetricMatcher) WithValue(value float64) *MetricMatcher {
	m.narrow(func(observation MetricObservation) bool {
		return observation.Value == value
	})

	return m
}

// ContextualMetricsCollectorSpy records like MetricsCollectorSpy and counts the calls
// that arrived through the context-aware methods.
type ContextualMetricsCollectorSpy struct {
	*MetricsCollectorSpy
	contextCalls atomic.Int32
}

func NewContextualMetricsCollectorSpy() *ContextualMetricsCollectorSpy {
	return &ContextualMetricsCollectorSpy{MetricsCollectorSpy: NewMetricsCollectorSpy(true)}
}

func (s *ContextualMetricsCollectorSpy) RecordDurationContext(
	_ context.Context,
	metric string,
	duration time.Duration,
	labels map[string]string,
) {
	s.contextCalls.Add(1)
	s.RecordDuration(metric, duration, labels)
}

func (s *ContextualMetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.contextCalls.Add(1)
	s.IncrementCounter(metric, labels)
}

func (s *ContextualMetricsCollectorSpy) RecordValueContext(
	_ context.Context,
	metric string,
	value float64,
	labels map[string]string,
) {
	s.contextCalls.Add(1)
	s.RecordValue(metric, value, labels)
}

func (s *ContextualMetricsCollectorSpy) GetContextCallCount() int {
	return int(s.contextCalls.Load())
}

var _ personstore.MetricsCollector = (*MetricsCollectorSpy)(nil)
var _ personstore.ContextualMetricsCollector = (*ContextualMetricsCollectorSpy)(nil)
