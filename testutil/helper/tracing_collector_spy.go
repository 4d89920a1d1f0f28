package helper

import (
	"context"
	"maps"
	"sync"

	"github.com/elfotec/personstore-go/personstore"
)

// SpanRecord is one span captured by a TracingCollectorSpy. It doubles as the span's SpanContext.
type SpanRecord struct {
	Name            string
	StartAttributes map[string]string
	EndAttributes   map[string]string
	Status          string
	Finished        bool

	spy *TracingCollectorSpy
}

func (r *SpanRecord) SetStatus(status string) {
	r.spy.mu.Lock()
	defer r.spy.mu.Unlock()

	r.Status = status
}

func (r *SpanRecord) AddAttribute(key, value string) {
	r.spy.mu.Lock()
	defer r.spy.mu.Unlock()

	r.EndAttributes[key] = value
}

// TracingCollectorSpy captures spans in start order. With recordCalls false no span is started.
type TracingCollectorSpy struct {
	mu          sync.Mutex
	spans       []*SpanRecord
	recordCalls bool
}

func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, personstore.SpanContext) {
	if !s.recordCalls {
		return ctx, nil
	}

	span := &SpanRecord{
		Name:            name,
		StartAttributes: maps.Clone(attrs),
		EndAttributes:   make(map[string]string),
		spy:             s,
	}

	s.mu.Lock()
	s.spans = append(s.spans, span)
	s.mu.Unlock()

	return ctx, span
}

// FinishSpan ignores span contexts it did not start.
func (s *TracingCollectorSpy) FinishSpan(spanCtx personstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpanRecord)
	if !ok || span.spy != s {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(span.EndAttributes, attrs)
	span.Status = status
	span.Finished = true
}

// GetSpanRecords returns snapshots of the captured spans.
func (s *TracingCollectorSpy) GetSpanRecords() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpanRecord, 0, len(s.spans))
	for _, span := range s.spans {
		snapshot := *span
		snapshot.StartAttributes = maps.Clone(span.StartAttributes)
		snapshot.EndAttributes = maps.Clone(span.EndAttributes)
		records = append(records, snapshot)
	}

	return records
}

func (s *TracingCollectorSpy) CountSpanRecordsForName(name string) int {
	return len(s.HasSpanRecordForName(name).left)
}

// SpanMatcher narrows the captured spans of one name.
type SpanMatcher struct {
	matches[SpanRecord]
}

func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanMatcher {
	matcher := &SpanMatcher{matches[SpanRecord]{left: s.GetSpanRecords()}}
	matcher.narrow(func(span SpanRecord) bool {
		return span.Name == name
	})

	return matcher
}

// WithStatus only keeps finished spans.
func (m *SpanMatcher) WithStatus(status string) *SpanMatcher {
	m.narrow(func(span SpanRecord) bool {
		return span.Finished && span.Status == status
	})

	return m
}

func (m *SpanMatcher) WithStartAttribute(key, value string) *SpanMatcher {
	m.narrow(func(span SpanRecord) bool {
		attrValue, exists := span.StartAttributes[key]
		return exists && attrValue == value
	})

	return m
}

func (m *SpanMatcher) WithEndAttribute(key, value string) *SpanMatcher {
	m.narrow(func(span SpanRecord) bool {
		attrValue, exists := span.EndAttributes[key]
		return exists && attrValue == value
	})

	return m
}

func (m *SpanMatcher) WithEndAttributeKey(key string) *SpanMatcher {
	m.narrow(func(span SpanRecord) bool {
		_, exists := span.EndAttributes[key]
		return exists
	})

	return m
}

var _ personstore.TracingCollector = (*TracingCollectorSpy)(nil)
var _ personstore.SpanContext = (*SpanRecord)(nil)
