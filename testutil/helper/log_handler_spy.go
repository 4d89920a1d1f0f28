package helper

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler that keeps every record it handles.
// With logToStdout it also writes them as JSON, which helps when debugging a failing test.
type LogHandlerSpy struct {
	mu      sync.Mutex
	records []slog.Record
	echo    slog.Handler
}

func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	spy := &LogHandlerSpy{}
	if logToStdout {
		spy.echo = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	return spy
}

func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	s.records = append(s.records, record.Clone())
	s.mu.Unlock()

	if s.echo != nil {
		return s.echo.Handle(ctx, record)
	}

	return nil
}

func (s *LogHandlerSpy) Enabled(context.Context, slog.Level) bool { return true }

func (s *LogHandlerSpy) WithAttrs([]slog.Attr) slog.Handler { return s }

func (s *LogHandlerSpy) WithGroup(string) slog.Handler { return s }

func (s *LogHandlerSpy) snapshot() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]slog.Record(nil), s.records...)
}

func (s *LogHandlerSpy) GetRecordCount() int {
	return len(s.snapshot())
}

func (s *LogHandlerSpy) CountRecordsWithLevel(level slog.Level) int {
	count := 0
	for _, record := range s.snapshot() {
		if record.Level == level {
			count++
		}
	}

	return count
}

// LogMatcher narrows the captured records of one level and message.
type LogMatcher struct {
	matches[slog.Record]
}

func (s *LogHandlerSpy) HasDebugLogWithMessage(message string) *LogMatcher {
	return s.withMessage(slog.LevelDebug, message)
}

func (s *LogHandlerSpy) HasInfoLogWithMessage(message string) *LogMatcher {
	return s.withMessage(slog.LevelInfo, message)
}

func (s *LogHandlerSpy) HasWarnLogWithMessage(message string) *LogMatcher {
	return s.withMessage(slog.LevelWarn, message)
}

func (s *LogHandlerSpy) HasErrorLogWithMessage(message string) *LogMatcher {
	return s.withMessage(slog.LevelError, message)
}

func (s *LogHandlerSpy) withMessage(level slog.Level, message string) *LogMatcher {
	matcher := &LogMatcher{matches[slog.Record]{left: s.snapshot()}}
	matcher.narrow(func(record slog.Record) bool {
		return record.Level == level && record.Message == message
	})

	return matcher
}

// attr keeps the records carrying at least one attribute accepted by match.
func (m *LogMatcher) attr(match func(attr slog.Attr) bool) *LogMatcher {
	m.narrow(func(record slog.Record) bool {
		found := false
		record.Attrs(func(attr slog.Attr) bool {
			found = match(attr)
			return !found
		})

		return found
	})

	return m
}

// WithDurationMS requires a non-negative numeric duration_ms attribute.
func (m *LogMatcher) WithDurationMS() *LogMatcher {
	return m.attr(func(attr slog.Attr) bool {
		if attr.Key != "duration_ms" {
			return false
		}

		switch attr.Value.Kind() {
		case slog.KindInt64:
			return attr.Value.Int64() >= 0
		case slog.KindFloat64:
			return attr.Value.Float64() >= 0
		default:
			return false
		}
	})
}

func (m *LogMatcher) WithAttribute(key string) *LogMatcher {
	return m.attr(func(attr slog.Attr) bool {
		return attr.Key == key
	})
}

// WithAttributeValue compares against the attribute's slog string form.
func (m *LogMatcher) WithAttributeValue(key string, value string) *LogMatcher {
	return m.attr(func(attr slog.Attr) bool {
		return attr.Key == key && attr.Value.String() == value
	})
}

var _ slog.Handler = (*LogHandlerSpy)(nil)
