package sqlengine

import (
	"github.com/elfotec/personstore-go/personstore"
)

// Option defines a functional option for configuring PersonStore.
type Option func(*PersonStore) error

// WithTableName sets the table name for the PersonStore.
func WithTableName(tableName string) Option {
	return func(ps *PersonStore) error {
		if tableName == "" {
			return personstore.ErrEmptyTableName
		}

		ps.personTableName = tableName

		return nil
	}
}

// WithDialect sets the goqu SQL dialect used to build queries.
// Supported dialects are "postgres" (default), "sqlite3" and "mysql".
func WithDialect(dialect string) Option {
	return func(ps *PersonStore) error {
		if !isSupportedDialect(dialect) {
			return personstore.ErrUnsupportedDialect
		}

		ps.dialectName = dialect

		return nil
	}
}

// WithLogger sets the logger for the PersonStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Result counts and durations (production-safe)
// Warn level: Rejected arguments and cleanup failures
// Error level: Failures that cause operation failures.
func WithLogger(logger personstore.Logger) Option {
	return func(ps *PersonStore) error {
		ps.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the PersonStore.
// It receives the same messages as the Logger, together with the operation's context
// so trace and span ids can be correlated when tracing is enabled.
func WithContextualLogger(logger personstore.ContextualLogger) Option {
	return func(ps *PersonStore) error {
		ps.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the PersonStore.
// It receives query durations, returned person counts and error counters.
func WithMetrics(collector personstore.MetricsCollector) Option {
	return func(ps *PersonStore) error {
		ps.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the PersonStore.
// One span is created per ListActive or GetActiveByID call.
func WithTracing(collector personstore.TracingCollector) Option {
	return func(ps *PersonStore) error {
		ps.tracingCollector = collector
		return nil
	}
}
