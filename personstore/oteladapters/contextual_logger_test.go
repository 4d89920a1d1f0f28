package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/elfotec/personstore-go/personstore/oteladapters"
)

type recordingLogger struct {
	noop.Logger
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	l.records = append(l.records, record)
}

func recordAttributes(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}

func Test_SlogBridgeLoggerWithHandler_WritesThroughHandler(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	// act
	logger.InfoContext(context.Background(), "personstore operation: list_active completed", "person_count", 3)

	// assert
	var entry map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "personstore operation: list_active completed", entry["msg"])
	assert.InDelta(t, 3.0, entry["person_count"], 0.0001)
}

func Test_SlogBridgeLogger_AllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	logger.DebugContext(ctx, "debug ctx")
	logger.WarnContext(ctx, "warn ctx")
	logger.ErrorContext(ctx, "error ctx")

	// assert
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 7)
}

func Test_SlogBridgeLoggerWithProvider_DoesNotPanic(t *testing.T) {
	// setup
	logger := oteladapters.NewSlogBridgeLoggerWithProvider("personstore-test", noop.NewLoggerProvider())

	// act + assert
	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "message", "key", "value")
		logger.Error("message")
	})
}

func Test_OTelLogger_EmitsSeverityBodyAndTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.WarnContext(
		context.Background(),
		"rejected invalid argument",
		"page_size", 0,
		"total_active", int64(12),
		"duration_ms", 1.5,
		"found", false,
		"error", "invalid argument",
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityWarn, record.Severity())
	assert.Equal(t, "rejected invalid argument", record.Body().AsString())

	attrs := recordAttributes(record)
	assert.Equal(t, int64(0), attrs["page_size"].AsInt64())
	assert.Equal(t, int64(12), attrs["total_active"].AsInt64())
	assert.InDelta(t, 1.5, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.False(t, attrs["found"].AsBool())
	assert.Equal(t, "invalid argument", attrs["error"].AsString())
}

func Test_OTelLogger_SkipsMalformedArguments(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.ErrorContext(context.Background(), "database query execution failed", 42, "ignored", "dangling")

	// assert
	require.Len(t, recorder.records, 1)
	assert.Equal(t, log.SeverityError, recorder.records[0].Severity())
	assert.Equal(t, 0, recorder.records[0].AttributesLen())
}

func Test_OTelLogger_RendersOtherValuesAsStrings(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.DebugContext(context.Background(), "executed sql for: list_active", "query", []string{"a", "b"})
	logger.InfoContext(context.Background(), "done")

	// assert
	require.Len(t, recorder.records, 2)
	assert.Equal(t, "[a b]", recordAttributes(recorder.records[0])["query"].AsString())
	assert.Equal(t, log.SeverityInfo, recorder.records[1].Severity())
}
