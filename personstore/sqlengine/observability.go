package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/elfotec/personstore-go/personstore"
)

const (
	operationListActive      = "list_active"
	operationGetActiveByID   = "get_active_by_id"
	spanNameListActive       = "personstore.list_active"
	spanNameGetActiveByID    = "personstore.get_active_by_id"
	spanAttrOperation        = "operation"
	spanAttrErrorType        = "error_type"
	spanAttrPersonCount      = "person_count"
	spanAttrTotalActive      = "total_active"
	spanAttrFound            = "found"
	spanAttrPageNumber       = "page_number"
	spanAttrPageSize         = "page_size"
	spanAttrPersonID         = "person_id"
	spanAttrDurationMS       = "duration_ms"
	spanAttrConsistency      = "consistency_level"
	metricQueryDuration      = "personstore_query_duration_seconds"
	metricPersonsReturned    = "personstore_persons_returned"
	metricErrors             = "personstore_errors_total"
	metricLabelStatus        = "status"
	statusSuccess            = "success"
	statusError              = "error"
	statusCancelled          = "cancelled"
	statusTimeout            = "timeout"
	errorTypeInvalidArgument = "invalid_argument"
	errorTypeBuildQuery      = "build_query"
	errorTypeDatabaseQuery   = "database_query"
	errorTypeRowScan         = "row_scan"
	errorTypeCancelled       = "cancelled"
	errorTypeTimeout         = "timeout"
)

// errorTypeOf classifies an operation error for metric labels and span attributes.
func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, personstore.ErrInvalidArgument):
		return errorTypeInvalidArgument
	case errors.Is(err, context.Canceled):
		return errorTypeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	case errors.Is(err, personstore.ErrBuildingQueryFailed):
		return errorTypeBuildQuery
	case errors.Is(err, personstore.ErrScanningDBRowFailed):
		return errorTypeRowScan
	default:
		return errorTypeDatabaseQuery
	}
}

// statusOf maps an error type to the span status.
func statusOf(errorType string) string {
	switch errorType {
	case errorTypeCancelled:
		return statusCancelled
	case errorTypeTimeout:
		return statusTimeout
	default:
		return statusError
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (ps *PersonStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	args := []any{logAttrDurationMS, ps.toMilliseconds(duration), logAttrQuery, sqlQuery}

	if ps.logger != nil {
		ps.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if ps.contextualLogger != nil {
		ps.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (ps *PersonStore) logOperation(ctx context.Context, action string, args ...any) {
	if ps.logger != nil {
		ps.logger.Info(logMsgOperation+action, args...)
	}

	if ps.contextualLogger != nil {
		ps.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logWarn logs recoverable problems and rejected arguments at warn level if a logger is configured.
func (ps *PersonStore) logWarn(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if ps.logger != nil {
		ps.logger.Warn(message, allArgs...)
	}

	if ps.contextualLogger != nil {
		ps.contextualLogger.WarnContext(ctx, message, allArgs...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (ps *PersonStore) logError(
	ctx context.Context,
	message string,
	err error,
	args ...any,
) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if ps.logger != nil {
		ps.logger.Error(message, allArgs...)
	}

	if ps.contextualLogger != nil {
		ps.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (ps *PersonStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationMetrics records a duration using the context-aware method if the collector supports it.
func (ps *PersonStore) recordDurationMetrics(ctx context.Context, duration time.Duration, labels map[string]string) {
	if ps.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := ps.metricsCollector.(personstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	ps.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
}

// recordValueMetrics records the number of returned persons using the context-aware method if available.
func (ps *PersonStore) recordValueMetrics(ctx context.Context, value float64, labels map[string]string) {
	if ps.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := ps.metricsCollector.(personstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricPersonsReturned, value, labels)
		return
	}

	ps.metricsCollector.RecordValue(metricPersonsReturned, value, labels)
}

// recordErrorMetrics increments the error counter using the context-aware method if available.
func (ps *PersonStore) recordErrorMetrics(ctx context.Context, labels map[string]string) {
	if ps.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := ps.metricsCollector.(personstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricErrors, labels)
		return
	}

	ps.metricsCollector.IncrementCounter(metricErrors, labels)
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (ps *PersonStore) startTraceSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, personstore.SpanContext) {
	if ps.tracingCollector != nil {
		return ps.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// === Operation Observer Pattern ===
// One observer per public call bundles span lifecycle, metrics and timing.

type operationObserver struct {
	ps        *PersonStore
	ctx       context.Context
	span      personstore.SpanContext
	operation string
	start     time.Time
}

func (ps *PersonStore) startObservation(
	ctx context.Context,
	spanName string,
	operation string,
	attrs map[string]string,
) (*operationObserver, context.Context) {
	attrs[spanAttrOperation] = operation
	attrs[spanAttrConsistency] = personstore.GetConsistencyLevel(ctx).String()

	newCtx, span := ps.startTraceSpan(ctx, spanName, attrs)

	return &operationObserver{
		ps:        ps,
		ctx:       newCtx,
		span:      span,
		operation: operation,
		start:     time.Now(),
	}, newCtx
}

// startListActiveObservation creates a new observer for a ListActive call.
func (ps *PersonStore) startListActiveObservation(
	ctx context.Context,
	pageNumber int,
	pageSize int,
) (*operationObserver, context.Context) {
	return ps.startObservation(ctx, spanNameListActive, operationListActive, map[string]string{
		spanAttrPageNumber: strconv.Itoa(pageNumber),
		spanAttrPageSize:   strconv.Itoa(pageSize),
	})
}

// startGetActiveByIDObservation creates a new observer for a GetActiveByID call.
func (ps *PersonStore) startGetActiveByIDObservation(
	ctx context.Context,
	id personstore.PersonID,
) (*operationObserver, context.Context) {
	return ps.startObservation(ctx, spanNameGetActiveByID, operationGetActiveByID, map[string]string{
		spanAttrPersonID: strconv.FormatInt(id, 10),
	})
}

func (o *operationObserver) elapsed() time.Duration {
	return time.Since(o.start)
}

func (o *operationObserver) formatDuration(duration time.Duration) string {
	return fmt.Sprintf("%.2f", o.ps.toMilliseconds(duration))
}

// finishSuccess records metrics and completes the span of a successful operation.
func (o *operationObserver) finishSuccess(personCount int, attrs map[string]string) {
	duration := o.elapsed()
	labels := map[string]string{
		spanAttrOperation: o.operation,
		metricLabelStatus: statusSuccess,
	}

	o.ps.recordDurationMetrics(o.ctx, duration, labels)
	o.ps.recordValueMetrics(o.ctx, float64(personCount), labels)

	if o.span == nil {
		return
	}

	finalAttrs := map[string]string{
		spanAttrPersonCount: strconv.Itoa(personCount),
		spanAttrDurationMS:  o.formatDuration(duration),
	}
	for key, value := range attrs {
		finalAttrs[key] = value
	}

	o.ps.tracingCollector.FinishSpan(o.span, statusSuccess, finalAttrs)
}

// finishError records metrics and completes the span of a failed operation.
func (o *operationObserver) finishError(errorType string) {
	duration := o.elapsed()

	o.ps.recordDurationMetrics(o.ctx, duration, map[string]string{
		spanAttrOperation: o.operation,
		metricLabelStatus: statusError,
	})
	o.ps.recordErrorMetrics(o.ctx, map[string]string{
		spanAttrOperation: o.operation,
		metricLabelStatus: statusError,
		spanAttrErrorType: errorType,
	})

	if o.span == nil {
		return
	}

	o.ps.tracingCollector.FinishSpan(o.span, statusOf(errorType), map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: o.formatDuration(duration),
	})
}
