package sqlengine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elfotec/personstore-go/personstore"
	. "github.com/elfotec/personstore-go/personstore/sqlengine"
	"github.com/elfotec/personstore-go/testutil/helper"
	"github.com/elfotec/personstore-go/testutil/helper/storewrapper"
)

const (
	logMsgCountActiveSQL     = "executed sql for: count_active"
	logMsgListActiveSQL      = "executed sql for: list_active"
	logMsgGetActiveByIDSQL   = "executed sql for: get_active_by_id"
	logMsgListActiveDone     = "personstore operation: list active completed"
	logMsgGetActiveByIDDone  = "personstore operation: get active by id completed"
	logMsgInvalidArgument    = "rejected invalid argument"
	logMsgDBQueryFailed      = "database query execution failed"
	metricQueryDuration      = "personstore_query_duration_seconds"
	metricPersonsReturned    = "personstore_persons_returned"
	metricErrors             = "personstore_errors_total"
	spanNameListActive       = "personstore.list_active"
	spanNameGetActiveByID    = "personstore.get_active_by_id"
	operationListActive      = "list_active"
	operationGetActiveByID   = "get_active_by_id"
	errorTypeInvalidArgument = "invalid_argument"
	errorTypeDatabaseQuery   = "database_query"
	errorTypeCancelled       = "cancelled"
)

func Test_Logging_ListActive(t *testing.T) {
	// setup
	logHandler := helper.NewLogHandlerSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logHandler)))
	wrapper.GivenPersons(t, helper.ScenarioPersons()...)

	// act
	_, err := wrapper.GetPersonStore().ListActive(context.Background(), 0, 2)

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasDebugLogWithMessage(logMsgCountActiveSQL).WithDurationMS().WithAttribute("query").Assert())
	assert.True(t, logHandler.HasDebugLogWithMessage(logMsgListActiveSQL).WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage(logMsgListActiveDone).
		WithDurationMS().
		WithAttributeValue("person_count", "2").
		WithAttributeValue("total_active", "3").
		WithAttributeValue("page_number", "0").
		Assert())
}

func Test_Logging_GetActiveByID(t *testing.T) {
	// setup
	logHandler := helper.NewLogHandlerSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logHandler)))
	wrapper.GivenPersons(t, helper.ScenarioPersons()...)

	// act
	_, _, err := wrapper.GetPersonStore().GetActiveByID(context.Background(), 4)

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasDebugLogWithMessage(logMsgGetActiveByIDSQL).WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage(logMsgGetActiveByIDDone).
		WithAttributeValue("person_id", "4").
		WithAttributeValue("found", "false").
		Assert())
}

func Test_Logging_SkippedPageQueryIsNotLogged(t *testing.T) {
	// setup
	logHandler := helper.NewLogHandlerSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logHandler)))

	// act
	_, err := wrapper.GetPersonStore().ListActive(context.Background(), 3, 10)

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasDebugLogWithMessage(logMsgCountActiveSQL).Assert())
	assert.False(t, logHandler.HasDebugLogWithMessage(logMsgListActiveSQL).Assert())
}

func Test_Logging_InvalidArgumentsAreWarnings(t *testing.T) {
	// setup
	logHandler := helper.NewLogHandlerSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithLogger(slog.New(logHandler)))
	store := wrapper.GetPersonStore()

	// act
	_, negativePageErr := store.ListActive(context.Background(), -1, 10)
	_, zeroSizeErr := store.ListActive(context.Background(), 0, 0)

	// assert
	assert.ErrorIs(t, negativePageErr, personstore.ErrInvalidArgument)
	assert.ErrorIs(t, zeroSizeErr, personstore.ErrInvalidArgument)
	assert.True(t, logHandler.HasWarnLogWithMessage(logMsgInvalidArgument).
		WithAttributeValue("operation", operationListActive).
		WithAttributeValue("page_number", "-1").
		WithAttribute("error").
		Assert())
	assert.True(t, logHandler.HasWarnLogWithMessage(logMsgInvalidArgument).
		WithAttributeValue("operation", operationListActive).
		WithAttributeValue("page_size", "0").
		Assert())
	assert.Equal(t, 0, logHandler.CountRecordsWithLevel(slog.LevelError))
	assert.Equal(t, 0, logHandler.CountRecordsWithLevel(slog.LevelDebug))
}

func Test_Logging_StorageFailuresAreErrors(t *testing.T) {
	// setup
	logHandler := helper.NewLogHandlerSpy(false)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersonStoreFromSQLDB(db, WithContextualLogger(slog.New(logHandler)))
	require.NoError(t, err)

	// arrange
	mock.ExpectQuery(countActiveQueryPattern).WillReturnError(errConnectionReset)

	// act
	_, err = store.ListActive(context.Background(), 0, 10)

	// assert
	assert.ErrorIs(t, err, personstore.ErrStorageUnavailable)
	assert.True(t, logHandler.HasErrorLogWithMessage(logMsgDBQueryFailed).
		WithAttributeValue("error", errConnectionReset.Error()).
		WithAttribute("query").
		Assert())
	assert.False(t, logHandler.HasInfoLogWithMessage(logMsgListActiveDone).Assert())
}

func Test_Logging_ContextualLoggerReceivesTheSameMessages(t *testing.T) {
	// setup
	plainHandler := helper.NewLogHandlerSpy(false)
	contextualHandler := helper.NewLogHandlerSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(
		t,
		WithLogger(slog.New(plainHandler)),
		WithContextualLogger(slog.New(contextualHandler)),
	)

	// act
	_, err := wrapper.GetPersonStore().ListActive(context.Background(), 0, 5)

	// assert
	require.NoError(t, err)
	assert.Positive(t, plainHandler.GetRecordCount())
	assert.Equal(t, plainHandler.GetRecordCount(), contextualHandler.GetRecordCount())
	assert.True(t, contextualHandler.HasInfoLogWithMessage(logMsgListActiveDone).Assert())
}

func Test_Metrics_Success(t *testing.T) {
	// setup
	metrics := helper.NewMetricsCollectorSpy(true)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithMetrics(metrics))
	wrapper.GivenPersons(t, helper.ScenarioPersons()...)
	store := wrapper.GetPersonStore()

	// act
	_, listErr := store.ListActive(context.Background(), 0, 2)
	_, _, getErr := store.GetActiveByID(context.Background(), 1)

	// assert
	require.NoError(t, listErr)
	require.NoError(t, getErr)
	assert.True(t, metrics.HasDurationRecordForMetric(metricQueryDuration).
		WithOperation(operationListActive).
		WithStatus("success").
		Assert())
	assert.True(t, metrics.HasValueRecordForMetric(metricPersonsReturned).
		WithOperation(operationListActive).
		WithValue(2).
		Assert())
	assert.True(t, metrics.HasValueRecordForMetric(metricPersonsReturned).
		WithOperation(operationGetActiveByID).
		WithValue(1).
		Assert())
	assert.Equal(t, 0, metrics.GetCounterRecordCount())
}

func Test_Metrics_Errors(t *testing.T) {
	// setup
	metrics := helper.NewMetricsCollectorSpy(true)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersonStoreFromSQLDB(db, WithMetrics(metrics))
	require.NoError(t, err)

	// arrange
	mock.ExpectQuery(getActiveByIDQueryPattern).WillReturnError(errConnectionReset)

	// act
	_, invalidErr := store.ListActive(context.Background(), 0, 0)
	_, _, storageErr := store.GetActiveByID(context.Background(), 1)

	// assert
	assert.ErrorIs(t, invalidErr, personstore.ErrInvalidArgument)
	assert.ErrorIs(t, storageErr, personstore.ErrStorageUnavailable)
	assert.True(t, metrics.HasCounterRecordForMetric(metricErrors).
		WithOperation(operationListActive).
		WithErrorType(errorTypeInvalidArgument).
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(metricErrors).
		WithOperation(operationGetActiveByID).
		WithErrorType(errorTypeDatabaseQuery).
		Assert())
	assert.True(t, metrics.HasDurationRecordForMetric(metricQueryDuration).
		WithOperation(operationGetActiveByID).
		WithStatus("error").
		Assert())
	assert.Empty(t, metrics.GetValueRecords())
}

func Test_Metrics_PrefersContextualCollector(t *testing.T) {
	// setup
	metrics := helper.NewContextualMetricsCollectorSpy()
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithMetrics(metrics))

	// act
	_, err := wrapper.GetPersonStore().ListActive(context.Background(), 0, 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, metrics.GetContextCallCount())
	assert.Len(t, metrics.GetDurationRecords(), 1)
	assert.Len(t, metrics.GetValueRecords(), 1)
}

func Test_Tracing_ListActive(t *testing.T) {
	// setup
	tracing := helper.NewTracingCollectorSpy(true)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithTracing(tracing))
	wrapper.GivenPersons(t, helper.ScenarioPersons()...)

	// act
	_, err := wrapper.GetPersonStore().ListActive(personstore.WithEventualConsistency(context.Background()), 1, 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, tracing.CountSpanRecordsForName(spanNameListActive))
	assert.True(t, tracing.HasSpanRecordForName(spanNameListActive).
		WithStartAttribute("operation", operationListActive).
		WithStartAttribute("page_number", "1").
		WithStartAttribute("page_size", "2").
		WithStartAttribute("consistency_level", "eventual").
		WithStatus("success").
		WithEndAttribute("person_count", "1").
		WithEndAttribute("total_active", "3").
		WithEndAttributeKey("duration_ms").
		Assert())
}

func Test_Tracing_GetActiveByID(t *testing.T) {
	// setup
	tracing := helper.NewTracingCollectorSpy(true)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithTracing(tracing))
	wrapper.GivenPersons(t, helper.ScenarioPersons()...)

	// act
	_, _, err := wrapper.GetPersonStore().GetActiveByID(context.Background(), 2)

	// assert
	require.NoError(t, err)
	assert.True(t, tracing.HasSpanRecordForName(spanNameGetActiveByID).
		WithStartAttribute("person_id", "2").
		WithStartAttribute("consistency_level", "strong").
		WithStatus("success").
		WithEndAttribute("found", "true").
		WithEndAttribute("person_count", "1").
		Assert())
}

func Test_Tracing_Errors(t *testing.T) {
	// setup
	tracing := helper.NewTracingCollectorSpy(true)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithTracing(tracing))
	store := wrapper.GetPersonStore()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, invalidErr := store.ListActive(context.Background(), 0, 0)
	_, _, cancelledErr := store.GetActiveByID(cancelledCtx, 1)

	// assert
	assert.Error(t, invalidErr)
	assert.Error(t, cancelledErr)
	assert.True(t, tracing.HasSpanRecordForName(spanNameListActive).
		WithStatus("error").
		WithEndAttribute("error_type", errorTypeInvalidArgument).
		Assert())
	assert.True(t, tracing.HasSpanRecordForName(spanNameGetActiveByID).
		WithStatus("cancelled").
		WithEndAttribute("error_type", errorTypeCancelled).
		Assert())
}

func Test_Observability_DisabledCollectorsAreNotCalled(t *testing.T) {
	// setup
	metrics := helper.NewMetricsCollectorSpy(false)
	tracing := helper.NewTracingCollectorSpy(false)
	wrapper := storewrapper.CreateWrapperWithTestConfig(t, WithMetrics(metrics), WithTracing(tracing))

	// act
	_, err := wrapper.GetPersonStore().ListActive(context.Background(), 0, 1)

	// assert
	require.NoError(t, err)
	assert.Empty(t, metrics.GetDurationRecords())
	assert.Empty(t, tracing.GetSpanRecords())
}
