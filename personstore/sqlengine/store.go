package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"    // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/elfotec/personstore-go/personstore"
	"github.com/elfotec/personstore-go/personstore/sqlengine/internal/adapters"
)

const (
	defaultPersonTableName       = "person"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgRowIterationFailed     = "database row iteration failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgInvalidArgument        = "rejected invalid argument"
	logMsgListActiveCompleted    = "list active completed"
	logMsgGetActiveByIDCompleted = "get active by id completed"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "personstore operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrOperation             = "operation"
	logAttrDurationMS            = "duration_ms"
	logAttrPageNumber            = "page_number"
	logAttrPageSize              = "page_size"
	logAttrPersonCount           = "person_count"
	logAttrTotalActive           = "total_active"
	logAttrPersonID              = "person_id"
	logAttrFound                 = "found"
	logActionCountActive         = "count_active"
	logActionListActive          = "list_active"
	logActionGetActiveByID       = "get_active_by_id"
	colID                        = "id"
	colName                      = "name"
	colCPF                       = "cpf"
	colCNPJ                      = "cnpj"
	colPersonType                = "person_type"
	colMotherName                = "mother_name"
	colRegisteredAt              = "registered_at"
	colBirthDate                 = "birth_date"
	colDeletedAt                 = "deleted_at"
	dialectPostgres              = "postgres"
	dialectSQLite3               = "sqlite3"
	dialectMySQL                 = "mysql"
)

var errMissingCountRow = errors.New("count query returned no row")

// PersonStore reads active (not soft-deleted) Person records from a relational table.
// It leverages a database adapter and supports a configurable table name, SQL dialect and observability.
//
// PersonStore holds no mutable state after construction and is safe for concurrent use.
type PersonStore struct {
	db               adapters.DBAdapter
	dialect          goqu.DialectWrapper
	dialectName      string
	personTableName  string
	logger           personstore.Logger
	contextualLogger personstore.ContextualLogger
	metricsCollector personstore.MetricsCollector
	tracingCollector personstore.TracingCollector
}

var _ personstore.ActiveQueries = (*PersonStore)(nil)

// NewPersonStoreFromPGXPool creates a new PersonStore using a pgx Pool with optional configuration.
// Only the postgres dialect can be used with pgx.
func NewPersonStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*PersonStore, error) {
	if db == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPGXPersonStore(adapters.NewPGXAdapter(db), options)
}

// NewPersonStoreFromPGXPoolWithReplica creates a new PersonStore using a primary and a replica pgx Pool.
// Reads use the replica when the context carries personstore.EventualConsistency.
func NewPersonStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (*PersonStore, error) {
	if db == nil || replica == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPGXPersonStore(adapters.NewPGXAdapterWithReplica(db, replica), options)
}

// NewPersonStoreFromSQLDB creates a new PersonStore using a sql.DB with optional configuration.
func NewPersonStoreFromSQLDB(db *sql.DB, options ...Option) (*PersonStore, error) {
	if db == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPersonStore(adapters.NewSQLAdapter(db), options)
}

// NewPersonStoreFromSQLDBWithReplica creates a new PersonStore using a primary and a replica sql.DB.
// Reads use the replica when the context carries personstore.EventualConsistency.
func NewPersonStoreFromSQLDBWithReplica(db *sql.DB, replica *sql.DB, options ...Option) (*PersonStore, error) {
	if db == nil || replica == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPersonStore(adapters.NewSQLAdapterWithReplica(db, replica), options)
}

// NewPersonStoreFromSQLX creates a new PersonStore using a sqlx.DB with optional configuration.
func NewPersonStoreFromSQLX(db *sqlx.DB, options ...Option) (*PersonStore, error) {
	if db == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPersonStore(adapters.NewSQLXAdapter(db), options)
}

// NewPersonStoreFromSQLXWithReplica creates a new PersonStore using a primary and a replica sqlx.DB.
// Reads use the replica when the context carries personstore.EventualConsistency.
func NewPersonStoreFromSQLXWithReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (*PersonStore, error) {
	if db == nil || replica == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	return newPersonStore(adapters.NewSQLXAdapterWithReplica(db, replica), options)
}

func isSupportedDialect(dialect string) bool {
	switch dialect {
	case dialectPostgres, dialectSQLite3, dialectMySQL:
		return true
	default:
		return false
	}
}

func newPGXPersonStore(db adapters.DBAdapter, options []Option) (*PersonStore, error) {
	ps, err := newPersonStore(db, options)
	if err != nil {
		return nil, err
	}

	if ps.dialectName != dialectPostgres {
		return nil, personstore.ErrUnsupportedDialect
	}

	return ps, nil
}

func newPersonStore(db adapters.DBAdapter, options []Option) (*PersonStore, error) {
	ps := &PersonStore{
		db:              db,
		dialectName:     dialectPostgres,
		personTableName: defaultPersonTableName,
	}

	for _, option := range options {
		if err := option(ps); err != nil {
			return nil, err
		}
	}

	ps.dialect = goqu.Dialect(ps.dialectName)

	return ps, nil
}

// ListActive retrieves the requested zero-based page of active persons ordered by id ascending,
// together with the total number of active persons.
//
// The total comes from an aggregate query issued before the page query.
// If the requested page starts at or after the last active person, the page query is skipped
// and an empty page with the current total is returned.
func (ps *PersonStore) ListActive(ctx context.Context, pageNumber, pageSize int) (personstore.Page, error) {
	observer, ctx := ps.startListActiveObservation(ctx, pageNumber, pageSize)

	pageRequest, validationErr := personstore.NewPageRequest(pageNumber, pageSize)
	if validationErr != nil {
		ps.logWarn(ctx, logMsgInvalidArgument, validationErr,
			logAttrOperation, operationListActive,
			logAttrPageNumber, pageNumber,
			logAttrPageSize, pageSize)
		observer.finishError(errorTypeInvalidArgument)

		return personstore.Page{}, validationErr
	}

	totalActive, countErr := ps.countActive(ctx)
	if countErr != nil {
		observer.finishError(errorTypeOf(countErr))
		return personstore.Page{}, countErr
	}

	persons := make([]personstore.Person, 0)

	if int64(pageRequest.Offset()) < totalActive {
		sqlQuery, buildQueryErr := ps.buildListActiveQuery(pageRequest)
		if buildQueryErr != nil {
			ps.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr, logAttrOperation, operationListActive)
			observer.finishError(errorTypeBuildQuery)

			return personstore.Page{}, buildQueryErr
		}

		var queryErr error

		persons, queryErr = ps.queryPersons(ctx, sqlQuery, logActionListActive)
		if queryErr != nil {
			observer.finishError(errorTypeOf(queryErr))
			return personstore.Page{}, queryErr
		}
	}

	page := personstore.Page{
		Persons:     persons,
		PageNumber:  pageRequest.Number,
		PageSize:    pageRequest.Size,
		TotalActive: totalActive,
	}

	ps.logOperation(
		ctx,
		logMsgListActiveCompleted,
		logAttrPageNumber, page.PageNumber,
		logAttrPageSize, page.PageSize,
		logAttrPersonCount, len(persons),
		logAttrTotalActive, totalActive,
		logAttrDurationMS, ps.toMilliseconds(observer.elapsed()),
	)

	observer.finishSuccess(len(persons), map[string]string{
		spanAttrTotalActive: strconv.FormatInt(totalActive, 10),
	})

	return page, nil
}

// GetActiveByID retrieves the active Person with the given id.
//
// found is false if no row with this id exists or if the row is soft-deleted;
// the two cases are not distinguished. Zero and negative ids are looked up like any other id.
func (ps *PersonStore) GetActiveByID(ctx context.Context, id personstore.PersonID) (personstore.Person, bool, error) {
	observer, ctx := ps.startGetActiveByIDObservation(ctx, id)

	sqlQuery, buildQueryErr := ps.buildGetActiveByIDQuery(id)
	if buildQueryErr != nil {
		ps.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr, logAttrOperation, operationGetActiveByID)
		observer.finishError(errorTypeBuildQuery)

		return personstore.Person{}, false, buildQueryErr
	}

	persons, queryErr := ps.queryPersons(ctx, sqlQuery, logActionGetActiveByID)
	if queryErr != nil {
		observer.finishError(errorTypeOf(queryErr))
		return personstore.Person{}, false, queryErr
	}

	var person personstore.Person

	found := len(persons) > 0
	if found {
		person = persons[0]
	}

	ps.logOperation(
		ctx,
		logMsgGetActiveByIDCompleted,
		logAttrPersonID, id,
		logAttrFound, found,
		logAttrDurationMS, ps.toMilliseconds(observer.elapsed()),
	)

	observer.finishSuccess(len(persons), map[string]string{
		spanAttrFound: strconv.FormatBool(found),
	})

	return person, found, nil
}

// countActive executes the aggregate query counting all active persons.
func (ps *PersonStore) countActive(ctx context.Context) (int64, error) {
	sqlQuery, buildQueryErr := ps.buildCountActiveQuery()
	if buildQueryErr != nil {
		ps.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr, logAttrOperation, operationListActive)
		return 0, buildQueryErr
	}

	rows, queryErr := ps.executeQuery(ctx, sqlQuery, logActionCountActive)
	if queryErr != nil {
		return 0, queryErr
	}
	defer ps.closeRows(ctx, rows)

	if !rows.Next() {
		if iterationErr := rows.Err(); iterationErr != nil {
			return 0, ps.iterationFailed(ctx, iterationErr)
		}

		err := errors.Join(personstore.ErrScanningDBRowFailed, errMissingCountRow)
		ps.logError(ctx, logMsgScanRowFailed, err, logAttrQuery, sqlQuery)

		return 0, err
	}

	var totalActive int64
	if rowScanErr := rows.Scan(&totalActive); rowScanErr != nil {
		ps.logError(ctx, logMsgScanRowFailed, rowScanErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(personstore.ErrScanningDBRowFailed, rowScanErr)
	}

	return totalActive, nil
}

// queryPersons executes a select query and maps all returned rows to persons.
func (ps *PersonStore) queryPersons(ctx context.Context, sqlQuery string, action string) ([]personstore.Person, error) {
	rows, queryErr := ps.executeQuery(ctx, sqlQuery, action)
	if queryErr != nil {
		return nil, queryErr
	}
	defer ps.closeRows(ctx, rows)

	return ps.processQueryResults(ctx, rows)
}

// executeQuery executes the SQL query and logs it with timing information.
func (ps *PersonStore) executeQuery(ctx context.Context, sqlQuery string, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := ps.db.Query(ctx, sqlQuery)
	ps.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		ps.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(personstore.ErrStorageUnavailable, queryErr)
	}

	return rows, nil
}

// closeRows closes database rows and logs any errors.
func (ps *PersonStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		ps.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// processQueryResults converts database rows to persons.
func (ps *PersonStore) processQueryResults(ctx context.Context, rows adapters.DBRows) ([]personstore.Person, error) {
	persons := make([]personstore.Person, 0)

	for rows.Next() {
		row := personRow{}

		if rowScanErr := rows.Scan(row.destinations()...); rowScanErr != nil {
			ps.logError(ctx, logMsgScanRowFailed, rowScanErr)
			return nil, errors.Join(personstore.ErrScanningDBRowFailed, rowScanErr)
		}

		persons = append(persons, row.toPerson())
	}

	if iterationErr := rows.Err(); iterationErr != nil {
		return nil, ps.iterationFailed(ctx, iterationErr)
	}

	return persons, nil
}

// iterationFailed logs and wraps an error reported by the driver while streaming rows.
func (ps *PersonStore) iterationFailed(ctx context.Context, iterationErr error) error {
	ps.logError(ctx, logMsgRowIterationFailed, iterationErr)
	return errors.Join(personstore.ErrStorageUnavailable, iterationErr)
}
