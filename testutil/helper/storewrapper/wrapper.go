// Package storewrapper opens a PersonStore over a real database for integration tests.
//
// Without TEST_PRIMARY_DSN every wrapper uses a fresh SQLite file below t.TempDir().
// With TEST_PRIMARY_DSN set, a PostgreSQL database is used and each wrapper works on its own
// copy of the person table, so tests can run in parallel against one database.
//
// ADAPTER_TYPE selects the connection type: "pgxpool" (PostgreSQL only), "sqldb" or "sqlx".
package storewrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/elfotec/personstore-go/personstore"
	"github.com/elfotec/personstore-go/personstore/schema"
	"github.com/elfotec/personstore-go/personstore/sqlengine"
	"github.com/elfotec/personstore-go/testutil/helper"
)

// Adapter type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

const (
	envPrimaryDSN  = "TEST_PRIMARY_DSN"
	envAdapterType = "ADAPTER_TYPE"
)

// Wrapper abstracts over the database and connection type a PersonStore runs on.
type Wrapper interface {
	GetPersonStore() *sqlengine.PersonStore
	Dialect() string
	TableName() string
	GivenPersons(t testing.TB, persons ...personstore.Person)
	SoftDelete(t testing.TB, id personstore.PersonID)
	Close()
}

type wrapper struct {
	store     *sqlengine.PersonStore
	setupDB   *sql.DB
	dialect   string
	tableName string
	closers   []func()
}

func (w *wrapper) GetPersonStore() *sqlengine.PersonStore {
	return w.store
}

func (w *wrapper) Dialect() string {
	return w.dialect
}

func (w *wrapper) TableName() string {
	return w.tableName
}

// GivenPersons inserts the persons into the wrapper's person table.
func (w *wrapper) GivenPersons(t testing.TB, persons ...personstore.Person) {
	if len(persons) == 0 {
		return
	}

	query, args, err := helper.BuildInsertPersonsQuery(w.dialect, w.tableName, persons...)
	require.NoError(t, err, "error in arranging test data")

	_, err = w.setupDB.ExecContext(context.Background(), query, args...)
	require.NoError(t, err, "error in arranging test data")
}

// SoftDelete marks the person with id as deleted at the fixture deletion time.
func (w *wrapper) SoftDelete(t testing.TB, id personstore.PersonID) {
	query, args, err := goqu.Dialect(w.dialect).
		Update(w.tableName).
		Set(goqu.Record{"deleted_at": helper.FixtureDeletedAt}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	require.NoError(t, err, "error in arranging test data")

	_, err = w.setupDB.ExecContext(context.Background(), query, args...)
	require.NoError(t, err, "error in arranging test data")
}

// Close releases all connections in reverse order of their creation.
func (w *wrapper) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}

	w.closers = nil
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment variables.
// The wrapper is closed automatically when the test finishes.
func CreateWrapperWithTestConfig(t testing.TB, options ...sqlengine.Option) Wrapper {
	adapterType := strings.ToLower(os.Getenv(envAdapterType))

	var w *wrapper
	if dsn := os.Getenv(envPrimaryDSN); dsn != "" {
		w = createPostgresWrapper(t, dsn, adapterType, options)
	} else {
		w = createSQLiteWrapper(t, adapterType, options)
	}

	t.Cleanup(w.Close)

	return w
}

// SQLiteDSN returns the DSN of a SQLite database file at path.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)"
}

// OpenMigratedSQLite opens a new SQLite database below t.TempDir() with the person table created.
func OpenMigratedSQLite(t testing.TB) *sql.DB {
	db, err := sql.Open("sqlite", SQLiteDSN(filepath.Join(t.TempDir(), "person.db")))
	require.NoError(t, err, "error opening sqlite database in test setup")

	_, err = schema.Migrate(context.Background(), db, schema.DialectSQLite3)
	require.NoError(t, err, "error migrating sqlite database in test setup")

	return db
}

func createSQLiteWrapper(t testing.TB, adapterType string, options []sqlengine.Option) *wrapper {
	db := OpenMigratedSQLite(t)

	w := &wrapper{
		setupDB:   db,
		dialect:   schema.DialectSQLite3,
		tableName: "person",
		closers:   []func(){func() { _ = db.Close() }},
	}

	allOptions := append([]sqlengine.Option{sqlengine.WithDialect(schema.DialectSQLite3)}, options...)

	var store *sqlengine.PersonStore
	var err error

	switch adapterType {
	case typeSQLX:
		store, err = sqlengine.NewPersonStoreFromSQLX(sqlx.NewDb(db, "sqlite"), allOptions...)

	case typeSQLDB, typePGXPool, "":
		store, err = sqlengine.NewPersonStoreFromSQLDB(db, allOptions...)

	default:
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapterType))
	}

	require.NoError(t, err, "error creating person store in test setup")
	w.store = store

	return w
}

func createPostgresWrapper(t testing.TB, dsn string, adapterType string, options []sqlengine.Option) *wrapper {
	ctx := context.Background()

	setupDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "error opening postgres database in test setup")

	_, err = schema.Migrate(ctx, setupDB, schema.DialectPostgres)
	require.NoError(t, err, "error migrating postgres database in test setup")

	tableName := "person_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = setupDB.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (LIKE person INCLUDING ALL)", tableName))
	require.NoError(t, err, "error creating isolated person table in test setup")

	w := &wrapper{
		setupDB:   setupDB,
		dialect:   schema.DialectPostgres,
		tableName: tableName,
		closers: []func(){
			func() { _ = setupDB.Close() },
			func() { _, _ = setupDB.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+tableName) },
		},
	}

	allOptions := append([]sqlengine.Option{sqlengine.WithTableName(tableName)}, options...)

	var store *sqlengine.PersonStore

	switch adapterType {
	case typePGXPool, "":
		pool, poolErr := pgxpool.NewWithConfig(ctx, pgxPoolTestConfig(t, dsn))
		require.NoError(t, poolErr, "error connecting to DB pool in test setup")
		w.closers = append(w.closers, pool.Close)
		store, err = sqlengine.NewPersonStoreFromPGXPool(pool, allOptions...)

	case typeSQLDB:
		db := openPostgresSQLDB(t, dsn)
		w.closers = append(w.closers, func() { _ = db.Close() })
		store, err = sqlengine.NewPersonStoreFromSQLDB(db, allOptions...)

	case typeSQLX:
		db := sqlx.NewDb(openPostgresSQLDB(t, dsn), "postgres")
		w.closers = append(w.closers, func() { _ = db.Close() })
		store, err = sqlengine.NewPersonStoreFromSQLX(db, allOptions...)

	default:
		panic(fmt.Sprintf("unsupported adapter type from env: %s", adapterType))
	}

	require.NoError(t, err, "error creating person store in test setup")
	w.store = store

	return w
}

func pgxPoolTestConfig(t testing.TB, dsn string) *pgxpool.Config {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err, "error parsing postgres dsn in test setup")

	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 5
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = time.Second * 5

	return poolConfig
}

func openPostgresSQLDB(t testing.TB, dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err, "error opening postgres database in test setup")

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(time.Minute * 5)

	require.NoError(t, db.PingContext(context.Background()), "error pinging postgres database in test setup")

	return db
}
