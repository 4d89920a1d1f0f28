package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/elfotec/personstore-go/personstore/sqlengine"
)

// PGXPoolConfig creates a pgxpool.Config for dsn with the configured pool settings.
func (c Config) PGXPoolConfig(dsn string) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}

	dbConfig.MaxConns = c.Pool.MaxConns
	dbConfig.MinConns = c.Pool.MinConns
	dbConfig.MaxConnLifetime = c.Pool.MaxConnLifetime
	dbConfig.MaxConnIdleTime = c.Pool.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = c.Pool.HealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = c.Pool.ConnectTimeout

	return dbConfig, nil
}

// OpenSQLDB opens a *sql.DB for dsn with the database/sql driver of the configured driver.
// It does not connect.
func (c Config) OpenSQLDB(dsn string) (*sql.DB, error) {
	driverName := DriverPostgres
	if c.Driver == DriverSQLite {
		driverName = DriverSQLite
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(int(c.Pool.MaxConns))
	db.SetMaxIdleConns(c.Pool.MaxIdleConns)
	db.SetConnMaxLifetime(c.Pool.MaxConnLifetime)
	db.SetConnMaxIdleTime(c.Pool.MaxConnIdleTime)

	return db, nil
}

// Connection is an opened PersonStore together with the resources backing it.
type Connection struct {
	Store *sqlengine.PersonStore

	// DB is the primary connection for database/sql based drivers, nil for pgx.
	DB      *sql.DB
	closers []func() error
}

// Close releases all connections of the store.
func (c *Connection) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Connection) addCloser(closer func() error) {
	c.closers = append(c.closers, closer)
}

// Open connects to the primary and the optional replica and creates a PersonStore on them.
// The configured table and the matching dialect are prepended to options.
func (c Config) Open(ctx context.Context, options ...sqlengine.Option) (*Connection, error) {
	options = append([]sqlengine.Option{
		sqlengine.WithTableName(c.Table),
		sqlengine.WithDialect(c.Dialect()),
	}, options...)

	conn := &Connection{}

	var err error
	switch c.Driver {
	case DriverPGX:
		err = c.openPGX(ctx, conn, options)
	case DriverSQLX:
		err = c.openSQLX(conn, options)
	case DriverPostgres, DriverSQLite:
		err = c.openSQLDB(conn, options)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}

	if err != nil {
		return nil, errors.Join(err, conn.Close())
	}

	return conn, nil
}

func (c Config) openPGX(ctx context.Context, conn *Connection, options []sqlengine.Option) error {
	primary, err := c.newPGXPool(ctx, c.DSN)
	if err != nil {
		return err
	}
	conn.addCloser(func() error { primary.Close(); return nil })

	if c.ReplicaDSN == "" {
		conn.Store, err = sqlengine.NewPersonStoreFromPGXPool(primary, options...)
		return err
	}

	replica, err := c.newPGXPool(ctx, c.ReplicaDSN)
	if err != nil {
		return err
	}
	conn.addCloser(func() error { replica.Close(); return nil })

	conn.Store, err = sqlengine.NewPersonStoreFromPGXPoolWithReplica(primary, replica, options...)

	return err
}

func (c Config) newPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := c.PGXPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgxpool: %w", err)
	}

	return pool, nil
}

func (c Config) openSQLDB(conn *Connection, options []sqlengine.Option) error {
	primary, err := c.OpenSQLDB(c.DSN)
	if err != nil {
		return err
	}
	conn.DB = primary
	conn.addCloser(primary.Close)

	if c.ReplicaDSN == "" {
		conn.Store, err = sqlengine.NewPersonStoreFromSQLDB(primary, options...)
		return err
	}

	replica, err := c.OpenSQLDB(c.ReplicaDSN)
	if err != nil {
		return err
	}
	conn.addCloser(replica.Close)

	conn.Store, err = sqlengine.NewPersonStoreFromSQLDBWithReplica(primary, replica, options...)

	return err
}

func (c Config) openSQLX(conn *Connection, options []sqlengine.Option) error {
	primaryDB, err := c.OpenSQLDB(c.DSN)
	if err != nil {
		return err
	}
	conn.DB = primaryDB
	conn.addCloser(primaryDB.Close)
	primary := sqlx.NewDb(primaryDB, DriverPostgres)

	if c.ReplicaDSN == "" {
		conn.Store, err = sqlengine.NewPersonStoreFromSQLX(primary, options...)
		return err
	}

	replicaDB, err := c.OpenSQLDB(c.ReplicaDSN)
	if err != nil {
		return err
	}
	conn.addCloser(replicaDB.Close)

	conn.Store, err = sqlengine.NewPersonStoreFromSQLXWithReplica(primary, sqlx.NewDb(replicaDB, DriverPostgres), options...)

	return err
}
