// Package schema ships the person table migrations for every supported SQL dialect
// and applies them with goose.
//
// The migrations create the table under its default name "person" together with an index
// that serves the active-only queries of the sqlengine package.
package schema

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"

	"github.com/elfotec/personstore-go/personstore"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite3  = "sqlite3"
	DialectMySQL    = "mysql"
)

// TableName is the name of the table the migrations create.
const TableName = "person"

//go:embed migrations
var migrations embed.FS

var ErrMigrationFailed = errors.New("schema migration failed")

// MigrationsFS returns the migration files of one dialect.
func MigrationsFS(dialect string) (fs.FS, error) {
	if _, err := gooseDialect(dialect); err != nil {
		return nil, err
	}

	return fs.Sub(migrations, "migrations/"+dialect)
}

// Migrate applies all pending migrations of the given dialect to db.
// It returns the versions that were applied by this call.
func Migrate(ctx context.Context, db *sql.DB, dialect string) ([]int64, error) {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return nil, err
	}

	results, upErr := provider.Up(ctx)
	if upErr != nil {
		return nil, errors.Join(ErrMigrationFailed, upErr)
	}

	applied := make([]int64, 0, len(results))
	for _, result := range results {
		applied = append(applied, result.Source.Version)
	}

	return applied, nil
}

// Reset rolls back all applied migrations of the given dialect.
func Reset(ctx context.Context, db *sql.DB, dialect string) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	if _, downErr := provider.DownTo(ctx, 0); downErr != nil {
		return errors.Join(ErrMigrationFailed, downErr)
	}

	return nil
}

func newProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	if db == nil {
		return nil, personstore.ErrNilDatabaseConnection
	}

	gooseDialectName, err := gooseDialect(dialect)
	if err != nil {
		return nil, err
	}

	fsys, err := MigrationsFS(dialect)
	if err != nil {
		return nil, err
	}

	var options []goose.ProviderOption

	if dialect == DialectPostgres {
		locker, lockerErr := lock.NewPostgresSessionLocker()
		if lockerErr != nil {
			return nil, errors.Join(ErrMigrationFailed, lockerErr)
		}

		options = append(options, goose.WithSessionLocker(locker))
	}

	provider, err := goose.NewProvider(gooseDialectName, db, fsys, options...)
	if err != nil {
		return nil, errors.Join(ErrMigrationFailed, err)
	}

	return provider, nil
}

func gooseDialect(dialect string) (goose.Dialect, error) {
	switch dialect {
	case DialectPostgres:
		return goose.DialectPostgres, nil
	case DialectSQLite3:
		return goose.DialectSQLite3, nil
	case DialectMySQL:
		return goose.DialectMySQL, nil
	default:
		return "", personstore.ErrUnsupportedDialect
	}
}
