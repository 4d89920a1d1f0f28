// Package sqlengine provides a relational implementation of personstore.ActiveQueries.
//
// Queries are built with goqu for the configured SQL dialect (postgres by default, sqlite3 and mysql
// are supported as well) and executed through one of several database adapters (pgx, sql.DB, sqlx).
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX) with optional read replica routing
//   - Soft-delete aware filtering: rows with a non-NULL deleted_at are never returned
//   - Stable pagination ordered by the primary key, total count from an aggregate query
//   - Configurable table name and dialect
//   - Optional logging, metrics and tracing through the personstore observability interfaces
//
// Usage examples:
//
//	// Basic usage
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := sqlengine.NewPersonStoreFromPGXPool(pool)
//
//	// SQLite through database/sql, with logging
//	db, _ := sql.Open("sqlite", "file:persons.db")
//	store, _ := sqlengine.NewPersonStoreFromSQLDB(
//		db,
//		sqlengine.WithDialect("sqlite3"),
//		sqlengine.WithTableName("pessoa"),
//		sqlengine.WithLogger(slog.Default()),
//	)
//
//	page, _ := store.ListActive(ctx, 0, 20)
//	person, found, _ := store.GetActiveByID(ctx, 42)
package sqlengine
