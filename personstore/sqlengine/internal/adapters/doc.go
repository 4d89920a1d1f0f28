// Package adapters provide database adapter implementations for the SQL person store.
//
// This package implements the adapter pattern to support multiple database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. All adapters provide equivalent functionality through
// a common DBAdapter interface, so the person store works with any supported connection type.
//
// Every adapter accepts an optional replica connection. Queries are routed to the replica only when
// the context asks for personstore.EventualConsistency.
package adapters
