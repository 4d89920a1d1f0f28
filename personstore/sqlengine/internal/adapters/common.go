package adapters

import (
	"context"
	"database/sql"

	"github.com/elfotec/personstore-go/personstore"
)

// stdRows wraps standard library sql.Rows to implement DBRows interface.
type stdRows struct {
	rows *sql.Rows
}

// Next advances to the next row.
func (s *stdRows) Next() bool {
	return s.rows.Next()
}

// Scan copies row values into provided destinations.
func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

// Err returns the error, if any, that was encountered during iteration.
func (s *stdRows) Err() error {
	return s.rows.Err()
}

// Close closes the rows iterator.
func (s *stdRows) Close() error {
	return s.rows.Close()
}

// useReplica reports whether a read may go to the replica connection.
func useReplica(ctx context.Context, hasReplica bool) bool {
	return hasReplica && personstore.GetConsistencyLevel(ctx) == personstore.EventualConsistency
}
