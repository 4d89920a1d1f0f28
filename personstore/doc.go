// Package personstore provides the core types and contracts for reading Person records
// with soft-delete semantics.
//
// A Person whose DeletedAt is set is logically removed: it stays in storage for audit and history
// but is never returned by the ActiveQueries operations.
//
// This package defines the storage-agnostic pieces shared by all engine implementations:
//   - Person: the record returned by the queries
//   - PageRequest and Page: offset based pagination with total count metadata
//   - ActiveQueries: the read contract implemented by engines (see package sqlengine)
//   - sentinel errors for invalid arguments and storage failures
//   - dependency-free observability interfaces (Logger, MetricsCollector, TracingCollector)
//
// Common usage pattern:
//
//	page, err := store.ListActive(ctx, 0, 20)
//	if errors.Is(err, personstore.ErrInvalidArgument) {
//		// the caller passed an out-of-contract page number or size
//	}
//
//	for !page.IsLast() {
//		page, err = store.ListActive(ctx, page.PageNumber+1, page.PageSize)
//	}
//
//	person, found, err := store.GetActiveByID(ctx, 42)
//	if err == nil && !found {
//		// never existed or soft-deleted
//	}
package personstore
