// Package helper provides test doubles and database fixtures for personstore tests.
//
// The spies capture log records, metrics and spans emitted by a PersonStore.
// The storewrapper subpackage opens a SQLite or PostgreSQL backed store for integration tests.
package helper
