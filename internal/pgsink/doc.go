// Package pgsink copies quotes into a PostgreSQL (or TimescaleDB) table.
//
// Rows are keyed by (symbol, ts); re-exporting a symbol only inserts the
// quotes the table does not have yet.
package pgsink
