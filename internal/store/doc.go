// Package store reads and writes the two file kinds of a database: the
// broker.master index and the per-symbol quote files.
//
// Each call opens, uses and closes its own file handle. Nothing is locked;
// concurrent writers to the same directory race.
package store
