// Package amidb is the database facade: it ties the master index, the
// per-symbol files and the shard layout together under one root directory.
//
// A DB keeps the master index in memory. AddSymbol only changes that copy;
// WriteDatabase persists it. Quote operations go straight to the symbol files.
package amidb
