// Package layout maps symbols to files inside a database directory.
//
// A database root holds broker.master plus one folder per shard:
//
//	root/broker.master
//	root/a/AAPL
//	root/_/^GSPC
package layout

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MasterFile is the name of the master index inside a database root.
const MasterFile = "broker.master"

// ShardFolder returns the folder holding symbol's data file. Index-like
// symbols starting with ^, ~ or @ share the "_" folder; everything else uses
// the lowercased first character. An empty symbol maps to " ".
func ShardFolder(symbol string) string {
	if symbol == "" {
		return " "
	}
	r, _ := utf8.DecodeRuneInString(symbol)
	switch r {
	case '^', '~', '@':
		return "_"
	}
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	return string(r)
}

// Resolve returns the path of symbol's data file under root. The master file
// itself lives at the top level; other symbols keep their original casing
// inside their shard folder.
func Resolve(root, symbol string) string {
	if strings.EqualFold(symbol, MasterFile) {
		return filepath.Join(root, symbol)
	}
	return filepath.Join(root, ShardFolder(symbol), symbol)
}

// MasterPath returns root/broker.master.
func MasterPath(root string) string {
	return filepath.Join(root, MasterFile)
}
