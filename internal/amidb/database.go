package amidb

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"ami-data/internal/layout"
	"ami-data/internal/model"
	"ami-data/internal/saver"
	"ami-data/internal/store"
)

var (
	// ErrNotFound is returned for quote reads on a symbol that has no data file.
	ErrNotFound = store.ErrNotFound
	// ErrSymbolName is returned for names that cannot map to a data file.
	ErrSymbolName = store.ErrSymbolName
)

// Reader is the read-only view consumed by exporters and the tool server.
type Reader interface {
	ListSymbols() []string
	ListQuotes(symbol string) ([]model.Quote, error)
}

// DB is an open database directory.
type DB struct {
	root   string
	index  *store.MasterIndex
	logger *slog.Logger
}

var _ Reader = (*DB)(nil)

// Open loads the database at root, creating the directory if needed.
// A missing master file is an empty database.
func Open(root string, opts ...Option) (*DB, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create database root: %w", err)
	}
	idx, err := store.ReadMaster(layout.MasterPath(root))
	if err != nil {
		return nil, err
	}
	db := &DB{root: root, index: idx, logger: slog.Default()}
	for _, o := range opts {
		o(db)
	}
	return db, nil
}

// Create opens root and writes its master file right away, so the directory
// is recognisable as a database even before any symbol is added.
func Create(root string, opts ...Option) (*DB, error) {
	db, err := Open(root, opts...)
	if err != nil {
		return nil, err
	}
	if err := db.WriteDatabase(); err != nil {
		return nil, err
	}
	return db, nil
}

// Root returns the database directory.
func (db *DB) Root() string { return db.root }

// AddSymbol registers name in memory. Adding a known name is a no-op.
func (db *DB) AddSymbol(name string) error {
	added, err := db.index.AddSymbol(name)
	if err != nil {
		return err
	}
	if added {
		db.logger.Debug("symbol added", "symbol", name)
	}
	return nil
}

// HasSymbol reports whether name is registered.
func (db *DB) HasSymbol(name string) bool { return db.index.Has(name) }

// WriteDatabase persists the master index to root/broker.master.
func (db *DB) WriteDatabase() error {
	return store.WriteMaster(layout.MasterPath(db.root), db.index)
}

// ListSymbols returns registered symbols in registration order.
func (db *DB) ListSymbols() []string { return db.index.Symbols() }

// ListQuotes returns every record of symbol in file order.
func (db *DB) ListQuotes(symbol string) ([]model.Quote, error) {
	if err := store.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	sf, err := store.ReadSymbol(layout.Resolve(db.root, symbol))
	if err != nil {
		return nil, err
	}
	return sf.Quotes, nil
}

// ListQuotesInRange returns the records of symbol whose date lies within
// [start, end]. A nil bound is open. Time of day is ignored.
func (db *DB) ListQuotesInRange(symbol string, start, end *model.Date) ([]model.Quote, error) {
	quotes, err := db.ListQuotes(symbol)
	if err != nil {
		return nil, err
	}
	if start == nil && end == nil {
		return quotes, nil
	}
	out := quotes[:0]
	for _, q := range quotes {
		d := q.Date()
		if start != nil && d.Before(*start) {
			continue
		}
		if end != nil && d.After(*end) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// LastTimestamp returns the date of the last record written for symbol.
// The second result is false when the symbol has no file or no records.
// Records are not sorted; the result is only the newest date if quotes
// were appended in chronological order.
func (db *DB) LastTimestamp(symbol string) (model.Date, bool, error) {
	quotes, err := db.ListQuotes(symbol)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Date{}, false, nil
		}
		return model.Date{}, false, err
	}
	if len(quotes) == 0 {
		return model.Date{}, false, nil
	}
	return quotes[len(quotes)-1].Date(), true, nil
}

// AppendQuotes appends quotes to symbol's file, creating it with the
// default header on first use. The master index is not touched.
func (db *DB) AppendQuotes(symbol string, quotes []model.Quote) error {
	if err := store.ValidateSymbol(symbol); err != nil {
		return err
	}
	return store.AppendQuotes(layout.Resolve(db.root, symbol), quotes)
}

// Columns returns symbol's quotes as one slice per field.
func (db *DB) Columns(symbol string) (saver.Columns, error) {
	quotes, err := db.ListQuotes(symbol)
	if err != nil {
		return saver.Columns{}, err
	}
	return saver.ColumnsFromQuotes(quotes), nil
}
