// Package source provides CSV quote feeds for the incremental updater.
//
// A Source returns the raw CSV stream for one symbol, in the layout accepted
// by amidb.ParseCSV. Filtering by date is the caller's job.
package source

import (
	"context"
	"errors"
	"io"
)

// ErrNoData is returned when a source has nothing for the requested symbol.
var ErrNoData = errors.New("source: no data for symbol")

// Source is the abstraction the updater depends on.
// Implementations own their connections and release them in Close.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (io.ReadCloser, error)
	Close() error
}
