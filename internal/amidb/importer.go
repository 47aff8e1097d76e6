package amidb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"ami-data/internal/model"
	"ami-data/internal/store"
)

// ErrParse marks a CSV row that could not be turned into a quote. Such rows
// are skipped and counted, never returned from an import.
var ErrParse = errors.New("amidb: unparsable csv row")

// ImportStats counts the outcome of one CSV import.
type ImportStats struct {
	Imported int
	Skipped  int
}

// ImportCSV reads path and appends its rows to symbol, registering symbol in
// the in-memory index. Files ending in .gz or .zst are decompressed.
func (db *DB) ImportCSV(symbol, path string) (ImportStats, error) {
	rc, err := OpenCSV(path)
	if err != nil {
		return ImportStats{}, err
	}
	defer rc.Close()
	return db.ImportCSVReader(symbol, rc)
}

// ImportCSVReader is ImportCSV over an already open stream.
func (db *DB) ImportCSVReader(symbol string, r io.Reader) (ImportStats, error) {
	if err := store.ValidateSymbol(symbol); err != nil {
		return ImportStats{}, err
	}
	quotes, stats, err := ParseCSV(r, db.logger.With("symbol", symbol))
	if err != nil {
		return stats, err
	}
	if err := db.AddSymbol(symbol); err != nil {
		return stats, err
	}
	if err := db.AppendQuotes(symbol, quotes); err != nil {
		return stats, err
	}
	db.logger.Info("csv imported", "symbol", symbol, "imported", stats.Imported, "skipped", stats.Skipped)
	return stats, nil
}

// ParseCSV decodes daily quotes from r. The first row is a header and is
// ignored. Columns are positional:
//
//	Date,Open,High,Low,Close,Volume
//	Date,Open,High,Low,Close,<extra>,Volume
//
// Any other width, an unparsable date or an unparsable number skips the row.
// Only read errors of r are returned.
func ParseCSV(r io.Reader, logger *slog.Logger) ([]model.Quote, ImportStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var (
		quotes []model.Quote
		stats  ImportStats
		line   int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Skipped++
				logger.Debug("skip csv row", "line", line, "error", err)
				continue
			}
			return nil, stats, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 {
			continue
		}
		q, err := parseRow(rec)
		if err != nil {
			stats.Skipped++
			logger.Debug("skip csv row", "line", line, "error", err)
			continue
		}
		quotes = append(quotes, q)
	}
	stats.Imported = len(quotes)
	return quotes, stats, nil
}

func parseRow(rec []string) (model.Quote, error) {
	var volumeCol int
	switch len(rec) {
	case 6:
		volumeCol = 5
	case 7:
		volumeCol = 6
	default:
		return model.Quote{}, fmt.Errorf("%w: %d columns", ErrParse, len(rec))
	}
	d, err := model.ParseDate(rec[0])
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	var v [5]float32
	for i, col := range [5]int{1, 2, 3, 4, volumeCol} {
		f, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 32)
		if err != nil {
			return model.Quote{}, fmt.Errorf("%w: column %d: %w", ErrParse, col, err)
		}
		v[i] = float32(f)
	}
	return model.QuoteOnDate(d, v[0], v[1], v[2], v[3], v[4]), nil
}

// OpenCSV opens path for reading, decompressing by extension (.gz, .zst).
func OpenCSV(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	rc, err := Decompress(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	return rc, nil
}

// Decompress wraps rc according to the extension of name. Closing the result
// closes rc.
func Decompress(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	switch lower := strings.ToLower(name); {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", name, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", name, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	default:
		return rc, nil
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
