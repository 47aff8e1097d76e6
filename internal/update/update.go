// Package update appends newer quotes from a Source to an existing database.
//
// For every symbol the last stored date is looked up, the source CSV is
// fetched and only rows dated after it are appended. A run ends with one
// master write and a .lastrun.json report under the database root.
package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ami-data/internal/amidb"
	"ami-data/internal/model"
	"ami-data/internal/slogx"
	"ami-data/internal/source"
)

// Job is one symbol to refresh. After is nil when the symbol has no data yet.
type Job struct {
	Symbol string
	After  *model.Date
}

// Plan builds jobs for symbols, reading each symbol's last stored date.
// Symbols whose data file cannot be read are returned as failures.
func Plan(db *amidb.DB, symbols []string) ([]Job, []FailedEntry) {
	var failed []FailedEntry
	jobs := make([]Job, 0, len(symbols))
	for _, s := range symbols {
		last, ok, err := db.LastTimestamp(s)
		if err != nil {
			failed = append(failed, FailedEntry{Symbol: s, Reason: fmt.Sprintf("last timestamp: %v", err)})
			continue
		}
		j := Job{Symbol: s}
		if ok {
			j.After = &last
		}
		jobs = append(jobs, j)
	}
	return jobs, failed
}

// NewerThan keeps the quotes dated strictly after after. Nil keeps all.
func NewerThan(quotes []model.Quote, after *model.Date) []model.Quote {
	if after == nil {
		return quotes
	}
	out := make([]model.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Date().After(*after) {
			out = append(out, q)
		}
	}
	return out
}

// Run refreshes symbols (all registered symbols when empty) from src.
// Per-symbol failures land in the report; only cancellation and errors
// persisting the database are returned.
func Run(ctx context.Context, db *amidb.DB, src source.Source, symbols []string, logger *slog.Logger) (Report, error) {
	logger = slogx.OrDefault(logger)
	if len(symbols) == 0 {
		symbols = db.ListSymbols()
	}
	report := Report{RunID: uuid.New(), Source: src.Name(), Started: time.Now().UTC()}
	logger = logger.With("run_id", report.RunID.String())

	jobs, failed := Plan(db, symbols)
	for _, f := range failed {
		logger.Error("update fail", "symbol", f.Symbol, "error", f.Reason)
	}
	report.Failed = failed
	logger.Info("update start", "source", src.Name(), "symbols", len(jobs), "unreadable", len(failed))

	var runErr error
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			logger.Warn("update interrupted", "done", i, "total", len(jobs))
			runErr = err
			break
		}
		n, err := runJob(ctx, db, src, j, logger)
		switch {
		case errors.Is(err, source.ErrNoData):
			logger.Info("no data", "symbol", j.Symbol)
			report.Skipped = append(report.Skipped, j.Symbol)
		case err != nil:
			logger.Error("update fail", "symbol", j.Symbol, "error", err)
			report.Failed = append(report.Failed, FailedEntry{Symbol: j.Symbol, Reason: err.Error()})
		default:
			logger.Info("update ok", "symbol", j.Symbol, "appended", n, "progress", fmt.Sprintf("%d/%d", i+1, len(jobs)))
			report.Success = append(report.Success, SymbolResult{Symbol: j.Symbol, Appended: n})
		}
	}

	if err := db.WriteDatabase(); err != nil {
		return report, fmt.Errorf("write database: %w", err)
	}
	report.Finished = time.Now().UTC()
	if err := writeRunReport(db.Root(), report); err != nil {
		logger.Warn("could not write run report", "error", err)
	}
	logger.Info("update done", "success", len(report.Success), "skipped", len(report.Skipped), "failed", len(report.Failed))
	if len(report.Failed) > 0 {
		logger.Info("summary failed", "count", len(report.Failed), "reasons", joinFailedReasons(report.Failed))
	}
	return report, runErr
}

func runJob(ctx context.Context, db *amidb.DB, src source.Source, j Job, logger *slog.Logger) (int, error) {
	rc, err := src.Fetch(ctx, j.Symbol)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	quotes, stats, err := amidb.ParseCSV(rc, logger.With("symbol", j.Symbol))
	if err != nil {
		return 0, err
	}
	fresh := NewerThan(quotes, j.After)
	logger.Debug("parsed", "symbol", j.Symbol, "rows", stats.Imported, "skipped", stats.Skipped, "new", len(fresh))
	if len(fresh) == 0 {
		return 0, nil
	}
	if err := db.AddSymbol(j.Symbol); err != nil {
		return 0, err
	}
	if err := db.AppendQuotes(j.Symbol, fresh); err != nil {
		return 0, err
	}
	return len(fresh), nil
}
