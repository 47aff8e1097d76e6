package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"ami-data/internal/amidb"
	"ami-data/internal/pgsink"
	"ami-data/internal/saver"
)

type exportCmd struct {
	*env
	format string
	dir    string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write symbols to csv, json or parquet files" }
func (*exportCmd) Usage() string {
	return "export [-format csv|json|parquet] [-out dir] <db> [symbol ...]\n" +
		"Exports every registered symbol when none is given.\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "export format (default EXPORT_FORMAT or by PROFILE)")
	f.StringVar(&c.dir, "out", "", "output directory (default EXPORT_DIR)")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return usageError(f)
	}
	a, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	exp := a.Exporter
	if c.format != "" {
		if exp = saver.NewExporter(c.format); exp == nil {
			slog.Error("unsupported format", "format", c.format, "allowed", strings.Join(saver.Formats(), ", "))
			return subcommands.ExitUsageError
		}
	}
	dir := a.Config.ExportDir
	if c.dir != "" {
		dir = c.dir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail("create export dir", err)
	}

	var failed int
	for _, s := range symbolsOrAll(db, f.Args()[1:]) {
		if ctx.Err() != nil {
			return fail("export interrupted", ctx.Err())
		}
		quotes, err := db.ListQuotes(s)
		if err != nil {
			slog.Warn("skip symbol", "symbol", s, "error", err)
			failed++
			continue
		}
		path := filepath.Join(dir, s+"."+exp.Extension())
		if err := exp.Save(saver.FromQuotes(quotes), path); err != nil {
			slog.Error("export fail", "symbol", s, "path", path, "error", err)
			failed++
			continue
		}
		slog.Info("export ok", "symbol", s, "path", path, "rows", len(quotes))
	}
	if failed > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func symbolsOrAll(db *amidb.DB, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return db.ListSymbols()
}

type exportPGCmd struct {
	*env
	dsn   string
	table string
}

func (*exportPGCmd) Name() string     { return "export-pg" }
func (*exportPGCmd) Synopsis() string { return "copy symbols into a PostgreSQL table" }
func (*exportPGCmd) Usage() string {
	return "export-pg [-dsn postgres://...] [-table quotes] <db> [symbol ...]\n"
}
func (c *exportPGCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "dsn", "", "connection string (default PG_DSN)")
	f.StringVar(&c.table, "table", "", "target table (default PG_TABLE or quotes)")
}

func (c *exportPGCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return usageError(f)
	}
	a, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	dsn := firstNonEmpty(c.dsn, a.Config.PGDSN)
	if dsn == "" {
		slog.Error("no connection string: pass -dsn or set PG_DSN")
		return subcommands.ExitUsageError
	}
	pool, err := pgsink.Connect(ctx, dsn)
	if err != nil {
		return fail("connect postgres", err)
	}
	defer pool.Close()

	sink := pgsink.New(pool, firstNonEmpty(c.table, a.Config.PGTable), a.Logger)
	if err := sink.EnsureTable(ctx); err != nil {
		return fail("ensure table", err)
	}
	for _, s := range symbolsOrAll(db, f.Args()[1:]) {
		quotes, err := db.ListQuotes(s)
		if err != nil {
			slog.Warn("skip symbol", "symbol", s, "error", err)
			continue
		}
		n, err := sink.Write(ctx, s, quotes)
		if err != nil {
			return fail("write quotes", err)
		}
		slog.Info("export ok", "symbol", s, "rows", len(quotes), "inserted", n)
	}
	return subcommands.ExitSuccess
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type columnsCmd struct{ *env }

func (*columnsCmd) Name() string           { return "columns" }
func (*columnsCmd) Synopsis() string       { return "print a symbol as a JSON object of columns" }
func (*columnsCmd) Usage() string          { return "columns <db> <symbol>\n" }
func (*columnsCmd) SetFlags(*flag.FlagSet) {}

func (c *columnsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError(f)
	}
	_, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	cols, err := db.Columns(f.Arg(1))
	if err != nil {
		return fail("read symbol", err)
	}
	if err := json.NewEncoder(c.out).Encode(cols); err != nil {
		return fail("write output", err)
	}
	return subcommands.ExitSuccess
}
