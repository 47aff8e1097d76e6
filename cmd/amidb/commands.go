package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/google/subcommands"

	"ami-data/internal/amidb"
	"ami-data/internal/model"
	"ami-data/internal/source"
	"ami-data/internal/version"
)

// openDB loads configuration and opens root with the configured logger.
func (e *env) openDB(root string) (*App, *amidb.DB, error) {
	a, err := e.App()
	if err != nil {
		return nil, nil, err
	}
	db, err := amidb.Open(root, amidb.WithLogger(a.Logger))
	if err != nil {
		return nil, nil, err
	}
	return a, db, nil
}

func fail(msg string, err error) subcommands.ExitStatus {
	slog.Error(msg, "error", err)
	return subcommands.ExitFailure
}

func usageError(f *flag.FlagSet) subcommands.ExitStatus {
	f.Usage()
	return subcommands.ExitUsageError
}

type createCmd struct{ *env }

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a database and register symbols" }
func (*createCmd) Usage() string {
	return "create <db> <symbol> [symbol ...]\n"
}
func (*createCmd) SetFlags(*flag.FlagSet) {}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		return usageError(f)
	}
	return addSymbols(c.env, f.Arg(0), f.Args()[1:])
}

type addSymbolCmd struct {
	*env
	file string
}

func (*addSymbolCmd) Name() string     { return "add-symbol" }
func (*addSymbolCmd) Synopsis() string { return "register symbols in an existing database" }
func (*addSymbolCmd) Usage() string {
	return "add-symbol [-file list.txt] <db> [symbol ...]\n"
}
func (c *addSymbolCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "read symbols from a .txt (one per line) or .json file")
}

func (c *addSymbolCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return usageError(f)
	}
	symbols := f.Args()[1:]
	if c.file != "" {
		fromFile, err := source.LoadSymbols(c.file)
		if err != nil {
			return fail("load symbol list", err)
		}
		symbols = append(symbols, fromFile...)
	}
	if len(symbols) == 0 {
		return usageError(f)
	}
	return addSymbols(c.env, f.Arg(0), symbols)
}

func addSymbols(e *env, root string, symbols []string) subcommands.ExitStatus {
	_, db, err := e.openDB(root)
	if err != nil {
		return fail("open database", err)
	}
	for _, s := range symbols {
		if err := db.AddSymbol(s); err != nil {
			return fail("add symbol", err)
		}
	}
	if err := db.WriteDatabase(); err != nil {
		return fail("write database", err)
	}
	slog.Info("symbols registered", "db", root, "count", len(db.ListSymbols()))
	return subcommands.ExitSuccess
}

type listSymbolsCmd struct{ *env }

func (*listSymbolsCmd) Name() string           { return "list-symbols" }
func (*listSymbolsCmd) Synopsis() string       { return "print registered symbols, one per line" }
func (*listSymbolsCmd) Usage() string          { return "list-symbols <db>\n" }
func (*listSymbolsCmd) SetFlags(*flag.FlagSet) {}

func (c *listSymbolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(f)
	}
	_, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	for _, s := range db.ListSymbols() {
		fmt.Fprintln(c.out, s)
	}
	return subcommands.ExitSuccess
}

type lastTimestampCmd struct{ *env }

func (*lastTimestampCmd) Name() string           { return "get_last_time_stamp" }
func (*lastTimestampCmd) Synopsis() string       { return "print the date of a symbol's last record" }
func (*lastTimestampCmd) Usage() string          { return "get_last_time_stamp <db> <symbol>\n" }
func (*lastTimestampCmd) SetFlags(*flag.FlagSet) {}

func (c *lastTimestampCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return usageError(f)
	}
	_, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	d, ok, err := db.LastTimestamp(f.Arg(1))
	if err != nil {
		return fail("read symbol", err)
	}
	if !ok {
		fmt.Fprintln(c.out, "no data")
		return subcommands.ExitSuccess
	}
	fmt.Fprintln(c.out, d.String())
	return subcommands.ExitSuccess
}

type listQuotesCmd struct{ *env }

func (*listQuotesCmd) Name() string     { return "list-quotes" }
func (*listQuotesCmd) Synopsis() string { return "print a symbol's quotes as CSV lines" }
func (*listQuotesCmd) Usage() string {
	return "list-quotes <db> <symbol> [start YYYY-MM-DD] [end YYYY-MM-DD]\n"
}
func (*listQuotesCmd) SetFlags(*flag.FlagSet) {}

func (c *listQuotesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		return usageError(f)
	}
	start, end, err := parseRange(f.Args()[2:])
	if err != nil {
		slog.Error("bad range", "error", err)
		return usageError(f)
	}
	_, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	quotes, err := db.ListQuotesInRange(f.Arg(1), start, end)
	if err != nil {
		if errors.Is(err, amidb.ErrNotFound) {
			return fail("no data file for symbol", err)
		}
		return fail("read symbol", err)
	}
	if err := writeQuoteLines(c.out, quotes); err != nil {
		return fail("write output", err)
	}
	return subcommands.ExitSuccess
}

// parseRange reads "start D" and "end D" keyword pairs, in any order.
func parseRange(args []string) (start, end *model.Date, err error) {
	if len(args)%2 != 0 {
		return nil, nil, fmt.Errorf("range arguments come in pairs, got %d", len(args))
	}
	for i := 0; i < len(args); i += 2 {
		d, err := model.ParseDate(args[i+1])
		if err != nil {
			return nil, nil, err
		}
		switch args[i] {
		case "start":
			start = &d
		case "end":
			end = &d
		default:
			return nil, nil, fmt.Errorf("unknown range keyword %q", args[i])
		}
	}
	return start, end, nil
}

func writeQuoteLines(w io.Writer, quotes []model.Quote) error {
	for _, q := range quotes {
		if _, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s\n", q.Date(),
			fmtFloat(q.Open), fmtFloat(q.High), fmtFloat(q.Low), fmtFloat(q.Close), fmtFloat(q.Volume)); err != nil {
			return err
		}
	}
	return nil
}

func fmtFloat(f float32) string { return strconv.FormatFloat(float64(f), 'f', -1, 32) }

type addQuotesCmd struct{ *env }

func (*addQuotesCmd) Name() string     { return "add-quotes" }
func (*addQuotesCmd) Synopsis() string { return "import a CSV file (.csv, .csv.gz, .csv.zst) into a symbol" }
func (*addQuotesCmd) Usage() string {
	return "add-quotes <db> <symbol> <file.csv>\n"
}
func (*addQuotesCmd) SetFlags(*flag.FlagSet) {}

func (c *addQuotesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		return usageError(f)
	}
	_, db, err := c.openDB(f.Arg(0))
	if err != nil {
		return fail("open database", err)
	}
	stats, err := db.ImportCSV(f.Arg(1), f.Arg(2))
	if err != nil {
		return fail("import csv", err)
	}
	if err := db.WriteDatabase(); err != nil {
		return fail("write database", err)
	}
	fmt.Fprintf(c.out, "imported %d, skipped %d\n", stats.Imported, stats.Skipped)
	return subcommands.ExitSuccess
}

type versionCmd struct{ *env }

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print build information" }
func (*versionCmd) Usage() string          { return "version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (c *versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(c.out, version.String())
	return subcommands.ExitSuccess
}
