package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"ami-data/internal/amidb"
	"ami-data/internal/app"
	"ami-data/internal/source"
	"ami-data/internal/update"
)

type updateCmd struct {
	*env
	file   string
	daemon bool
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "append newer quotes from the configured source" }
func (*updateCmd) Usage() string {
	return "update [-file list.txt] [-daemon] <db> [symbol ...]\n" +
		"Source is chosen by SOURCE (dir|http) with SOURCE_DIR or SOURCE_URL.\n" +
		"Updates every registered symbol when none is given.\n"
}
func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "read symbols from a .txt or .json file")
	f.BoolVar(&c.daemon, "daemon", false, "keep running and repeat daily at UPDATE_AT (UTC)")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		return usageError(f)
	}
	u, cleanup, err := InitializeUpdater(app.ConfigPath(c.configPath))
	if err != nil {
		return fail("initialize updater", err)
	}
	defer cleanup()

	symbols := f.Args()[1:]
	if c.file != "" {
		fromFile, err := source.LoadSymbols(c.file)
		if err != nil {
			return fail("load symbol list", err)
		}
		symbols = append(symbols, fromFile...)
	}

	root := f.Arg(0)
	run := func(ctx context.Context) error {
		// reopen so each run sees symbols registered since the last one
		db, err := amidb.Open(root, amidb.WithLogger(u.Logger))
		if err != nil {
			return err
		}
		_, err = update.Run(ctx, db, u.Source, symbols, u.Logger)
		return err
	}

	if !c.daemon {
		if err := run(ctx); err != nil {
			return fail("update", err)
		}
		return subcommands.ExitSuccess
	}
	hour, minute, err := u.Config.UpdateClock()
	if err != nil {
		return fail("update schedule", err)
	}
	if err := app.RunDaily(ctx, hour, minute, run); err != nil && ctx.Err() == nil {
		return fail("update", err)
	}
	return subcommands.ExitSuccess
}
