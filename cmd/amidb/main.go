package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/google/subcommands"

	"ami-data/internal/app"
	"ami-data/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

// env is shared by all commands: the -config flag and the output stream.
type env struct {
	configPath string
	out        io.Writer
	app        *App
}

// App loads configuration on first use.
func (e *env) App() (*App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := InitializeApp(app.ConfigPath(e.configPath))
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

func register(cmdr *subcommands.Commander, e *env) {
	cmdr.Register(cmdr.HelpCommand(), "")
	cmdr.Register(cmdr.FlagsCommand(), "")
	cmdr.Register(cmdr.CommandsCommand(), "")

	cmdr.Register(&createCmd{env: e}, "database")
	cmdr.Register(&addSymbolCmd{env: e}, "database")
	cmdr.Register(&listSymbolsCmd{env: e}, "database")
	cmdr.Register(&lastTimestampCmd{env: e}, "database")
	cmdr.Register(&listQuotesCmd{env: e}, "database")
	cmdr.Register(&addQuotesCmd{env: e}, "database")

	cmdr.Register(&exportCmd{env: e}, "export")
	cmdr.Register(&exportPGCmd{env: e}, "export")
	cmdr.Register(&columnsCmd{env: e}, "export")

	cmdr.Register(&updateCmd{env: e}, "update")
	cmdr.Register(&versionCmd{env: e}, "")
}

func main() {
	e := &env{out: os.Stdout, configPath: os.Getenv("AMI_CONFIG")}
	flag.StringVar(&e.configPath, "config", e.configPath, "optional YAML config file (env AMI_CONFIG)")
	flag.Parse()

	cmdr := subcommands.NewCommander(flag.CommandLine, os.Args[0])
	register(cmdr, e)

	ctx, stop := app.SignalContext(context.Background())
	status := cmdr.Execute(ctx)
	stop()
	os.Exit(int(status))
}
