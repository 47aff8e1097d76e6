// Command ami-mcp serves a database to tool-calling clients over stdio.
//
//	ami-mcp -db ./db
//
// Requests and responses are newline-delimited JSON-RPC 2.0. Logs go to
// stderr so stdout carries protocol traffic only.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	"ami-data/internal/amidb"
	"ami-data/internal/app"
	"ami-data/internal/toolserver"
)

func main() {
	configPath := flag.String("config", os.Getenv("AMI_CONFIG"), "optional YAML config file")
	root := flag.String("db", "", "database directory (default AMI_DB or ./db)")
	flag.Parse()

	cfg, err := app.ProvideConfig(app.ConfigPath(*configPath))
	if err != nil {
		app.Exit("failed to load config", err)
	}
	logger := app.ProvideLogger(cfg)

	dir := *root
	if dir == "" {
		dir = cfg.DBRoot
	}
	if dir == "" {
		dir = "./db"
	}
	db, err := amidb.Open(dir, amidb.WithLogger(logger))
	if err != nil {
		app.Exit("failed to open database", err)
	}
	logger.Info("serving", "db", dir, "symbols", len(db.ListSymbols()))

	ctx, stop := app.SignalContext(context.Background())
	defer stop()
	err = toolserver.New(db, logger).Serve(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		app.Exit("serve failed", err)
	}
	slog.Info("bye")
}
