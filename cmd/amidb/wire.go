//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"ami-data/internal/app"
	"ami-data/internal/saver"
	"ami-data/internal/source"

	"github.com/google/wire"
)

// App holds the dependencies shared by every command.
type App struct {
	Config   *app.Config
	Logger   *slog.Logger
	Exporter saver.Exporter
}

// Updater holds what the update command needs on top of the config.
type Updater struct {
	Config *app.Config
	Logger *slog.Logger
	Source source.Source
}

// InitializeApp builds App from the config file at path and the environment.
func InitializeApp(path app.ConfigPath) (*App, error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideExporter,
		wire.Struct(new(App), "Config", "Logger", "Exporter"),
	)
	return nil, nil
}

// InitializeUpdater builds Updater. Caller must call cleanup when done.
func InitializeUpdater(path app.ConfigPath) (*Updater, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideSource,
		wire.Struct(new(Updater), "Config", "Logger", "Source"),
	)
	return nil, nil, nil
}
