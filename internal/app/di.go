package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ami-data/internal/saver"
	"ami-data/internal/slogx"
	"ami-data/internal/source"
)

// ProvideConfig loads config from path and the environment (for Wire).
func ProvideConfig(path ConfigPath) (*Config, error) {
	return LoadConfig(string(path))
}

// ProvideLogger builds the process logger and installs it as slog's default (for Wire).
func ProvideLogger(cfg *Config) *slog.Logger {
	l := slogx.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(l)
	return l
}

// ProvideExporter creates the Exporter for cfg.ExportFormat (for Wire).
func ProvideExporter(cfg *Config) (saver.Exporter, error) {
	e := saver.NewExporter(cfg.ExportFormat)
	if e == nil {
		return nil, fmt.Errorf("unsupported EXPORT_FORMAT %q (use: %s)", cfg.ExportFormat, strings.Join(saver.Formats(), ", "))
	}
	return e, nil
}

// ProvideSource creates the quote Source named by cfg.Source (for Wire).
// The cleanup closes it.
func ProvideSource(cfg *Config, logger *slog.Logger) (source.Source, func(), error) {
	var (
		src source.Source
		err error
	)
	switch cfg.Source {
	case "dir":
		src = source.NewDirSource(cfg.SourceDir)
	case "http":
		src, err = source.NewHTTPSource(cfg.SourceURL, source.HTTPOptions{
			Timeout:     cfg.HTTPTimeout,
			Retries:     cfg.HTTPRetries,
			MinInterval: cfg.HTTPInterval,
		})
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unsupported SOURCE %q (use: dir, http)", cfg.Source)
	}
	logger.Debug("source ready", "source", src.Name())
	cleanup := func() {
		if err := src.Close(); err != nil {
			logger.Warn("close source", "error", err)
		}
	}
	return src, cleanup, nil
}
