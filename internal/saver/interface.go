package saver

import "strings"

// Exporter writes one symbol's quotes to a file in a single format.
// Callers pick the path; Extension gives the suffix to use.
type Exporter interface {
	Save(rows []Bar, path string) error
	Extension() string
}

// NewExporter returns the exporter for format (csv, json, parquet).
// Returns nil if format is not supported.
func NewExporter(format string) Exporter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVExporter{}
	case "json":
		return JSONExporter{}
	case "parquet":
		return ParquetExporter{}
	default:
		return nil
	}
}

// Formats lists the names NewExporter accepts.
func Formats() []string { return []string{"csv", "json", "parquet"} }
