package saver

import (
	"github.com/parquet-go/parquet-go"
)

// ParquetExporter writes bars as a single Parquet file.
type ParquetExporter struct{}

func (ParquetExporter) Extension() string { return "parquet" }

func (ParquetExporter) Save(rows []Bar, path string) error {
	return parquet.WriteFile(path, rows)
}
