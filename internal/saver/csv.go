package saver

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVExporter writes a header row followed by one line per bar
// (date,open,high,low,close,volume).
type CSVExporter struct{}

func (CSVExporter) Extension() string { return "csv" }

func (CSVExporter) Save(rows []Bar, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)

	if err := w.Write([]string{"Date", "Open", "High", "Low", "Close", "Volume"}); err != nil {
		return err
	}
	for _, b := range rows {
		if err := w.Write([]string{
			b.Date,
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
		}); err != nil {
			return fmt.Errorf("write %s: %w", b.Date, err)
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float32) string { return strconv.FormatFloat(float64(f), 'f', -1, 32) }
