package amidb

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"ami-data/internal/model"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2020-01-02,100.0,105.0,99.0,102.0,1000
2020-01-03,102.0,104.0,101.0,103.5,1200
`

func TestParseCSV(t *testing.T) {
	quotes, stats, err := ParseCSV(strings.NewReader(sampleCSV), nil)
	require.NoError(t, err)
	require.Equal(t, ImportStats{Imported: 2}, stats)
	require.Equal(t, model.Quote{
		Timestamp: model.Timestamp{Year: 2020, Month: 1, Day: 2},
		Open:      100,
		High:      105,
		Low:       99,
		Close:     102,
		Volume:    1000,
	}, quotes[0])
}

func TestParseCSVRowShapes(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		ok      bool
		volume  float32
		closeAt float32
	}{
		{"six columns", "2020-01-02,1,2,0.5,1.5,700", true, 700, 1.5},
		{"adj close before volume", "2020-01-02,1,2,0.5,1.5,1.4,800", true, 800, 1.5},
		{"five columns", "2020-01-02,1,2,0.5,1.5", false, 0, 0},
		{"eight columns", "2020-01-02,1,2,0.5,1.5,1.4,800,9", false, 0, 0},
		{"bad date", "01/02/2020,1,2,0.5,1.5,700", false, 0, 0},
		{"bad month", "2020-13-02,1,2,0.5,1.5,700", true, 700, 1.5},
		{"month overflow", "2020-16-02,1,2,0.5,1.5,700", false, 0, 0},
		{"bad number", "2020-01-02,1,x,0.5,1.5,700", false, 0, 0},
		{"null volume", "2020-01-02,1,2,0.5,1.5,null", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, stats, err := ParseCSV(strings.NewReader("h\n"+tt.row+"\n"), nil)
			require.NoError(t, err)
			if !tt.ok {
				require.Empty(t, quotes)
				require.Equal(t, 1, stats.Skipped)
				return
			}
			require.Len(t, quotes, 1)
			require.Equal(t, tt.volume, quotes[0].Volume)
			require.Equal(t, tt.closeAt, quotes[0].Close)
		})
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	quotes, stats, err := ParseCSV(strings.NewReader("Date,Open,High,Low,Close,Volume\n"), nil)
	require.NoError(t, err)
	require.Empty(t, quotes)
	require.Zero(t, stats.Skipped)
}

func TestImportCSV(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "aapl.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"garbage\n"), 0644))

	db, err := Open(root)
	require.NoError(t, err)
	stats, err := db.ImportCSV("AAPL", path)
	require.NoError(t, err)
	require.Equal(t, ImportStats{Imported: 2, Skipped: 1}, stats)
	require.True(t, db.HasSymbol("AAPL"))

	quotes, err := db.ListQuotes("AAPL")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, float32(103.5), quotes[1].Close)
}

func TestImportCSVMissingFile(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	_, err = db.ImportCSV("AAPL", filepath.Join(t.TempDir(), "none.csv"))
	require.Error(t, err)
	require.False(t, db.HasSymbol("AAPL"))
}

func TestImportCompressedCSV(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv.gz"), gz.Bytes(), 0644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(sampleCSV), nil)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv.zst"), zst, 0644))

	for _, name := range []string{"a.csv.gz", "a.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			db, err := Open(t.TempDir())
			require.NoError(t, err)
			stats, err := db.ImportCSV("A", filepath.Join(dir, name))
			require.NoError(t, err)
			require.Equal(t, 2, stats.Imported)
		})
	}
}
