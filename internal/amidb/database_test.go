package amidb

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ami-data/internal/model"
	"ami-data/internal/store"
)

func date(y uint16, m, d uint8) model.Date { return model.Date{Year: y, Month: m, Day: d} }

func quoteOn(d model.Date, close float32) model.Quote {
	return model.QuoteOnDate(d, close-1, close+1, close-2, close, 100)
}

func TestEmptyDatabase(t *testing.T) {
	root := filepath.Join(t.TempDir(), "db")
	db, err := Open(root)
	require.NoError(t, err)
	require.Empty(t, db.ListSymbols())

	_, err = os.Stat(filepath.Join(root, "broker.master"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = db.ListQuotes("AAPL")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWritesMaster(t *testing.T) {
	root := t.TempDir()
	_, err := Create(root)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "broker.master"))
	require.NoError(t, err)
	require.Len(t, data, 12)
}

func TestAddSymbolAndReopen(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)

	require.NoError(t, db.AddSymbol("AAPL"))
	require.NoError(t, db.AddSymbol("^GSPC"))
	require.NoError(t, db.AddSymbol("AAPL"))
	require.Equal(t, []string{"AAPL", "^GSPC"}, db.ListSymbols())
	require.True(t, db.HasSymbol("^GSPC"))

	reopened, err := Open(root)
	require.NoError(t, err)
	require.Empty(t, reopened.ListSymbols(), "nothing persisted before WriteDatabase")

	require.NoError(t, db.WriteDatabase())
	reopened, err = Open(root)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL", "^GSPC"}, reopened.ListSymbols())

	_, err = os.Stat(filepath.Join(root, "a", "AAPL"))
	require.ErrorIs(t, err, fs.ErrNotExist, "registration does not create the data file")
}

func TestWriteDatabaseIdempotent(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)
	require.NoError(t, db.AddSymbol("MSFT"))

	require.NoError(t, db.WriteDatabase())
	first, err := os.ReadFile(filepath.Join(root, "broker.master"))
	require.NoError(t, err)
	require.NoError(t, db.WriteDatabase())
	second, err := os.ReadFile(filepath.Join(root, "broker.master"))
	require.NoError(t, err)
	require.True(t, bytes.Equal(first, second))
}

func TestAppendAndList(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	require.NoError(t, err)

	quotes := []model.Quote{quoteOn(date(2020, 1, 1), 10), quoteOn(date(2020, 1, 2), 11)}
	require.NoError(t, db.AppendQuotes("^GSPC", quotes))

	info, err := os.Stat(filepath.Join(root, "_", "^GSPC"))
	require.NoError(t, err)
	require.Equal(t, int64(store.HeaderSize+2*40), info.Size())

	got, err := db.ListQuotes("^GSPC")
	require.NoError(t, err)
	require.Equal(t, quotes, got)
}

func TestListQuotesInRange(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.AppendQuotes("SPY", []model.Quote{
		quoteOn(date(2020, 1, 1), 1),
		quoteOn(date(2020, 6, 15), 2),
		quoteOn(date(2021, 1, 1), 3),
	}))

	start, end := date(2020, 2, 1), date(2020, 12, 31)
	tests := []struct {
		name       string
		start, end *model.Date
		want       []float32
	}{
		{"bounded", &start, &end, []float32{2}},
		{"open start", nil, &end, []float32{1, 2}},
		{"open end", &start, nil, []float32{2, 3}},
		{"unbounded", nil, nil, []float32{1, 2, 3}},
		{"inclusive", ptr(date(2020, 1, 1)), ptr(date(2020, 6, 15)), []float32{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.ListQuotesInRange("SPY", tt.start, tt.end)
			require.NoError(t, err)
			closes := make([]float32, 0, len(got))
			for _, q := range got {
				closes = append(closes, q.Close)
			}
			require.Equal(t, tt.want, closes)
		})
	}
}

func ptr(d model.Date) *model.Date { return &d }

func TestLastTimestamp(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok, err := db.LastTimestamp("NONE")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.AppendQuotes("ABC", []model.Quote{
		quoteOn(date(2020, 1, 5), 1),
		quoteOn(date(2020, 1, 3), 2),
	}))
	last, ok, err := db.LastTimestamp("ABC")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, date(2020, 1, 3), last, "last physically written, not the maximum")

	require.NoError(t, db.AppendQuotes("EMPTY", nil))
	_, ok, err = db.LastTimestamp("EMPTY")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestColumns(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, db.AppendQuotes("XYZ", []model.Quote{quoteOn(date(2019, 12, 31), 5)}))

	c, err := db.Columns("XYZ")
	require.NoError(t, err)
	require.Equal(t, []int{31}, c.Day)
	require.Equal(t, []int{12}, c.Month)
	require.Equal(t, []int{2019}, c.Year)
	require.Equal(t, []float32{5}, c.Close)

	_, err = db.Columns("MISSING")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMasterNameIsReserved(t *testing.T) {
	root := t.TempDir()
	db, err := Create(root)
	require.NoError(t, err)
	require.NoError(t, db.AddSymbol("AAPL"))
	require.NoError(t, db.WriteDatabase())
	before, err := os.ReadFile(filepath.Join(root, "broker.master"))
	require.NoError(t, err)

	q := []model.Quote{quoteOn(date(2020, 1, 2), 10)}
	for _, name := range []string{"broker.master", "BROKER.MASTER"} {
		require.ErrorIs(t, db.AddSymbol(name), ErrSymbolName)
		require.ErrorIs(t, db.AppendQuotes(name, q), ErrSymbolName)
		_, err := db.ImportCSVReader(name, bytes.NewBufferString("Date,Open,High,Low,Close,Volume\n2020-01-02,1,2,0,1,5\n"))
		require.ErrorIs(t, err, ErrSymbolName)
		_, err = db.ListQuotes(name)
		require.ErrorIs(t, err, ErrSymbolName)
	}

	after, err := os.ReadFile(filepath.Join(root, "broker.master"))
	require.NoError(t, err)
	require.Equal(t, before, after)

	reopened, err := Open(root)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, reopened.ListSymbols())
}

func TestSymbolCannotLeaveRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "db")
	db, err := Open(root)
	require.NoError(t, err)

	secret := make([]byte, store.HeaderSize+80)
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret"), secret, 0644))

	q := []model.Quote{quoteOn(date(2020, 1, 2), 10)}
	for _, name := range []string{"../escaped", `..\escaped`, "a/b", ".", ".."} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, db.AppendQuotes(name, q), ErrSymbolName)
			require.ErrorIs(t, db.AddSymbol(name), ErrSymbolName)
		})
	}
	_, err = os.Stat(filepath.Join(parent, "escaped"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = db.ListQuotes("../secret")
	require.ErrorIs(t, err, ErrSymbolName)
	_, _, err = db.LastTimestamp("../secret")
	require.ErrorIs(t, err, ErrSymbolName)

	require.NoError(t, db.AppendQuotes("BRK.B", q), "dots inside a name are fine")
}
