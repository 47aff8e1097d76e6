package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/require"

	"ami-data/internal/model"
)

func run(t *testing.T, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var out bytes.Buffer
	e := &env{out: &out}
	fs := flag.NewFlagSet("amidb", flag.ContinueOnError)
	require.NoError(t, fs.Parse(args))
	cmdr := subcommands.NewCommander(fs, "amidb")
	cmdr.Output = &out
	cmdr.Error = &out
	register(cmdr, e)
	return cmdr.Execute(context.Background()), out.String()
}

func setup(t *testing.T) {
	t.Helper()
	for _, k := range []string{"AMI_DB", "LOG_LEVEL", "LOG_FORMAT", "EXPORT_FORMAT", "EXPORT_DIR", "PROFILE",
		"SOURCE", "SOURCE_DIR", "SOURCE_URL", "PG_DSN", "PG_TABLE", "HTTP_TIMEOUT", "HTTP_RETRIES", "HTTP_MIN_INTERVAL", "UPDATE_AT"} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func TestParseRange(t *testing.T) {
	start, end, err := parseRange([]string{"start", "2020-01-01", "end", "2020-06-15"})
	require.NoError(t, err)
	require.Equal(t, model.Date{Year: 2020, Month: 1, Day: 1}, *start)
	require.Equal(t, model.Date{Year: 2020, Month: 6, Day: 15}, *end)

	start, end, err = parseRange([]string{"end", "2021-01-01"})
	require.NoError(t, err)
	require.Nil(t, start)
	require.NotNil(t, end)

	start, end, err = parseRange(nil)
	require.NoError(t, err)
	require.Nil(t, start)
	require.Nil(t, end)

	for _, bad := range [][]string{{"start"}, {"from", "2020-01-01"}, {"start", "yesterday"}} {
		_, _, err := parseRange(bad)
		require.Error(t, err, bad)
	}
}

func TestCLIRoundTrip(t *testing.T) {
	setup(t)
	root := filepath.Join(t.TempDir(), "db")
	csvPath := filepath.Join(t.TempDir(), "spy.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Date,Open,High,Low,Close,Adj Close,Volume\n"+
			"2020-01-01,1,2,0.5,1.5,1.4,100\n"+
			"2020-06-15,2,3,1.5,2.5,2.4,200\n"+
			"2021-01-01,3,4,2.5,3.5,3.4,300\n"), 0644))

	status, _ := run(t, "create", root, "AAPL")
	require.Equal(t, subcommands.ExitSuccess, status)

	status, out := run(t, "get_last_time_stamp", root, "AAPL")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "no data\n", out)

	status, out = run(t, "add-quotes", root, "SPY", csvPath)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "imported 3, skipped 0\n", out)

	status, out = run(t, "list-symbols", root)
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "AAPL\nSPY\n", out)

	status, out = run(t, "list-quotes", root, "SPY", "start", "2020-02-01", "end", "2020-12-31")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "2020-06-15,2,3,1.5,2.5,200\n", out)

	status, out = run(t, "get_last_time_stamp", root, "SPY")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Equal(t, "2021-01-01\n", out)

	status, out = run(t, "columns", root, "SPY")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.JSONEq(t, `{"Day":[1,15,1],"Month":[1,6,1],"Year":[2020,2020,2021],
		"Open":[1,2,3],"High":[2,3,4],"Low":[0.5,1.5,2.5],"Close":[1.5,2.5,3.5],"Volume":[100,200,300]}`, out)

	exportDir := filepath.Join(t.TempDir(), "out")
	status, _ = run(t, "export", "-format", "csv", "-out", exportDir, root, "SPY")
	require.Equal(t, subcommands.ExitSuccess, status)
	data, err := os.ReadFile(filepath.Join(exportDir, "SPY.csv"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "Date,Open,High,Low,Close,Volume\n2020-01-01,1,2,0.5,1.5,100\n"))
}

func TestCLIUsageErrors(t *testing.T) {
	setup(t)
	for _, args := range [][]string{
		{"create", "only-db"},
		{"list-symbols"},
		{"list-quotes", "db", "SPY", "start"},
		{"add-quotes", "db", "SPY"},
	} {
		status, _ := run(t, args...)
		require.Equal(t, subcommands.ExitUsageError, status, args)
	}
}

func TestCLIListQuotesMissingSymbol(t *testing.T) {
	setup(t)
	root := t.TempDir()
	status, _ := run(t, "list-quotes", root, "NONE")
	require.Equal(t, subcommands.ExitFailure, status)
}
