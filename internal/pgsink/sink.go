package pgsink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ami-data/internal/model"
	"ami-data/internal/slogx"
)

// DefaultTable is the table Write targets unless configured otherwise.
const DefaultTable = "quotes"

// DefaultBatchSize bounds the number of rows queued per round trip.
const DefaultBatchSize = 1000

// Connect creates a connection pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Row is one quote as stored in the table.
type Row struct {
	Symbol string
	TS     time.Time
	Open   float32
	High   float32
	Low    float32
	Close  float32
	Volume float32
}

// Rows converts quotes of symbol to table rows.
func Rows(symbol string, quotes []model.Quote) []Row {
	rows := make([]Row, len(quotes))
	for i, q := range quotes {
		rows[i] = Row{
			Symbol: symbol,
			TS:     QuoteTime(q.Timestamp),
			Open:   q.Open,
			High:   q.High,
			Low:    q.Low,
			Close:  q.Close,
			Volume: q.Volume,
		}
	}
	return rows
}

// QuoteTime converts a packed timestamp to UTC. Milli and micro fields become
// nanoseconds; out-of-calendar values are normalised by time.Date.
func QuoteTime(ts model.Timestamp) time.Time {
	return ts.Date().Time().Add(time.Duration(ts.Hour)*time.Hour +
		time.Duration(ts.Minute)*time.Minute +
		time.Duration(ts.Second)*time.Second +
		time.Duration(ts.Milli)*time.Millisecond +
		time.Duration(ts.Micro)*time.Microsecond)
}

// Sink writes quote rows to one table.
type Sink struct {
	db        *pgxpool.Pool
	table     string
	batchSize int
	logger    *slog.Logger
}

// New returns a sink writing to table (DefaultTable when empty).
func New(db *pgxpool.Pool, table string, logger *slog.Logger) *Sink {
	if table == "" {
		table = DefaultTable
	}
	return &Sink{db: db, table: table, batchSize: DefaultBatchSize, logger: slogx.OrDefault(logger)}
}

func (s *Sink) ident() string { return pgx.Identifier{s.table}.Sanitize() }

// EnsureTable creates the table if it does not exist.
func (s *Sink) EnsureTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createTableSQL(s.ident()))
	if err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func createTableSQL(ident string) string {
	return `CREATE TABLE IF NOT EXISTS ` + ident + ` (
		symbol TEXT NOT NULL,
		ts     TIMESTAMPTZ NOT NULL,
		open   REAL NOT NULL,
		high   REAL NOT NULL,
		low    REAL NOT NULL,
		close  REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, ts)
	)`
}

func insertSQL(ident string) string {
	return `INSERT INTO ` + ident + ` (symbol, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, ts) DO NOTHING`
}

// Write inserts quotes for symbol and returns how many rows were new.
func (s *Sink) Write(ctx context.Context, symbol string, quotes []model.Quote) (int, error) {
	rows := Rows(symbol, quotes)
	start := time.Now()
	var inserted int
	for lo := 0; lo < len(rows); lo += s.batchSize {
		hi := min(lo+s.batchSize, len(rows))
		n, err := s.batchInsert(ctx, rows[lo:hi])
		if err != nil {
			return inserted, fmt.Errorf("insert %s rows %d..%d: %w", symbol, lo, hi, err)
		}
		inserted += n
	}
	s.logger.Debug("flushed quotes",
		"symbol", symbol,
		"rows", len(rows),
		"inserted", inserted,
		"duration", time.Since(start),
	)
	return inserted, nil
}

func (s *Sink) batchInsert(ctx context.Context, rows []Row) (int, error) {
	batch := &pgx.Batch{}
	q := insertSQL(s.ident())
	for _, r := range rows {
		batch.Queue(q, r.Symbol, r.TS, r.Open, r.High, r.Low, r.Close, r.Volume)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int
	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(ct.RowsAffected())
	}
	return inserted, nil
}
