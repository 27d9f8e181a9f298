package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/utils"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candles (
	symbol    TEXT    NOT NULL,
	timeframe TEXT    NOT NULL,
	ts        INTEGER NOT NULL,
	open      REAL    NOT NULL,
	high      REAL    NOT NULL,
	low       REAL    NOT NULL,
	close     REAL    NOT NULL,
	volume    REAL    NOT NULL,
	source    TEXT    NOT NULL,
	PRIMARY KEY (symbol, timeframe, ts, source)
);`

// SQLite is a single-file candle store. Timestamps are kept as unix seconds.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	utils.GetLogger().Printf("Store | opened sqlite database at %s", path)
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveCandles upserts candles in one transaction.
func (s *SQLite) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	if err := validateAll(candles); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candles (symbol, timeframe, ts, open, high, low, close, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timeframe, ts, source) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for i, c := range candles {
		if _, err := stmt.ExecContext(ctx,
			c.Symbol, c.Timeframe, c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume, c.Source); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert candle at index %d (%s %s at %s): %w",
				i, c.Symbol, c.Timeframe, c.Timestamp, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// GetCandles retrieves candles in [start, end) ordered by timestamp.
// An empty source matches every source.
func (s *SQLite) GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error) {
	query := `
		SELECT ts, open, high, low, close, volume, symbol, timeframe, source
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts < ?`
	args := []any{symbol, timeframe, start.Unix(), end.Unix()}
	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY ts ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows, scanSQLiteCandle)
}

// GetLatestCandle returns the most recent candle, or nil if there is none.
func (s *SQLite) GetLatestCandle(ctx context.Context, symbol, timeframe string) (*candle.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume, symbol, timeframe, source
		FROM candles
		WHERE symbol = ? AND timeframe = ?
		ORDER BY ts DESC LIMIT 1`, symbol, timeframe)
	if err != nil {
		return nil, fmt.Errorf("sqlite query latest candle: %w", err)
	}
	defer rows.Close()

	candles, err := scanCandles(rows, scanSQLiteCandle)
	if err != nil || len(candles) == 0 {
		return nil, err
	}
	return &candles[0], nil
}

func (s *SQLite) GetCandleCount(ctx context.Context, symbol, timeframe string, start, end time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM candles
		WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts < ?`,
		symbol, timeframe, start.Unix(), end.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite count candles: %w", err)
	}
	return count, nil
}

func (s *SQLite) DeleteCandles(ctx context.Context, symbol, timeframe string, before time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM candles WHERE symbol = ? AND timeframe = ? AND ts < ?`,
		symbol, timeframe, before.Unix()); err != nil {
		return fmt.Errorf("sqlite delete candles: %w", err)
	}
	return nil
}

func scanSQLiteCandle(rows *sql.Rows, c *candle.Candle) error {
	var ts int64
	if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.Symbol, &c.Timeframe, &c.Source); err != nil {
		return err
	}
	c.Timestamp = time.Unix(ts, 0)
	return nil
}
