package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/config"
	"github.com/amirphl/simple-ta/internal/db"
	"github.com/amirphl/simple-ta/internal/db/conf"
	"github.com/amirphl/simple-ta/internal/exchange"
	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/metrics"
	"github.com/amirphl/simple-ta/internal/report"
	"github.com/amirphl/simple-ta/internal/series"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"github.com/lib/pq"
)

// maxChunkCandles bounds one exchange request.
const maxChunkCandles = 1000

func main() {
	cfg := config.MustLoadConfig()
	log.Printf("Starting Simple TA: %s %s from %s [%s - %s]",
		cfg.Symbol, cfg.Timeframe, cfg.Source, cfg.From.Format(time.DateOnly), cfg.To.Format(time.DateOnly))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	m := metrics.New()
	if err := run(ctx, cfg, m); err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Fatalf("Failed to write metrics: %v", err)
		}
		log.Printf("Saved metrics to %s", cfg.MetricsFile)
	}
}

func run(ctx context.Context, cfg config.Config, m *metrics.Metrics) error {
	inds, err := indicator.BuildAll(cfg.Indicators)
	if err != nil {
		return err
	}

	candles, err := loadCandles(ctx, cfg, m)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s %s in [%s, %s)", cfg.Symbol, cfg.Timeframe,
			cfg.From.Format(time.RFC3339), cfg.To.Format(time.RFC3339))
	}
	log.Printf("Loaded %d candles", len(candles))

	if cfg.HeikinAshi {
		candles = candle.GenerateHeikenAshiCandles(candles)
	}
	cols, err := candle.ToColumns(candles)
	if err != nil {
		return fmt.Errorf("preparing candles: %w", err)
	}

	table, err := computeAll(cols, inds, m)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	if err := report.Write(out, cfg.Format, table); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if cfg.Output != "" {
		log.Printf("Saved results to %s", cfg.Output)
	}

	return report.WriteSummary(os.Stderr, report.Summarize(table))
}

// computeAll runs every indicator over cols and collects the output columns.
func computeAll(cols candle.Columns, inds []indicator.Indicator, m *metrics.Metrics) (report.Table, error) {
	frames := make([]series.Frame, 0, len(inds))
	for _, ind := range inds {
		start := time.Now()
		frame, err := ind.Calculate(cols)
		m.ObserveIndicator(ind.Name(), time.Since(start), err)
		if err != nil {
			return report.Table{}, err
		}
		for _, col := range frame.Columns {
			missing := 0
			for _, v := range col.Values {
				if math.IsNaN(v) {
					missing++
				}
			}
			m.MissingValues.WithLabelValues(col.Name).Set(float64(missing))
		}
		frames = append(frames, frame)
	}
	return report.NewTable(cols.Timestamps, frames...)
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file %s: %w", path, err)
	}
	return f, f.Close, nil
}

// loadCandles reads candles from the configured source, sorted by timestamp.
func loadCandles(ctx context.Context, cfg config.Config, m *metrics.Metrics) ([]candle.Candle, error) {
	switch cfg.Source {
	case config.SourceCSV:
		candles, err := loadCSV(cfg)
		if err != nil {
			return nil, err
		}
		m.CandlesLoaded.WithLabelValues(config.SourceCSV).Add(float64(len(candles)))
		return candles, nil

	case config.SourceWallex, config.SourceMock:
		ex, err := newExchange(cfg.Source, cfg.WallexAPIKey)
		if err != nil {
			return nil, err
		}
		var candles []candle.Candle
		if cfg.Latest > 0 {
			candles, err = fetchLatest(ctx, ex, cfg.Symbol, cfg.Timeframe, cfg.Latest, m)
		} else {
			candles, err = downloadCandles(ctx, ex, cfg.Symbol, cfg.Timeframe, cfg.From, cfg.To, m)
		}
		if err != nil {
			return nil, err
		}
		m.CandlesLoaded.WithLabelValues(ex.Name()).Add(float64(len(candles)))
		return candles, nil
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var ex exchange.Exchange
	if cfg.Exchange != "" {
		if ex, err = newExchange(cfg.Exchange, cfg.WallexAPIKey); err != nil {
			return nil, err
		}
	}
	return loadStoredCandles(ctx, store, ex, cfg.Symbol, cfg.Timeframe, cfg.From, cfg.To, m)
}

func loadCSV(cfg config.Config) ([]candle.Candle, error) {
	f, err := os.Open(cfg.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("opening csv: %w", err)
	}
	defer f.Close()

	all, err := candle.ReadCSV(f, cfg.Symbol, cfg.Timeframe, config.SourceCSV)
	if err != nil {
		return nil, err
	}
	var candles []candle.Candle
	for _, c := range all {
		if !c.Timestamp.Before(cfg.From) && c.Timestamp.Before(cfg.To) {
			candles = append(candles, c)
		}
	}
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

func newExchange(name, apiKey string) (exchange.Exchange, error) {
	switch name {
	case config.SourceWallex:
		return exchange.NewWallexExchange(apiKey), nil
	case config.SourceMock:
		return exchange.NewMockExchange(), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q", name)
	}
}

func openStorage(ctx context.Context, cfg config.Config) (db.Storage, error) {
	switch cfg.Source {
	case config.SourceMemory:
		return db.NewMemory(), nil
	case config.SourceSQLite:
		return db.NewSQLite(cfg.SQLitePath)
	case config.SourceRedis:
		return db.NewRedis(db.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	case config.SourcePostgres:
		if cfg.RunMigration {
			if err := runMigrations(ctx, cfg.DBConnStr); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		dbConfig, err := conf.NewConfig(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
		if err != nil {
			return nil, fmt.Errorf("failed to create DB config: %w", err)
		}
		log.Println("Connected to Postgres/TimescaleDB")
		return db.New(*dbConfig)
	default:
		return nil, fmt.Errorf("source %q is not a candle store", cfg.Source)
	}
}

// loadStoredCandles loads candles from the store, downloading and saving them
// from ex first when the store has none for the range.
func loadStoredCandles(
	ctx context.Context,
	store db.Storage,
	ex exchange.Exchange,
	symbol, timeframe string,
	from, to time.Time,
	m *metrics.Metrics,
) ([]candle.Candle, error) {
	candles, err := store.GetCandles(ctx, symbol, timeframe, "", from, to)
	if err != nil {
		return nil, fmt.Errorf("error loading candles from database: %w", err)
	}
	if len(candles) > 0 || ex == nil {
		m.CandlesLoaded.WithLabelValues("store").Add(float64(len(candles)))
		return dedupeSources(candles), nil
	}

	log.Printf("No historical candles found in DB for %s, downloading from %s...", symbol, ex.Name())
	downloaded, err := downloadCandles(ctx, ex, symbol, timeframe, from, to, m)
	if err != nil {
		return nil, err
	}
	if len(downloaded) > 0 {
		saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = store.SaveCandles(saveCtx, downloaded)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("error saving candles to database: %w", err)
		}
	}

	candles, err = store.GetCandles(ctx, symbol, timeframe, "", from, to)
	if err != nil {
		return nil, fmt.Errorf("error loading downloaded candles: %w", err)
	}
	m.CandlesLoaded.WithLabelValues(ex.Name()).Add(float64(len(candles)))
	return dedupeSources(candles), nil
}

// dedupeSources keeps one candle per timestamp when several sources stored
// the same bar; the first one in storage order wins.
func dedupeSources(candles []candle.Candle) []candle.Candle {
	out := candles[:0:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(c.Timestamp) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// downloadCandles fetches [from, to) in chunks of at most maxChunkCandles bars.
func downloadCandles(
	ctx context.Context,
	ex exchange.Exchange,
	symbol, timeframe string,
	from, to time.Time,
	m *metrics.Metrics,
) ([]candle.Candle, error) {
	dur, err := tfutils.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	chunk := dur * maxChunkCandles

	var candles []candle.Candle
	for curr := from; curr.Before(to); {
		next := curr.Add(chunk)
		if next.After(to) {
			next = to
		}

		downloadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		fetched, err := ex.FetchCandles(downloadCtx, symbol, timeframe, curr, next)
		cancel()
		m.ObserveFetch(ex.Name(), err)
		if err != nil {
			return nil, fmt.Errorf("error fetching candles from %s to %s: %w",
				curr.Format(time.RFC3339), next.Format(time.RFC3339), err)
		}

		if len(fetched) > 0 {
			log.Printf("Downloaded %d candles [%s-%s]",
				len(fetched), curr.Format(time.RFC3339), next.Format(time.RFC3339))
		} else {
			log.Printf("No candles available from %s to %s",
				curr.Format(time.RFC3339), next.Format(time.RFC3339))
		}
		candles = append(candles, fetched...)
		curr = next
	}
	return closedCandles(candles, time.Now()), nil
}

// fetchLatest downloads the most recent count closed bars.
func fetchLatest(
	ctx context.Context,
	ex exchange.Exchange,
	symbol, timeframe string,
	count int,
	m *metrics.Metrics,
) ([]candle.Candle, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	candles, err := ex.FetchLatestCandles(fetchCtx, symbol, timeframe, count)
	m.ObserveFetch(ex.Name(), err)
	if err != nil {
		return nil, fmt.Errorf("error fetching latest %d candles: %w", count, err)
	}
	log.Printf("Downloaded latest %d candles", len(candles))
	return closedCandles(candles, time.Now()), nil
}

// closedCandles drops bars that have not closed by now. Exchanges serve the
// forming bar with partial values, which must not reach the store.
func closedCandles(candles []candle.Candle, now time.Time) []candle.Candle {
	out := candles[:0]
	for _, c := range candles {
		if !c.End().After(now) {
			out = append(out, c)
		}
	}
	return out
}

// runMigrations creates the database named in connStr if needed and applies
// scripts/schema.sql to it.
func runMigrations(ctx context.Context, connStr string) error {
	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name not found in connection string")
	}

	base := *u
	base.Path = "/postgres"
	baseDB, err := sql.Open("postgres", base.String())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer baseDB.Close()

	var exists bool
	err = baseDB.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if !exists {
		log.Printf("Creating database %s...", dbName)
		if _, err := baseDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	target, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer target.Close()

	schemaPath, err := conf.FindSchema()
	if err != nil {
		return err
	}
	schemaSQL, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if err := conf.ApplySchema(ctx, target, string(schemaSQL), log.Printf); err != nil {
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}
