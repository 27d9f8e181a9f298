// Package config
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/indicator"
	"github.com/amirphl/simple-ta/internal/tfutils"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
source: "sqlite"
sqlite_path: "candles.db"
metrics_file: "simple_ta.prom"
exchange: "wallex"
symbol: "BTCIRT"
timeframe: "1h"
from: 2024-01-01
to: 2024-06-01
heikin_ashi: false
output: "indicators.csv"
format: "csv"
indicators:
  - name: rsi
    length: 14
  - name: stoch
    fast_k: 14
    fast_d: 5
    slow_d: 3
  - name: cci
    length: 21
    c: 0.015
    offset: 1
    fill_method: ffill
  - name: td
...
*/

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceMemory   = "memory"
	SourceRedis    = "redis"
	SourceWallex   = "wallex"
	SourceMock     = "mock"
)

var (
	sources   = []string{SourceCSV, SourcePostgres, SourceSQLite, SourceRedis, SourceMemory, SourceWallex, SourceMock}
	exchanges = []string{"", SourceWallex, SourceMock}
	formats   = []string{"csv", "json"}
)

type Config struct {
	Source       string           `yaml:"source"`
	CSVPath      string           `yaml:"csv_path"`
	SQLitePath   string           `yaml:"sqlite_path"`
	Exchange     string           `yaml:"exchange"`
	WallexAPIKey string           `yaml:"wallex_api_key"`
	DBConnStr    string           `yaml:"db_conn_str"`
	DBMaxOpen    int              `yaml:"db_max_open"`
	DBMaxIdle    int              `yaml:"db_max_idle"`
	RunMigration bool             `yaml:"run_migration"`
	RedisAddr    string           `yaml:"redis_addr"`
	RedisDB      int              `yaml:"redis_db"`
	RedisPass    string           `yaml:"redis_password"`
	Symbol       string           `yaml:"symbol"`
	Timeframe    string           `yaml:"timeframe"`
	From         time.Time        `yaml:"from"`
	To           time.Time        `yaml:"to"`
	Latest       int              `yaml:"latest"`
	HeikinAshi   bool             `yaml:"heikin_ashi"`
	Output       string           `yaml:"output"`
	Format       string           `yaml:"format"`
	MetricsFile  string           `yaml:"metrics_file"`
	Indicators   []indicator.Spec `yaml:"indicators"`
}

// MustLoadConfig parses the command line and exits on error.
func MustLoadConfig() Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// Load builds the config from flags, then overlays the YAML file named by
// -config, then fills credentials from the environment.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("simple-ta", flag.ContinueOnError)
	source := fs.String("source", SourceSQLite, "Candle source: "+strings.Join(sources, " or "))
	csvPath := fs.String("csv", "", "CSV file with timestamp,open,high,low,close,volume columns")
	sqlitePath := fs.String("sqlite", "simple-ta.db", "SQLite database path")
	exchange := fs.String("exchange", SourceWallex, "Exchange to download missing candles from: wallex or mock (empty disables)")
	runMigration := fs.Bool("migrate", false, "Apply scripts/schema.sql to Postgres before running")
	redisAddr := fs.String("redis", "localhost:6379", "Redis address")
	redisDB := fs.Int("redis-db", 0, "Redis database number")
	symbol := fs.String("symbol", "BTCIRT", "Trading symbol")
	timeframe := fs.String("timeframe", "1h", "Candle timeframe")
	from := fs.String("from", time.Now().AddDate(0, -3, 0).Format("2006-01-02"), "Start date (YYYY-MM-DD)")
	to := fs.String("to", time.Now().Format("2006-01-02"), "End date (YYYY-MM-DD)")
	latest := fs.Int("latest", 0, "Fetch only the most recent N closed bars from the exchange source instead of [from, to)")
	heikinAshi := fs.Bool("heikin-ashi", false, "Compute indicators over Heikin-Ashi candles")
	output := fs.String("output", "", "Output file (stdout when empty)")
	format := fs.String("format", "csv", "Output format: csv or json")
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	indicators := fs.String("indicators", "rsi,stoch,cci", "Comma-separated indicators, each name or name:length (e.g., rsi:14,stoch:14,bias:30,td); for stoch the length is fast_k, td takes none")
	configFile := fs.String("config", "", "Path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	fromTime, err := time.Parse("2006-01-02", *from)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -from: %w", err)
	}
	toTime, err := time.Parse("2006-01-02", *to)
	if err != nil {
		return Config{}, fmt.Errorf("invalid -to: %w", err)
	}
	specs, err := ParseIndicators(*indicators)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Source:       *source,
		CSVPath:      *csvPath,
		SQLitePath:   *sqlitePath,
		Exchange:     *exchange,
		DBMaxOpen:    10,
		DBMaxIdle:    5,
		RunMigration: *runMigration,
		RedisAddr:    *redisAddr,
		RedisDB:      *redisDB,
		Symbol:       *symbol,
		Timeframe:    *timeframe,
		From:         fromTime,
		To:           toTime,
		Latest:       *latest,
		HeikinAshi:   *heikinAshi,
		Output:       *output,
		Format:       *format,
		MetricsFile:  *metricsFile,
		Indicators:   specs,
	}

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.WallexAPIKey == "" {
		cfg.WallexAPIKey = os.Getenv("WALLEX_API_KEY")
	}
	if cfg.DBConnStr == "" {
		cfg.DBConnStr = os.Getenv("DB_CONN_STR")
	}
	if cfg.RedisPass == "" {
		cfg.RedisPass = os.Getenv("REDIS_PASSWORD")
	}

	return cfg, cfg.Validate()
}

// ParseIndicators parses "name[:length],..." into specs.
func ParseIndicators(s string) ([]indicator.Spec, error) {
	var specs []indicator.Spec
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, length, found := strings.Cut(item, ":")
		spec := indicator.Spec{Name: name}
		if found {
			n, err := strconv.Atoi(length)
			if err != nil {
				return nil, fmt.Errorf("invalid length in indicator %q: %w", item, err)
			}
			spec.Length = n
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Validate checks the config for values the run cannot start with.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(sources, c.Source) {
		errs = append(errs, fmt.Errorf("unsupported source %q", c.Source))
	}
	if !slices.Contains(exchanges, c.Exchange) {
		errs = append(errs, fmt.Errorf("unsupported exchange %q", c.Exchange))
	}
	if !slices.Contains(formats, c.Format) {
		errs = append(errs, fmt.Errorf("unsupported format %q", c.Format))
	}
	if !tfutils.IsValidTimeframe(c.Timeframe) {
		errs = append(errs, fmt.Errorf("unsupported timeframe %q (supported: %s)",
			c.Timeframe, strings.Join(tfutils.GetSupportedTimeframes(), ", ")))
	}
	if c.Symbol == "" {
		errs = append(errs, errors.New("symbol is empty"))
	}
	if !c.From.Before(c.To) {
		errs = append(errs, fmt.Errorf("from (%s) must be before to (%s)",
			c.From.Format(time.DateOnly), c.To.Format(time.DateOnly)))
	}
	switch c.Source {
	case SourceCSV:
		if c.CSVPath == "" {
			errs = append(errs, errors.New("csv source needs a csv path"))
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite source needs a database path"))
		}
	case SourcePostgres:
		if c.DBConnStr == "" {
			errs = append(errs, errors.New("postgres source needs DB_CONN_STR or db_conn_str"))
		}
	case SourceRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis source needs an address"))
		}
	}
	switch {
	case c.Latest < 0:
		errs = append(errs, fmt.Errorf("latest must not be negative, got %d", c.Latest))
	case c.Latest > 0 && c.Source != SourceWallex && c.Source != SourceMock:
		errs = append(errs, fmt.Errorf("latest needs an exchange source (wallex or mock), got %q", c.Source))
	}
	if len(c.Indicators) == 0 {
		errs = append(errs, errors.New("no indicators configured"))
	}
	for _, spec := range c.Indicators {
		if _, err := indicator.Build(spec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
