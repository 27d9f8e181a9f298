// Package conf
package conf

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
)

// Config holds a database connection and metadata
type Config struct {
	Name      string
	DB        *sql.DB
	ConnStr   string
	AdminDB   *sql.DB
	SchemaSQL string
}

// NewConfig opens a pooled Postgres connection and verifies it with a ping.
func NewConfig(connStr string, maxOpen, maxIdle int) (*Config, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Config{DB: db, ConnStr: connStr}, nil
}

// FindSchema looks for scripts/schema.sql in the working directory and up to
// three parents.
func FindSchema() (string, error) {
	path := filepath.Join("scripts", "schema.sql")
	for range 4 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", fmt.Errorf("scripts/schema.sql not found")
}

// ApplySchema executes the schema statements one by one. TimescaleDB
// statements are skipped when the extension is not available.
func ApplySchema(ctx context.Context, db *sql.DB, schema string, logf func(format string, args ...any)) error {
	var hasTimescaleDB bool
	if err := db.QueryRowContext(ctx,
		"SELECT true FROM pg_available_extensions WHERE name = 'timescaledb'").Scan(&hasTimescaleDB); err != nil {
		logf("Warning: TimescaleDB extension is not available, continuing without it")
	}
	if hasTimescaleDB {
		if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;"); err != nil {
			logf("Warning: Failed to create TimescaleDB extension: %v", err)
			hasTimescaleDB = false
		}
	}

	for stmt := range strings.SplitSeq(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !hasTimescaleDB && strings.Contains(strings.ToLower(stmt), "create_hypertable") {
			logf("Skipping TimescaleDB statement: %s", stmt)
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

// NewTestConfig creates a new database with a random name and applies the schema.
// The test is skipped when no local Postgres is reachable.
func NewTestConfig(t *testing.T) (*Config, func()) {
	t.Helper()

	const (
		testHost     = "localhost"
		testPort     = 5432
		testUser     = "postgres"
		testPassword = "postgres"
	)

	adminConnStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=postgres sslmode=disable",
		testHost, testPort, testUser, testPassword)

	adminDB, err := sql.Open("postgres", adminConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	if err := adminDB.Ping(); err != nil {
		adminDB.Close()
		t.Skipf("Skipping test: PostgreSQL is not running or not accessible: %v", err)
		return nil, func() {}
	}

	dbName := fmt.Sprintf("test_db_%d", rand.Int31())
	if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		adminDB.Close()
		t.Fatalf("Failed to create test database: %v", err)
	}

	schemaPath, err := FindSchema()
	if err != nil {
		adminDB.Close()
		t.Fatalf("Failed to locate schema: %v", err)
	}
	schemaSQL, err := os.ReadFile(schemaPath)
	if err != nil {
		adminDB.Close()
		t.Fatalf("Failed to read schema.sql: %v", err)
	}

	dbConnStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		testHost, testPort, testUser, testPassword, dbName)
	db, err := sql.Open("postgres", dbConnStr)
	if err != nil {
		adminDB.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := ApplySchema(context.Background(), db, string(schemaSQL), t.Logf); err != nil {
		db.Close()
		adminDB.Close()
		t.Fatalf("%v", err)
	}

	cfg := &Config{
		Name:      dbName,
		DB:        db,
		ConnStr:   dbConnStr,
		AdminDB:   adminDB,
		SchemaSQL: string(schemaSQL),
	}

	cleanup := func() {
		db.Close()
		if _, err := adminDB.Exec(fmt.Sprintf("DROP DATABASE %s WITH (FORCE)", dbName)); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
		}
		adminDB.Close()
	}

	return cfg, cleanup
}
