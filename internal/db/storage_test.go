package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	dbconf "github.com/amirphl/simple-ta/internal/db/conf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandles(symbol, source string, start time.Time, n int) []candle.Candle {
	out := make([]candle.Candle, n)
	for i := range out {
		price := 100 + float64(i)
		out[i] = candle.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 2,
			Low:       price - 1,
			Close:     price + 1,
			Volume:    10 * float64(i+1),
			Symbol:    symbol,
			Timeframe: "1m",
			Source:    source,
		}
	}
	return out
}

// runStorageTests exercises the behavior every Storage must share.
func runStorageTests(t *testing.T, s Storage) {
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("save and get range", func(t *testing.T) {
		require.NoError(t, s.SaveCandles(ctx, testCandles("BTCIRT", "test", start, 5)))

		got, err := s.GetCandles(ctx, "BTCIRT", "1m", "", start.Add(time.Minute), start.Add(4*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.True(t, got[0].Timestamp.Equal(start.Add(time.Minute)))
		assert.Equal(t, 101.0, got[0].Open)
		assert.Equal(t, 104.0, got[2].Close)
		assert.Equal(t, "test", got[2].Source)
		assert.Equal(t, time.UTC, got[0].Timestamp.Location())
	})

	t.Run("upsert replaces values", func(t *testing.T) {
		c := testCandles("BTCIRT", "test", start, 1)
		c[0].Close = 101.5
		c[0].Volume = 999
		require.NoError(t, s.SaveCandles(ctx, c))

		got, err := s.GetCandles(ctx, "BTCIRT", "1m", "test", start, start.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 101.5, got[0].Close)
		assert.Equal(t, 999.0, got[0].Volume)
	})

	t.Run("source filter", func(t *testing.T) {
		require.NoError(t, s.SaveCandles(ctx, testCandles("BTCIRT", "wallex", start, 2)))

		all, err := s.GetCandles(ctx, "BTCIRT", "1m", "", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, all, 7)

		only, err := s.GetCandles(ctx, "BTCIRT", "1m", "wallex", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, only, 2)
	})

	t.Run("invalid candles are rejected", func(t *testing.T) {
		bad := testCandles("ETHIRT", "test", start, 3)
		bad[2].High = 1
		assert.Error(t, s.SaveCandles(ctx, bad))

		got, err := s.GetCandles(ctx, "ETHIRT", "1m", "", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("latest and count", func(t *testing.T) {
		latest, err := s.GetLatestCandle(ctx, "BTCIRT", "1m")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.Timestamp.Equal(start.Add(4*time.Minute)))

		none, err := s.GetLatestCandle(ctx, "XRPIRT", "1m")
		require.NoError(t, err)
		assert.Nil(t, none)

		n, err := s.GetCandleCount(ctx, "BTCIRT", "1m", start, start.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 4, n) // two per source
	})

	t.Run("delete before", func(t *testing.T) {
		require.NoError(t, s.DeleteCandles(ctx, "BTCIRT", "1m", start.Add(3*time.Minute)))
		got, err := s.GetCandles(ctx, "BTCIRT", "1m", "", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty save is a no-op", func(t *testing.T) {
		assert.NoError(t, s.SaveCandles(ctx, nil))
	})
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	runStorageTests(t, s)
}

func TestSQLiteStorage(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	defer s.Close()
	runStorageTests(t, s)
}

func TestPostgresStorage(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	require.NotNil(t, cfg)
	defer cleanup()

	s, err := New(*cfg)
	require.NoError(t, err)
	runStorageTests(t, s)
}

func TestPostgresTransactionFromContext(t *testing.T) {
	cfg, cleanup := dbconf.NewTestConfig(t)
	require.NotNil(t, cfg)
	defer cleanup()

	s, err := New(*cfg)
	require.NoError(t, err)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx, err := s.GetDB().BeginTx(ctx, nil)
	require.NoError(t, err)
	txCtx := WithTransaction(ctx, tx)
	require.Same(t, tx, GetTransaction(txCtx))

	require.NoError(t, s.SaveCandles(txCtx, testCandles("BTCIRT", "test", start, 3)))
	inTx, err := s.GetCandles(txCtx, "BTCIRT", "1m", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, inTx, 3)

	require.NoError(t, tx.Rollback())
	after, err := s.GetCandles(ctx, "BTCIRT", "1m", "", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(dbconf.Config{})
	assert.Error(t, err)
}

func TestRedisStorage(t *testing.T) {
	s, err := NewRedis(RedisConfig{Addr: "localhost:6379", DB: 15})
	if err != nil {
		t.Skipf("Skipping test: Redis is not running or not accessible: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Client().FlushDB(ctx).Err())
	defer s.Client().FlushDB(ctx)

	runStorageTests(t, s)
}
