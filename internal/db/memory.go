package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/zhangyunhao116/skipmap"
)

// MemoryStorage keeps candles in an ordered concurrent map. Keys sort by
// symbol, timeframe and then timestamp, so range scans come out in order.
type MemoryStorage struct {
	candles *skipmap.StringMap[candle.Candle]
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{candles: skipmap.NewString[candle.Candle]()}
}

func (m *MemoryStorage) Close() error { return nil }

func seriesPrefix(symbol, timeframe string) string {
	return strings.ToUpper(symbol) + "|" + timeframe + "|"
}

func candleKey(c candle.Candle) string {
	return fmt.Sprintf("%s%020d|%s", seriesPrefix(c.Symbol, c.Timeframe), c.Timestamp.UnixNano(), c.Source)
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}

// each calls fn for every candle of symbol/timeframe in timestamp order
// until fn returns false.
func (m *MemoryStorage) each(symbol, timeframe string, fn func(key string, c candle.Candle) bool) {
	prefix := seriesPrefix(symbol, timeframe)
	m.candles.Range(func(key string, c candle.Candle) bool {
		if !strings.HasPrefix(key, prefix) {
			return key < prefix
		}
		return fn(key, c)
	})
}

func (m *MemoryStorage) SaveCandles(_ context.Context, candles []candle.Candle) error {
	if err := validateAll(candles); err != nil {
		return err
	}
	for _, c := range candles {
		c.Timestamp = c.Timestamp.UTC()
		m.candles.Store(candleKey(c), c)
	}
	return nil
}

func (m *MemoryStorage) GetCandles(_ context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error) {
	var out []candle.Candle
	m.each(symbol, timeframe, func(_ string, c candle.Candle) bool {
		if !c.Timestamp.Before(end) {
			return false
		}
		if (source == "" || c.Source == source) && inRange(c.Timestamp, start, end) {
			out = append(out, c)
		}
		return true
	})
	return out, nil
}

func (m *MemoryStorage) GetLatestCandle(_ context.Context, symbol, timeframe string) (*candle.Candle, error) {
	var latest *candle.Candle
	m.each(symbol, timeframe, func(_ string, c candle.Candle) bool {
		cc := c
		latest = &cc
		return true
	})
	return latest, nil
}

func (m *MemoryStorage) GetCandleCount(ctx context.Context, symbol, timeframe string, start, end time.Time) (int, error) {
	cs, err := m.GetCandles(ctx, symbol, timeframe, "", start, end)
	if err != nil {
		return 0, err
	}
	return len(cs), nil
}

func (m *MemoryStorage) DeleteCandles(_ context.Context, symbol, timeframe string, before time.Time) error {
	var stale []string
	m.each(symbol, timeframe, func(key string, c candle.Candle) bool {
		if !c.Timestamp.Before(before) {
			return false
		}
		stale = append(stale, key)
		return true
	})
	for _, key := range stale {
		m.candles.Delete(key)
	}
	return nil
}
